package image

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/rs/zerolog"
)

// GeneratedDockerfile is the name the rendered Dockerfile gets inside the
// build context.
const GeneratedDockerfile = ".assistant-bot.Dockerfile"

type Builder struct {
	cli    buildClient
	logger zerolog.Logger
}

func NewBuilder(cli buildClient, logger zerolog.Logger) *Builder {
	return &Builder{cli: cli, logger: logger}
}

// Build sends contextDir plus the rendered Dockerfile to the engine and
// returns the id of the built image.
func (b *Builder) Build(ctx context.Context, spec Spec, contextDir, tag string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", fmt.Errorf("invalid image spec: %w", err)
	}
	dockerfile := []byte(spec.Dockerfile())
	revision := spec.Digest()

	excludes, err := excludePatterns(contextDir)
	if err != nil {
		return "", err
	}
	tarball, err := archive.TarWithOptions(contextDir, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	buildContext := archive.ReplaceFileTarWrapper(tarball, map[string]archive.TarModifierFunc{
		GeneratedDockerfile: func(path string, header *tar.Header, content io.Reader) (*tar.Header, []byte, error) {
			return &tar.Header{Name: path, Mode: 0o644, Typeflag: tar.TypeReg, ModTime: time.Unix(0, 0)}, dockerfile, nil
		},
	})
	defer buildContext.Close()

	b.logger.Info().Str("tag", tag).Str("revision", revision.String()).Msgf("Building image from %s", contextDir)
	resp, err := b.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: GeneratedDockerfile,
		Labels:     map[string]string{RevisionLabel: revision.String()},
		Remove:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	id, err := b.drain(resp.Body, tag)
	if err != nil {
		return "", err
	}
	b.logger.Info().Str("tag", tag).Str("id", id).Msg("Image built")
	return id, nil
}

// excludePatterns returns the patterns of contextDir's .dockerignore plus .git.
func excludePatterns(contextDir string) ([]string, error) {
	excludes := []string{".git"}
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if errors.Is(err, os.ErrNotExist) {
		return excludes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open .dockerignore: %w", err)
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read .dockerignore: %w", err)
	}
	return append(excludes, patterns...), nil
}

// drain reads the build output until it ends. The build is only finished
// once the stream is fully consumed.
func (b *Builder) drain(body io.Reader, tag string) (string, error) {
	var id string
	dec := json.NewDecoder(body)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return id, nil
			}
			return "", fmt.Errorf("read build output: %w", err)
		}
		switch {
		case msg.Error != nil:
			return "", NewBuildError(tag, msg.Error.Message)
		case msg.ErrorMessage != "":
			return "", NewBuildError(tag, msg.ErrorMessage)
		case msg.Aux != nil:
			var aux struct {
				ID string `json:"ID"`
			}
			if err := json.Unmarshal(*msg.Aux, &aux); err == nil && aux.ID != "" {
				id = aux.ID
			}
		case msg.Stream != "":
			if line := strings.TrimSpace(msg.Stream); line != "" {
				b.logger.Debug().Str("tag", tag).Msg(line)
			}
		}
	}
}

// BuildFromGit shallow clones url at ref into a temporary directory and builds it.
func (b *Builder) BuildFromGit(ctx context.Context, spec Spec, url, ref, tag string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "assistant-bot-build-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	b.logger.Info().Str("url", url).Str("ref", ref).Msgf("Cloning into %s", tmpDir)
	_, err = git.PlainCloneContext(ctx, tmpDir, false, cloneOptions(url, ref))
	if err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return b.Build(ctx, spec, tmpDir, tag)
}

func cloneOptions(url, ref string) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if ref != "" {
		opts.ReferenceName = referenceName(ref)
	}
	return opts
}

// referenceName accepts a full reference or a branch name.
func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}
