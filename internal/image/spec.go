// Package image describes, builds and verifies the container image the bot ships in.
package image

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/docker/go-connections/nat"
	"github.com/opencontainers/go-digest"
)

const (
	// RevisionLabel carries the digest of the Dockerfile an image was built from.
	RevisionLabel = "org.opencontainers.image.revision"
	TitleLabel    = "org.opencontainers.image.title"

	DefaultMainPackage = "./cmd/assistant-bot"
)

// Spec is the build-time description of the deployable unit. It is created
// once and not changed afterwards.
type Spec struct {
	BaseImage    string
	RuntimeImage string
	WorkDir      string
	Copy         []string
	Tooling      []string
	MainPackage  string
	Port         int
	Entrypoint   []string
	Labels       map[string]string
}

func DefaultSpec() Spec {
	return Spec{
		BaseImage:    "golang:1.24-alpine",
		RuntimeImage: "alpine:3.20",
		WorkDir:      "/app",
		Copy:         []string{"."},
		Tooling:      []string{"go mod download"},
		MainPackage:  DefaultMainPackage,
		Port:         8000,
		Entrypoint:   []string{"/usr/local/bin/assistant-bot", "serve"},
		Labels:       map[string]string{TitleLabel: "assistant-bot"},
	}
}

// FromConfig builds the spec described by the image section of cfg. The
// exposed port is the port the bot listens on.
func FromConfig(cfg *config.Config) Spec {
	spec := DefaultSpec()
	if cfg.Image.BaseImage != "" {
		spec.BaseImage = cfg.Image.BaseImage
	}
	spec.RuntimeImage = cfg.Image.RuntimeImage
	if cfg.Image.WorkDir != "" {
		spec.WorkDir = cfg.Image.WorkDir
	}
	if len(cfg.Image.Entrypoint) > 0 {
		spec.Entrypoint = append([]string(nil), cfg.Image.Entrypoint...)
	}
	spec.Port = cfg.App.Port
	return spec
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.BaseImage) == "" {
		return fmt.Errorf("base image must not be empty")
	}
	if !path.IsAbs(s.WorkDir) {
		return fmt.Errorf("working directory must be absolute, got %q", s.WorkDir)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if len(s.Entrypoint) != 2 || s.Entrypoint[0] == "" || s.Entrypoint[1] == "" {
		return fmt.Errorf("entrypoint must be a program and one module argument, got %q", s.Entrypoint)
	}
	if len(s.Copy) == 0 {
		return fmt.Errorf("at least one copy source is required")
	}
	return nil
}

// ExposedPort is the only port the image declares.
func (s Spec) ExposedPort() nat.Port {
	return nat.Port(strconv.Itoa(s.Port) + "/tcp")
}

func (s Spec) PortSet() nat.PortSet {
	return nat.PortSet{s.ExposedPort(): struct{}{}}
}

// Dockerfile renders the spec. The output only depends on the spec, so equal
// specs render byte-identical files.
func (s Spec) Dockerfile() string {
	var b strings.Builder
	entrypoint, _ := json.Marshal(s.Entrypoint)
	binary := ""
	if len(s.Entrypoint) > 0 {
		binary = s.Entrypoint[0]
	}
	mainPkg := s.MainPackage
	if mainPkg == "" {
		mainPkg = DefaultMainPackage
	}

	multiStage := s.RuntimeImage != ""
	if multiStage {
		fmt.Fprintf(&b, "FROM %s AS build\n", s.BaseImage)
	} else {
		fmt.Fprintf(&b, "FROM %s\n", s.BaseImage)
	}
	fmt.Fprintf(&b, "WORKDIR %s\n", s.WorkDir)
	fmt.Fprintf(&b, "COPY %s .\n", strings.Join(s.Copy, " "))
	for _, step := range s.Tooling {
		fmt.Fprintf(&b, "RUN %s\n", step)
	}
	fmt.Fprintf(&b, "RUN CGO_ENABLED=0 go build -o %s %s\n", binary, mainPkg)

	if multiStage {
		fmt.Fprintf(&b, "\nFROM %s\n", s.RuntimeImage)
		fmt.Fprintf(&b, "WORKDIR %s\n", s.WorkDir)
		fmt.Fprintf(&b, "COPY --from=build %s %s\n", s.WorkDir, s.WorkDir)
		fmt.Fprintf(&b, "COPY --from=build %s %s\n", binary, binary)
	}

	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "LABEL %s=%s\n", k, strconv.Quote(s.Labels[k]))
	}

	fmt.Fprintf(&b, "EXPOSE %s\n", s.ExposedPort())
	fmt.Fprintf(&b, "ENTRYPOINT %s\n", entrypoint)
	return b.String()
}

// Digest identifies the rendered Dockerfile.
func (s Spec) Digest() digest.Digest {
	return digest.FromString(s.Dockerfile())
}
