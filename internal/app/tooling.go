package app

import (
	"fmt"

	"github.com/Danyil-SY/assistant-bot/internal/event"
	"github.com/Danyil-SY/assistant-bot/internal/image"
	dockerCli "github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

// Tooling wires the image helpers to the local container engine.
type Tooling struct {
	dockerClient *dockerCli.Client
	Builder      *image.Builder
	Verifier     *image.Verifier
}

func NewTooling(logger zerolog.Logger) (*Tooling, error) {
	dockerClient, err := dockerCli.NewClientWithOpts(dockerCli.FromEnv, dockerCli.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	gen := event.NewDockerGenerator(dockerClient, logger)

	return &Tooling{
		dockerClient: dockerClient,
		Builder:      image.NewBuilder(dockerClient, logger),
		Verifier:     image.NewVerifier(dockerClient, gen, logger),
	}, nil
}

func (t *Tooling) Close() error {
	if t.dockerClient != nil {
		if err := t.dockerClient.Close(); err != nil {
			return fmt.Errorf("close docker client: %w", err)
		}
	}
	return nil
}
