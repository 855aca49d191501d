package image

import (
	"context"
	"io"

	"github.com/Danyil-SY/assistant-bot/internal/event"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
)

type buildClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
}

type inspectClient interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// eventSource streams lifecycle events of one container.
type eventSource interface {
	Subscribe(ctx context.Context, containerName string) (<-chan event.ContainerEvent, error)
}
