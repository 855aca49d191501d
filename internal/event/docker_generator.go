// Package event streams lifecycle events of a named container.
package event

import (
	"context"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/rs/zerolog"
)

const bufferSize = 16

type DockerGenerator struct {
	logger zerolog.Logger
	cli    dockerClient
}

func NewDockerGenerator(cli dockerClient, logger zerolog.Logger) *DockerGenerator {
	return &DockerGenerator{
		logger: logger,
		cli:    cli,
	}
}

// Subscribe first reports the container if it is already running, then
// streams its start, stop and die events until ctx is done.
func (dw *DockerGenerator) Subscribe(ctx context.Context, name string) (<-chan ContainerEvent, error) {
	out := make(chan ContainerEvent, bufferSize)
	since := time.Now()

	containers, err := dw.cli.ContainerList(ctx, container.ListOptions{
		All:     false,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(out)

		// The name filter matches substrings, so check the name exactly.
		for _, c := range containers {
			if containerName(c.Names) != name {
				continue
			}
			select {
			case out <- fromContainerSummary(c):
			case <-ctx.Done():
				dw.logger.Info().Msg("Docker event generator cancelled during initial emit")
				return
			}
		}

		filterArgs := filters.NewArgs()
		filterArgs.Add("type", string(events.ContainerEventType))
		filterArgs.Add("container", name)
		filterArgs.Add("event", string(events.ActionStart))
		filterArgs.Add("event", string(events.ActionStop))
		filterArgs.Add("event", string(events.ActionDie))

		options := events.ListOptions{
			Filters: filterArgs,
			Since:   since.Format(time.RFC3339Nano),
		}
		eventCh, errCh := dw.cli.Events(ctx, options)

		for {
			select {
			case <-ctx.Done():
				dw.logger.Info().Msg("Docker watcher cancelled by context")
				return
			case err, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				if err != nil {
					dw.logger.Error().Err(err).Msg("Error from Docker events stream")
					return
				}
			case msg, ok := <-eventCh:
				if !ok {
					dw.logger.Info().Msg("Docker events channel closed")
					return
				}

				event, convErr := fromEventsMessage(msg)
				if convErr != nil {
					if IsUnsupportedEventType(convErr) {
						dw.logger.Debug().Err(convErr).Msg("Error converting docker event message to container event")
					} else {
						dw.logger.Error().Err(convErr).Msg("converting docker event message to container event")
					}
					continue
				}

				dw.logger.Debug().Msgf("Received Docker event: %+v", event)
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
