package image

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sort"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/event"
	"github.com/rs/zerolog"
)

// Report describes a container that matches the image spec.
type Report struct {
	ContainerID string
	Name        string
	// PublishedAddr is the host address the exposed port is published on,
	// empty when the port is not published.
	PublishedAddr string
}

type Verifier struct {
	cli    inspectClient
	events eventSource
	logger zerolog.Logger
}

func NewVerifier(cli inspectClient, events eventSource, logger zerolog.Logger) *Verifier {
	return &Verifier{cli: cli, events: events, logger: logger}
}

// Verify checks that the named container runs the image described by spec:
// exactly the declared port, the two element entrypoint and the working
// directory. Every difference is reported in one *MismatchError.
func (v *Verifier) Verify(ctx context.Context, name string, spec Spec) (Report, error) {
	info, err := v.cli.ContainerInspect(ctx, name)
	if err != nil {
		return Report{}, fmt.Errorf("inspect container %s: %w", name, err)
	}
	if info.ContainerJSONBase == nil || info.Config == nil {
		return Report{}, fmt.Errorf("inspect container %s: incomplete response", name)
	}

	var mismatches []string
	if info.State == nil || !info.State.Running {
		status := "unknown"
		if info.State != nil {
			status = info.State.Status
		}
		mismatches = append(mismatches, fmt.Sprintf("container is not running (status %s)", status))
	}

	exposed := make([]string, 0, len(info.Config.ExposedPorts))
	for p := range info.Config.ExposedPorts {
		exposed = append(exposed, string(p))
	}
	sort.Strings(exposed)
	if want := []string{string(spec.ExposedPort())}; !slices.Equal(exposed, want) {
		mismatches = append(mismatches, fmt.Sprintf("exposed ports are [%s], want [%s]", strings.Join(exposed, " "), want[0]))
	}

	if got := []string(info.Config.Entrypoint); !slices.Equal(got, spec.Entrypoint) {
		mismatches = append(mismatches, fmt.Sprintf("entrypoint is %q, want %q", got, spec.Entrypoint))
	}
	if info.Config.WorkingDir != spec.WorkDir {
		mismatches = append(mismatches, fmt.Sprintf("working directory is %q, want %q", info.Config.WorkingDir, spec.WorkDir))
	}
	if got, want := info.Config.Labels[RevisionLabel], spec.Digest().String(); got != want {
		mismatches = append(mismatches, fmt.Sprintf("image revision is %q, want %q", got, want))
	}

	if len(mismatches) > 0 {
		return Report{}, NewMismatchError(name, mismatches)
	}

	report := Report{
		ContainerID: info.ID,
		Name:        strings.TrimPrefix(info.Name, "/"),
	}
	if info.NetworkSettings != nil {
		for _, binding := range info.NetworkSettings.Ports[spec.ExposedPort()] {
			host := binding.HostIP
			if host == "" || host == "0.0.0.0" || host == "::" {
				host = "127.0.0.1"
			}
			report.PublishedAddr = net.JoinHostPort(host, binding.HostPort)
			break
		}
	}
	v.logger.Info().Str("container", report.Name).Str("published", report.PublishedAddr).Msg("Container matches image spec")
	return report, nil
}

// WaitStarted returns once the named container is running. A container that
// dies first is an error.
func (v *Verifier) WaitStarted(ctx context.Context, name string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := v.events.Subscribe(ctx, name)
	if err != nil {
		return fmt.Errorf("subscribe to events of %s: %w", name, err)
	}
	for ev := range ch {
		switch {
		case ev.Running():
			v.logger.Info().Str("container", name).Str("event", string(ev.EventType)).Msg("Container is running")
			return nil
		case ev.EventType == event.EventTypeContainerDied:
			return fmt.Errorf("container %s died before it was running", name)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for container %s: %w", name, err)
	}
	return fmt.Errorf("event stream for %s ended before the container started", name)
}
