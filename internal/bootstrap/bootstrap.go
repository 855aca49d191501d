// Package bootstrap brings the process from a bare runtime to a running entry
// module that owns the declared port.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/Danyil-SY/assistant-bot/internal/image"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"
)

// RuntimeInfo identifies the runtime the process was started on.
type RuntimeInfo struct {
	GoVersion string
	OS        string
	Arch      string
	Hostname  string
}

// Step is one dependency provisioning step.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// EntryFunc is the entry module. It owns ln and runs until ctx is done.
type EntryFunc func(ctx context.Context, ln net.Listener) error

type Options struct {
	WorkDir        string
	SourceDir      string
	ListenHost     string
	Port           int
	StartupTimeout time.Duration
	Dependencies   []Step
	Entry          EntryFunc
}

// OptionsFromConfig fills the options the app section of the configuration
// controls. Dependencies and Entry are left to the caller.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		WorkDir:        cfg.WorkDir,
		SourceDir:      cfg.SourceDir,
		ListenHost:     cfg.ListenHost,
		Port:           cfg.Port,
		StartupTimeout: time.Duration(cfg.StartupTimeout) * time.Second,
	}
}

type Bootstrap struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.RWMutex
	stage   Stage
	runtime RuntimeInfo
	port    nat.Port
	addr    net.Addr
}

func New(opts Options, logger zerolog.Logger) *Bootstrap {
	return &Bootstrap{opts: opts, logger: logger}
}

func (b *Bootstrap) Stage() Stage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stage
}

func (b *Bootstrap) Runtime() RuntimeInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.runtime
}

// Port is the declared port, set once the port stage has run.
func (b *Bootstrap) Port() nat.Port {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.port
}

// Addr is the bound listener address while running.
func (b *Bootstrap) Addr() net.Addr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.addr
}

func (b *Bootstrap) advance(to Stage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stage.Next() != to || b.stage == to {
		return fmt.Errorf("cannot move from stage %s to %s", b.stage, to)
	}
	b.stage = to
	b.logger.Debug().Str("stage", to.String()).Msg("[bootstrap] Stage reached")
	return nil
}

// Prepare runs every stage before running: it records the runtime,
// materializes the working directory, provisions dependencies and declares
// the port. No socket is opened.
func (b *Bootstrap) Prepare(ctx context.Context) error {
	stages := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageRuntime, b.recordRuntime},
		{StageWorkdir, b.materializeWorkdir},
		{StageDependencies, b.provisionDependencies},
		{StagePort, b.declarePort},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return NewStageError(s.stage, err)
		}
		if err := s.run(ctx); err != nil {
			return NewStageError(s.stage, err)
		}
		if err := b.advance(s.stage); err != nil {
			return NewStageError(s.stage, err)
		}
	}
	return nil
}

// Run prepares the process, binds the declared port and hands it to the
// entry module. It returns when the entry module does.
func (b *Bootstrap) Run(ctx context.Context) error {
	if b.opts.Entry == nil {
		return NewStageError(StagePending, errors.New("no entry module"))
	}
	if err := b.Prepare(ctx); err != nil {
		return err
	}

	ln, err := b.listen(ctx)
	if err != nil {
		return NewStageError(StageRunning, err)
	}
	if err := b.advance(StageRunning); err != nil {
		_ = ln.Close()
		return NewStageError(StageRunning, err)
	}
	b.logger.Info().Str("addr", ln.Addr().String()).Msg("[bootstrap] Entry module starting")

	entryErr := b.opts.Entry(ctx, ln)
	// The entry module normally closes the listener itself.
	_ = ln.Close()

	b.mu.Lock()
	b.addr = nil
	b.mu.Unlock()
	if err := b.advance(StageStopped); err != nil {
		return NewStageError(StageStopped, err)
	}
	b.logger.Info().Msg("[bootstrap] Entry module stopped")
	if entryErr != nil {
		return NewStageError(StageRunning, entryErr)
	}
	return nil
}

func (b *Bootstrap) recordRuntime(ctx context.Context) error {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("hostname: %w", err)
	}
	info := RuntimeInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
	}
	b.mu.Lock()
	b.runtime = info
	b.mu.Unlock()
	b.logger.Info().
		Str("go", info.GoVersion).
		Str("platform", info.OS+"/"+info.Arch).
		Str("hostname", info.Hostname).
		Msg("[bootstrap] Runtime ready")
	return nil
}

func (b *Bootstrap) materializeWorkdir(ctx context.Context) error {
	if b.opts.WorkDir == "" {
		return errors.New("working directory is not set")
	}
	if err := os.MkdirAll(b.opts.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	if b.opts.SourceDir == "" {
		return nil
	}
	if err := CopyTree(b.opts.SourceDir, b.opts.WorkDir); err != nil {
		return fmt.Errorf("copy %s: %w", b.opts.SourceDir, err)
	}
	b.logger.Info().Str("source", b.opts.SourceDir).Str("workdir", b.opts.WorkDir).Msg("[bootstrap] Source tree copied")
	return nil
}

func (b *Bootstrap) provisionDependencies(ctx context.Context) error {
	for _, step := range b.opts.Dependencies {
		b.logger.Debug().Str("step", step.Name).Msg("[bootstrap] Provisioning dependency")
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

func (b *Bootstrap) declarePort(ctx context.Context) error {
	if b.opts.Port < 1 || b.opts.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", b.opts.Port)
	}
	port, err := nat.NewPort("tcp", strconv.Itoa(b.opts.Port))
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.port = port
	b.mu.Unlock()
	b.logger.Info().Str("port", string(port)).Msg("[bootstrap] Port declared")
	return nil
}

// listen binds the declared port and checks it accepts connections within
// the startup timeout.
func (b *Bootstrap) listen(ctx context.Context) (net.Listener, error) {
	addr := net.JoinHostPort(b.opts.ListenHost, b.Port().Port())
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}

	timeout := b.opts.StartupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := image.WaitListening(ctx, dialAddr(b.opts.ListenHost, b.Port().Port()), timeout); err != nil {
		_ = ln.Close()
		return nil, err
	}

	b.mu.Lock()
	b.addr = ln.Addr()
	b.mu.Unlock()
	return ln, nil
}

// dialAddr maps wildcard listen hosts to loopback.
func dialAddr(host, port string) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
