package app

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/Danyil-SY/assistant-bot/internal/bootstrap"
	"github.com/Danyil-SY/assistant-bot/internal/bot"
	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/Danyil-SY/assistant-bot/internal/server"
	"github.com/Danyil-SY/assistant-bot/internal/storage"
	"github.com/Danyil-SY/assistant-bot/internal/view"
	"github.com/rs/zerolog"
)

type App struct {
	cfg    *config.Config
	boot   *bootstrap.Bootstrap
	store  storage.Store
	bot    *bot.Bot
	server *server.Server
	logger zerolog.Logger
}

// New creates a new App. Dependencies are provisioned by the bootstrap, so
// nothing is opened until Run or RunConsole.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	a := &App{cfg: cfg, logger: logger}

	opts := bootstrap.OptionsFromConfig(&cfg.App)
	opts.Dependencies = []bootstrap.Step{
		{Name: "storage", Run: a.openStore},
		{Name: "addressbook", Run: a.loadBook},
	}
	opts.Entry = a.serve
	a.boot = bootstrap.New(opts, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	store, err := storage.Open(a.cfg, a.cfg.App.WorkDir, a.logger)
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func (a *App) loadBook(ctx context.Context) error {
	book, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load address book: %w", err)
	}
	a.logger.Info().Int("contacts", book.Len()).Str("backend", a.cfg.Storage.Backend).Msg("Address book loaded")
	a.bot = bot.New(book, a.store, a.cfg.App.BirthdayWindow, a.logger)
	a.server = server.New(a.bot, a.cfg.App.Port, a.cfg.App.BirthdayWindow, a.logger)
	return nil
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	return a.server.Serve(ctx, ln)
}

// Run bootstraps the process and serves HTTP on the declared port until ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msg("Application starting")
	return a.boot.Run(ctx)
}

// RunConsole bootstraps everything but the listener and talks to the user on
// in and out.
func (a *App) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := a.boot.Prepare(ctx); err != nil {
		return err
	}
	var v view.View
	if a.cfg.App.View != "" {
		parsed, err := view.Parse(a.cfg.App.View)
		if err != nil {
			return err
		}
		v = parsed
	}
	return bot.NewSession(a.bot, in, out, v, a.logger).Run(ctx)
}

// Bootstrap exposes the stage machine, mainly for status reporting.
func (a *App) Bootstrap() *bootstrap.Bootstrap { return a.boot }

func (a *App) Close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store: %w", err)
		}
	}
	return firstErr
}
