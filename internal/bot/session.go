package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/view"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	greeting          = "Welcome to the assistant bot!"
	viewPrompt        = "Choose view (simple/table): "
	invalidViewChoice = "Invalid choice. Please choose 'simple' or 'table'."
	commandPrompt     = "Enter a command: "
)

// Session is one console conversation with the bot.
type Session struct {
	ID     uuid.UUID
	bot    *Bot
	view   view.View
	in     *bufio.Scanner
	out    io.Writer
	logger zerolog.Logger
}

// NewSession creates a console session. When v is nil the user is asked to
// pick a view first.
func NewSession(b *Bot, in io.Reader, out io.Writer, v view.View, logger zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:     id,
		bot:    b,
		view:   v,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.With().Str("session", id.String()).Logger(),
	}
}

// Run reads commands until the user exits, the input ends or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info().Msg("Console session started")
	defer s.logger.Info().Msg("Console session ended")

	if _, err := fmt.Fprintln(s.out, greeting); err != nil {
		return err
	}
	if s.view == nil {
		v, err := s.chooseView()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		s.view = v
	}
	if err := s.view.DisplayCommands(s.out); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.prompt(commandPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		reply := s.bot.Execute(ctx, line)
		if err := s.render(reply); err != nil {
			return err
		}
		if reply.Exit {
			return nil
		}
	}
}

func (s *Session) chooseView() (view.View, error) {
	for {
		choice, err := s.prompt(viewPrompt)
		if err != nil {
			return nil, err
		}
		v, err := view.Parse(choice)
		if err == nil {
			return v, nil
		}
		if _, err := fmt.Fprintln(s.out, invalidViewChoice); err != nil {
			return nil, err
		}
	}
}

func (s *Session) prompt(text string) (string, error) {
	if _, err := io.WriteString(s.out, text); err != nil {
		return "", err
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) render(reply Reply) error {
	switch {
	case reply.Command == "":
		return nil
	case reply.Command == CommandCommands:
		return s.view.DisplayCommands(s.out)
	case len(reply.Contacts) > 0:
		return s.view.DisplayContacts(s.out, reply.Contacts)
	default:
		return s.view.DisplayMessage(s.out, reply.Message)
	}
}
