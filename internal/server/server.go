// Package server exposes the bot over HTTP on the declared port.
package server

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Danyil-SY/assistant-bot/internal/bot"
	"github.com/Danyil-SY/assistant-bot/internal/storage"
	"github.com/Danyil-SY/assistant-bot/internal/view"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type requestIDKey struct{}

type CommandRequest struct {
	Input string `json:"input"`
}

type CommandResponse struct {
	Command string `json:"command"`
	Message string `json:"message"`
	Exit    bool   `json:"exit"`
}

type Congratulation struct {
	Name string `json:"name"`
	Date string `json:"congratulation_date"`
}

type Server struct {
	app    *fiber.App
	bot    *bot.Bot
	port   int
	window int
	now    func() time.Time
	logger zerolog.Logger
}

func New(b *bot.Bot, port, window int, logger zerolog.Logger) *Server {
	s := &Server{
		bot:    b,
		port:   port,
		window: window,
		now:    time.Now,
		logger: logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "assistant-bot",
		DisableStartupMessage: true,
	})
	s.routes()
	return s
}

// App is the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() {
	s.app.Use(s.requestID, s.accessLog)

	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api/v1")
	api.Get("/commands", s.listCommands)
	api.Post("/commands", s.executeCommand)
	api.Get("/contacts", s.listContacts)
	api.Get("/contacts/:name", s.getContact)
	api.Get("/birthdays", s.upcomingBirthdays)
}

// Serve handles requests on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("[server] Listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals(requestIDKey{}, id)
	return c.Next()
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	id, _ := c.Locals(requestIDKey{}).(string)
	s.logger.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("[server] Request")
	return err
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "port": s.port})
}

func (s *Server) listCommands(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"commands": strings.TrimSpace(view.Commands)})
}

func (s *Server) executeCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Input) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Input is required")
	}

	reply := s.bot.Execute(c.UserContext(), req.Input)
	return c.JSON(CommandResponse{
		Command: reply.Command,
		Message: reply.Message,
		Exit:    reply.Exit,
	})
}

func (s *Server) listContacts(c *fiber.Ctx) error {
	records := s.bot.Book().Records()
	out := make([]storage.ContactRecord, 0, len(records))
	for _, r := range records {
		out = append(out, storage.FromRecord(r))
	}
	return c.JSON(out)
}

func (s *Server) getContact(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid contact name")
	}
	record, ok := s.bot.Book().Find(name)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Contact not found.")
	}
	return c.JSON(storage.FromRecord(record))
}

func (s *Server) upcomingBirthdays(c *fiber.Ctx) error {
	window := s.window
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return errorJSON(c, fiber.StatusBadRequest, "days must be a non-negative integer")
		}
		window = days
	}

	upcoming := s.bot.Book().UpcomingBirthdays(s.now(), window)
	out := make([]Congratulation, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, Congratulation{Name: u.Name.String(), Date: u.CongratulationDate()})
	}
	return c.JSON(out)
}
