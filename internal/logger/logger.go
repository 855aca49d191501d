package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/rs/zerolog"
)

// SetupLogger builds the process logger. Console output goes to stderr so the
// interactive session keeps stdout to itself.
func SetupLogger(cfg *config.LoggingConfig) zerolog.Logger {
	return New(cfg, os.Stderr)
}

func New(cfg *config.LoggingConfig, out io.Writer) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = time.RFC3339

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	return zerolog.New(consoleWriter).
		With().
		Timestamp().
		Caller().
		Str("service", "assistant_bot").
		Str("host", hostname).
		Logger()
}
