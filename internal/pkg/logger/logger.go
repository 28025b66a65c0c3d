package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Environment string // development, production, test
	Output      io.Writer
}

// Init configures the global logger
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Environment == "development" || cfg.Environment == "dev" {
		// Pretty console output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}).With().Timestamp().Caller().Logger()
		return
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()
}

type contextKey string

const loggerKey contextKey = "logger"

// FromContext returns the logger from context or the global logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// WithContext returns a context with the logger attached
func WithContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
