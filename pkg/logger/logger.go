// Package logger builds the root zerolog logger for the service.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the level and output format of the root logger.
type Config struct {
	Level  string // zerolog level name, e.g. "debug" or "info"
	Pretty bool   // human-readable console output for local development
}

// New builds the root logger. An unknown level name falls back to info so a
// typo in LOG_LEVEL never silences the service.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
