// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global logger. Development output is human readable;
// anything else logs JSON lines. Unknown levels fall back to info.
func Init(level string, development bool) zerolog.Logger {
	return InitWriter(os.Stdout, level, development)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level string, development bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := w
	if development {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	log.Logger = l
	return l
}
