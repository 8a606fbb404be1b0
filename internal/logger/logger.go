// Package logger builds the zerolog loggers used across the server.
//
// Logs always go to stderr in production: stdout carries the MCP protocol.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w at the given level, with timestamps.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger writing to w.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return New(console, level)
}

// ForFormat picks New or NewConsole by format name ("json" or "console").
func ForFormat(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format == "json" {
		return New(w, level)
	}
	return NewConsole(w, level)
}

// Nop returns a disabled logger, for tests and library callers that do not log.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
