// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to any non-empty value
const DebugEnv = "APVAULT_DEBUG"

// Logger is the process-wide logger. It discards output until InitLogger runs.
var Logger = slog.New(slog.DiscardHandler)

// InitLogger initializes the global logger on stdout.
// Set APVAULT_DEBUG=1 to enable debug logging.
func InitLogger() {
	Logger = NewLogger(os.Stdout, os.Getenv(DebugEnv) != "")
}

// NewLogger returns a text logger on w without time and level attributes
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Cleaner CLI output
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Debug logs a debug message (only shown when APVAULT_DEBUG is set)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
