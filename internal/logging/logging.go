// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the structured run loggers.
// See docs/ARCHITECTURE § Logging.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docsync/pkg/types"
)

// Log file names inside the configured log directory. LastRunName is
// truncated at the start of every run and is what backup ships to remote
// storage; HistoryName accumulates across runs locally.
const (
	LastRunName = "last_run.log"
	HistoryName = "history.log"
)

// Open prepares the log directory and returns a logger that writes every
// record to last_run.log (truncated now) and history.log (appended), and
// to stderr when cfg.Console is set. The returned close function flushes
// and closes both files.
func Open(cfg types.LogConfig) (*slog.Logger, func() error, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	lastRun, err := os.OpenFile(filepath.Join(dir, LastRunName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", LastRunName, err)
	}
	history, err := os.OpenFile(filepath.Join(dir, HistoryName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lastRun.Close()
		return nil, nil, fmt.Errorf("opening %s: %w", HistoryName, err)
	}

	writers := []io.Writer{lastRun, history}
	if cfg.Console {
		writers = append(writers, os.Stderr)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})

	closeFiles := func() error {
		errLast := lastRun.Close()
		errHist := history.Close()
		if errLast != nil {
			return errLast
		}
		return errHist
	}

	return slog.New(handler), closeFiles, nil
}

// Console returns a logger that writes only to stderr. Inspection
// commands use it so they never touch the run log files.
func Console(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a config string to a slog level. Unknown or empty
// strings mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops every record. Used by tests and as
// a fallback when a component is handed no logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
