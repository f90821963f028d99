// Package logging provides a process-wide structured logger for storelite.
//
// The package wraps [log/slog] and exposes a single global logger instance,
// initialized once and retrieved via GetLogger. Subsystems obtain a logger
// through this package rather than constructing their own slog.Logger, so
// level and output destination stay controlled from one place.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger   *slog.Logger
	mu       sync.RWMutex
	initOnce sync.Once
)

// Level mirrors the slog levels storelite's callers care about.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Init installs the process-wide logger at the given level, writing to w.
// Call it once at startup before any goroutine calls GetLogger.
func Init(level Level, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// GetLogger returns the process-wide logger, lazily defaulting to an
// INFO-level stderr logger if Init was never called.
func GetLogger() *slog.Logger {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelInfo}))
		}
	})

	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithTx returns a logger annotated with a transaction ID.
func WithTx(txID int64) *slog.Logger {
	return GetLogger().With("tx_id", txID)
}

// WithPage returns a logger annotated with a page identifier.
func WithPage(pageID any) *slog.Logger {
	return GetLogger().With("page_id", pageID)
}

// WithLock returns a logger annotated with a transaction/resource pair,
// used by the lock manager's grant/wait/abort trace.
func WithLock(txID int64, resource any) *slog.Logger {
	return GetLogger().With("tx_id", txID, "resource", resource)
}

// WithComponent returns a logger annotated with a subsystem name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}
