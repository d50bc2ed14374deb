// Package diag is the framework's internal diagnostic channel. Configuration
// mistakes and appender delivery failures are reported here instead of being
// surfaced to the application's logging call sites.
//
// By default messages are written to stderr at warn level through a slog text
// handler. Tests and embedders can redirect or silence the channel.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var nowFunc = time.Now // to facilitate testing

var (
	mu      sync.RWMutex
	handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
)

// SetHandler replaces the destination for internal diagnostics. A nil handler
// restores the default stderr handler.
func SetHandler(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	}
	handler = h
}

// SetOutput redirects internal diagnostics to w. Intended for tests.
func SetOutput(w io.Writer) {
	if w == nil {
		SetHandler(nil)
		return
	}
	SetHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// Warnf reports a recoverable problem, e.g. an ignored configuration value.
func Warnf(format string, args ...any) {
	emit(slog.LevelWarn, format, args...)
}

// Errorf reports a delivery or invariant failure.
func Errorf(format string, args ...any) {
	emit(slog.LevelError, format, args...)
}

func emit(level slog.Level, format string, args ...any) {
	mu.RLock()
	h := handler
	mu.RUnlock()
	ctx := context.Background()
	if !h.Enabled(ctx, level) {
		return
	}
	rec := slog.NewRecord(nowFunc(), level, fmt.Sprintf(format, args...), 0)
	_ = h.Handle(ctx, rec)
}
