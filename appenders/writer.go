// Package appenders provides the built-in sinks for the treelog dispatch
// engine: console, file, memory, forwarding, and SQLite appenders.
//
// All appenders serialize their own output and may be shared across several
// loggers; the hierarchy closes each shared instance exactly once during
// shutdown.
package appenders

import (
	"fmt"
	"io"
	"sync"

	"treelog"
)

// WriterAppender delivers rendered events to an io.Writer. It does not own
// the writer: Close never closes it. Use it directly for sockets, pipes, and
// test buffers, or as a building block for specialized sinks.
type WriterAppender struct {
	name   string
	layout treelog.Layout

	mu        sync.Mutex
	w         io.Writer
	threshold *treelog.Level
}

// NewWriter returns an appender writing layout-rendered events to w.
func NewWriter(name string, w io.Writer, l treelog.Layout) *WriterAppender {
	return &WriterAppender{name: name, layout: l, w: w}
}

// Name implements treelog.Appender.
func (a *WriterAppender) Name() string { return a.name }

// SetThreshold rejects events below level at this sink only, independent of
// logger levels.
func (a *WriterAppender) SetThreshold(level treelog.Level) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lv := level
	a.threshold = &lv
}

// ClearThreshold removes the per-sink gate.
func (a *WriterAppender) ClearThreshold() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = nil
}

// Append implements treelog.Appender.
func (a *WriterAppender) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.threshold != nil && !e.Level.IsGreaterOrEqual(*a.threshold) {
		return nil
	}
	if _, err := io.WriteString(a.w, a.layout.Render(e)); err != nil {
		return fmt.Errorf("write event to %s: %w", a.name, err)
	}
	return nil
}

// Close implements treelog.Appender. The writer is owned by whoever supplied
// it and is left open.
func (a *WriterAppender) Close() error { return nil }
