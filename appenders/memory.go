package appenders

import (
	"sync"

	"treelog"
)

// Memory captures events in order, in memory. It backs tests and the config
// smoke tooling; it is not bounded and not meant for production sinks.
type Memory struct {
	name string

	mu     sync.Mutex
	events []*treelog.Event
}

// NewMemory returns an empty in-memory appender.
func NewMemory(name string) *Memory {
	return &Memory{name: name}
}

// Name implements treelog.Appender.
func (a *Memory) Name() string { return a.name }

// Append implements treelog.Appender.
func (a *Memory) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

// AppendBatch implements treelog.BatchAppender.
func (a *Memory) AppendBatch(events []*treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, events...)
	return nil
}

// Events returns a snapshot of the captured events in arrival order.
func (a *Memory) Events() []*treelog.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*treelog.Event, len(a.events))
	copy(out, a.events)
	return out
}

// Len returns the number of captured events.
func (a *Memory) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Reset discards the captured events.
func (a *Memory) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = nil
}

// Close implements treelog.Appender.
func (a *Memory) Close() error { return nil }
