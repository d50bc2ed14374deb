package appenders

import (
	"sync"

	"treelog"
)

// Forwarding relays events to its own cascade of appenders, optionally
// gated by a threshold. It lets one attachment point on a logger fan out to
// several sinks that are configured as a unit.
//
// Forwarding holds non-owning references to its members: Close detaches them
// without closing them, since they may be attached elsewhere too.
type Forwarding struct {
	name    string
	cascade treelog.Cascade

	mu        sync.Mutex
	threshold *treelog.Level
}

// NewForwarding returns a forwarding appender with an empty cascade.
func NewForwarding(name string) *Forwarding {
	return &Forwarding{name: name}
}

// Name implements treelog.Appender.
func (a *Forwarding) Name() string { return a.name }

// SetThreshold rejects events below level before they reach the members.
func (a *Forwarding) SetThreshold(level treelog.Level) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lv := level
	a.threshold = &lv
}

// ClearThreshold removes the gate.
func (a *Forwarding) ClearThreshold() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = nil
}

// AddAppender attaches a member sink; adding the same instance twice is a
// no-op.
func (a *Forwarding) AddAppender(member treelog.Appender) { a.cascade.AddAppender(member) }

// RemoveAppender detaches a member without closing it.
func (a *Forwarding) RemoveAppender(member treelog.Appender) treelog.Appender {
	return a.cascade.RemoveAppender(member)
}

// RemoveAppenderByName detaches the first member with the given name.
func (a *Forwarding) RemoveAppenderByName(name string) treelog.Appender {
	return a.cascade.RemoveAppenderByName(name)
}

// Appender returns the first member with the given name, or nil.
func (a *Forwarding) Appender(name string) treelog.Appender { return a.cascade.Appender(name) }

// Appenders returns a snapshot of the member sinks in insertion order.
func (a *Forwarding) Appenders() []treelog.Appender { return a.cascade.Appenders() }

// Append implements treelog.Appender.
func (a *Forwarding) Append(e *treelog.Event) error {
	if !a.accepts(e.Level) {
		return nil
	}
	a.cascade.Dispatch(e)
	return nil
}

// AppendBatch implements treelog.BatchAppender.
func (a *Forwarding) AppendBatch(events []*treelog.Event) error {
	for _, e := range events {
		if !a.accepts(e.Level) {
			continue
		}
		a.cascade.Dispatch(e)
	}
	return nil
}

func (a *Forwarding) accepts(level treelog.Level) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threshold == nil || level.IsGreaterOrEqual(*a.threshold)
}

// Close detaches every member without closing any of them.
func (a *Forwarding) Close() error {
	a.cascade.RemoveAll()
	return nil
}
