package treelog

import (
	"sync"

	"treelog/internal/diag"
)

// Cascade is the ordered collection of appenders attached to one node.
// A single mutex covers both list mutation and the dispatch loop, so a
// concurrent reconfiguration never exposes a partially-mutated list to a
// dispatch in progress.
//
// The cascade holds non-owning references: removal never closes an appender.
// The zero value is an empty cascade ready for use.
type Cascade struct {
	mu        sync.Mutex
	appenders []Appender
}

// AddAppender attaches a to the cascade. Adding an appender that is already
// attached (same instance) is a no-op, not a duplicate.
func (c *Cascade) AddAppender(a Appender) {
	if a == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.appenders {
		if existing == a {
			return
		}
	}
	c.appenders = append(c.appenders, a)
}

// Appenders returns a snapshot of the attached appenders in insertion order.
func (c *Cascade) Appenders() []Appender {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Appender, len(c.appenders))
	copy(out, c.appenders)
	return out
}

// Appender returns the first attached appender with the given name, or nil.
// Name collisions are permitted but discouraged; the earliest attachment
// wins.
func (c *Cascade) Appender(name string) Appender {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.appenders {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// RemoveAppender detaches a and returns it, or nil if it was not attached.
// The appender is not closed.
func (c *Cascade) RemoveAppender(a Appender) Appender {
	if a == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.appenders {
		if existing == a {
			c.appenders = append(c.appenders[:i], c.appenders[i+1:]...)
			return existing
		}
	}
	return nil
}

// RemoveAppenderByName detaches the first appender named name and returns
// it, or nil if none matched. The appender is not closed.
func (c *Cascade) RemoveAppenderByName(name string) Appender {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.appenders {
		if existing.Name() == name {
			c.appenders = append(c.appenders[:i], c.appenders[i+1:]...)
			return existing
		}
	}
	return nil
}

// RemoveAll detaches every appender without closing any of them. Closing is
// the owner's separate responsibility.
func (c *Cascade) RemoveAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appenders = nil
}

// Dispatch delivers e to every attached appender in insertion order and
// returns the number of appenders visited. A failing appender is reported to
// the internal diagnostic channel and never prevents delivery to the
// remaining members.
func (c *Cascade) Dispatch(e *Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.appenders {
		safeAppend(a, e)
	}
	return len(c.appenders)
}

func safeAppend(a Appender, e *Event) {
	defer func() {
		if r := recover(); r != nil {
			diag.Errorf("appender %q panicked during append: %v", a.Name(), r)
		}
	}()
	if err := a.Append(e); err != nil {
		diag.Errorf("appender %q failed to append: %v", a.Name(), err)
	}
}
