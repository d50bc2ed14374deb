package treelog

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Event is the snapshot of one log call. It is built exactly once per
// enabled call, is immutable after construction, and is handed to every
// appender in the cascade by reference. Appenders must not mutate it.
//
// The message is rendered lazily: the first call to Message computes the
// text and caches it, so a call that is dispatched to several appenders
// renders once.
type Event struct {
	LoggerName string
	Level      Level
	// Timestamp is the UTC creation time of the event.
	Timestamp time.Time
	// Goroutine identifies the goroutine that made the log call.
	Goroutine string
	// Properties is the point-in-time union of the ambient diagnostic
	// context sources, captured at construction. Nil when no context was
	// present.
	Properties map[string]string
	// Err carries the error passed to the log call, if any.
	Err error

	msg      any
	renderer Renderer
	once     sync.Once
	rendered string
}

// NewEvent builds an event outside the dispatch path. It exists for appender
// and layout implementations that need events in tests or tooling; loggers
// construct events internally.
func NewEvent(loggerName string, level Level, msg any, err error, props map[string]string) *Event {
	return &Event{
		LoggerName: loggerName,
		Level:      level,
		Timestamp:  time.Now().UTC(),
		Goroutine:  goroutineID(),
		Properties: props,
		Err:        err,
		msg:        msg,
	}
}

// Message returns the rendered message text, computing it on first use.
func (e *Event) Message() string {
	e.once.Do(func() {
		e.rendered = renderMessage(e.msg, e.renderer)
	})
	return e.rendered
}

// Property returns the captured diagnostic property for key.
func (e *Event) Property(key string) (string, bool) {
	v, ok := e.Properties[key]
	return v, ok
}

func renderMessage(msg any, r Renderer) string {
	if r != nil {
		return r.Render(msg)
	}
	switch m := msg.(type) {
	case nil:
		return ""
	case string:
		return m
	case fmt.Stringer:
		return m.String()
	case error:
		return m.Error()
	default:
		return fmt.Sprintf("%v", m)
	}
}

// fmtMessage defers Sprintf-style formatting until the event is rendered.
type fmtMessage struct {
	format string
	args   []any
}

func (m fmtMessage) String() string {
	if len(m.args) == 0 {
		return m.format
	}
	return fmt.Sprintf(m.format, m.args...)
}

var goroutinePrefix = []byte("goroutine ")

var stackBuf = sync.Pool{
	New: func() any {
		buf := make([]byte, 64)
		return &buf
	},
}

// goroutineID extracts the caller's goroutine number from the stack header,
// "goroutine 4707 [...". It stands in for the thread identity captured by
// classic logging frameworks.
func goroutineID() string {
	bp := stackBuf.Get().(*[]byte)
	defer stackBuf.Put(bp)
	b := *bp
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return "?"
	}
	if _, err := strconv.ParseUint(string(b[:i]), 10, 64); err != nil {
		return "?"
	}
	return string(b[:i])
}
