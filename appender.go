package treelog

// Appender is the sink contract consumed by the dispatch engine. Append
// errors are isolated per call: the cascade reports them to the internal
// diagnostic channel and continues with the remaining appenders.
//
// Append may be called concurrently from many goroutines; implementations
// serialize their own output. Appenders must treat the event as read-only.
type Appender interface {
	// Name identifies the appender for lookup and diagnostics. Names are
	// advisory-unique within a cascade.
	Name() string

	// Append delivers one event to the sink.
	Append(e *Event) error

	// Close releases sink resources. The hierarchy calls Close at most once
	// per appender instance during Shutdown, even when the appender is
	// attached to several loggers.
	Close() error
}

// BatchAppender is implemented by sinks that can accept several events in
// one call, such as buffered or forwarding appenders.
type BatchAppender interface {
	Appender
	AppendBatch(events []*Event) error
}

// Layout renders an event into text for byte-oriented sinks. Implementations
// live outside the core; see the layout package.
type Layout interface {
	Render(e *Event) string
}
