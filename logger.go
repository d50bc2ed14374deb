package treelog

import (
	"context"
	"sync/atomic"
	"time"

	"treelog/internal/diag"
	"treelog/logctx"
)

// Logger is one named node in the hierarchy. Loggers are created and linked
// by their Hierarchy; the zero value is not usable.
//
// Level, parent, and additivity are held in atomics so the hot logging path
// and the effective-level walk never contend with hierarchy reconfiguration.
type Logger struct {
	name      string
	hierarchy *Hierarchy

	parent   atomic.Pointer[Logger]
	level    atomic.Pointer[Level]
	additive atomic.Bool

	cascade Cascade
}

func newLogger(h *Hierarchy, name string) *Logger {
	l := &Logger{name: name, hierarchy: h}
	l.additive.Store(true)
	return l
}

// Name returns the logger's dotted name. The root logger is named "root".
func (l *Logger) Name() string { return l.name }

// Hierarchy returns the repository that owns this logger.
func (l *Logger) Hierarchy() *Hierarchy { return l.hierarchy }

// Parent returns the next node toward the root, or nil for the root itself.
// The parent can change when an intermediate logger is created later.
func (l *Logger) Parent() *Logger { return l.parent.Load() }

// Additivity reports whether events delivered here continue cascading to the
// parent's appenders. New loggers are additive.
func (l *Logger) Additivity() bool { return l.additive.Load() }

// SetAdditivity controls cascading beyond this node.
func (l *Logger) SetAdditivity(additive bool) { l.additive.Store(additive) }

// ExplicitLevel returns the level set directly on this logger, if any.
func (l *Logger) ExplicitLevel() (Level, bool) {
	if lv := l.level.Load(); lv != nil {
		return *lv, true
	}
	return Level{}, false
}

// SetLevel sets this logger's explicit level, overriding inheritance.
func (l *Logger) SetLevel(level Level) {
	lv := level
	l.level.Store(&lv)
}

// ClearLevel removes the explicit level so the logger inherits again. It is
// ignored on the root logger, which must always carry a level.
func (l *Logger) ClearLevel() {
	if l.hierarchy != nil && l == l.hierarchy.Root() {
		diag.Warnf("treelog: refusing to clear the root logger level")
		return
	}
	l.level.Store(nil)
}

// EffectiveLevel resolves the level that gates this logger's emissions by
// walking toward the root until an explicit level is found. The walk runs on
// every log call so an ancestor level change is visible immediately.
func (l *Logger) EffectiveLevel() Level {
	for c := l; c != nil; c = c.Parent() {
		if lv := c.level.Load(); lv != nil {
			return *lv
		}
	}
	// The root always carries a level, so an exhausted walk means the
	// parent chain was corrupted.
	diag.Errorf("treelog: no level found on the ancestor chain of %q", l.name)
	return LevelOff
}

// IsEnabledFor reports whether an event at level would be emitted, taking
// both the hierarchy threshold and the effective level into account.
func (l *Logger) IsEnabledFor(level Level) bool {
	if l.hierarchy != nil && l.hierarchy.isDisabled(level) {
		return false
	}
	return level.IsGreaterOrEqual(l.EffectiveLevel())
}

// AddAppender attaches an appender to this logger. Attaching the same
// instance twice is a no-op.
func (l *Logger) AddAppender(a Appender) { l.cascade.AddAppender(a) }

// RemoveAppender detaches a without closing it; see Cascade.RemoveAppender.
func (l *Logger) RemoveAppender(a Appender) Appender { return l.cascade.RemoveAppender(a) }

// RemoveAppenderByName detaches the first appender with the given name.
func (l *Logger) RemoveAppenderByName(name string) Appender {
	return l.cascade.RemoveAppenderByName(name)
}

// Appender returns the first attached appender with the given name, or nil.
func (l *Logger) Appender(name string) Appender { return l.cascade.Appender(name) }

// Appenders returns a snapshot of the appenders attached to this logger.
func (l *Logger) Appenders() []Appender { return l.cascade.Appenders() }

// RemoveAllAppenders detaches every appender from this logger without
// closing them.
func (l *Logger) RemoveAllAppenders() { l.cascade.RemoveAll() }

// Log emits one event. When the level is disabled the call returns before
// constructing an event or touching the diagnostic context; this is the
// cheapest rejection path. Delivery failures never propagate to the caller.
//
// msg may be a string, fmt.Stringer, error, or any value handled by a
// registered renderer. err is optional error detail carried on the event.
func (l *Logger) Log(ctx context.Context, level Level, msg any, err error) {
	if !l.IsEnabledFor(level) {
		return
	}
	l.forcedLog(ctx, level, msg, err)
}

// forcedLog builds the event and starts the cascade, bypassing the level
// guard. Callers must have checked IsEnabledFor.
func (l *Logger) forcedLog(ctx context.Context, level Level, msg any, err error) {
	e := &Event{
		LoggerName: l.name,
		Level:      level,
		Timestamp:  time.Now().UTC(),
		Goroutine:  goroutineID(),
		Properties: logctx.Snapshot(ctx),
		Err:        err,
		msg:        msg,
	}
	if l.hierarchy != nil {
		e.renderer = l.hierarchy.rendererFor(msg)
	}
	l.callAppenders(e)
}

// callAppenders performs the cascading dispatch: this node first, then each
// ancestor in order, stopping after the first non-additive node.
func (l *Logger) callAppenders(e *Event) {
	writes := 0
	for c := l; c != nil; c = c.Parent() {
		writes += c.cascade.Dispatch(e)
		if !c.Additivity() {
			break
		}
	}
	if writes == 0 && l.hierarchy != nil {
		l.hierarchy.noAppenderWarning(l.name)
	}
}

// Trace logs at LevelTrace. Arguments are formatted as fmt.Sprintf, deferred
// until an appender renders the message.
func (l *Logger) Trace(ctx context.Context, format string, args ...any) {
	l.logf(ctx, LevelTrace, format, args)
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(ctx context.Context, format string, args ...any) {
	l.logf(ctx, LevelDebug, format, args)
}

// Info logs at LevelInfo.
func (l *Logger) Info(ctx context.Context, format string, args ...any) {
	l.logf(ctx, LevelInfo, format, args)
}

// Warn logs at LevelWarn.
func (l *Logger) Warn(ctx context.Context, format string, args ...any) {
	l.logf(ctx, LevelWarn, format, args)
}

// Error logs at LevelError. err may be nil.
func (l *Logger) Error(ctx context.Context, err error, format string, args ...any) {
	if !l.IsEnabledFor(LevelError) {
		return
	}
	l.forcedLog(ctx, LevelError, fmtMessage{format: format, args: args}, err)
}

// Fatal logs at LevelFatal. Unlike log.Fatal it does not exit the process;
// lifecycle decisions belong to the application.
func (l *Logger) Fatal(ctx context.Context, err error, format string, args ...any) {
	if !l.IsEnabledFor(LevelFatal) {
		return
	}
	l.forcedLog(ctx, LevelFatal, fmtMessage{format: format, args: args}, err)
}

func (l *Logger) logf(ctx context.Context, level Level, format string, args []any) {
	if !l.IsEnabledFor(level) {
		return
	}
	l.forcedLog(ctx, level, fmtMessage{format: format, args: args}, nil)
}
