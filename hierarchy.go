package treelog

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"treelog/internal/diag"
)

// RootLoggerName is the name of every hierarchy's root logger. The root is
// not stored in the name map and is always reachable as the terminus of any
// parent chain.
const RootLoggerName = "root"

// Options configures a Hierarchy.
type Options struct {
	// Separator delimits name segments. Default ".".
	Separator string
	// RootLevel is the root logger's level, restored by ResetConfiguration.
	// Default LevelDebug.
	RootLevel Level
}

// Hierarchy is the repository owning the name-indexed logger tree for one
// configuration domain. Scope one instance per configuration domain and pass
// it to the code that needs GetLogger; there is no implicit process-wide
// instance.
//
// The name map holds either a *Logger or a provisionNode placeholder for an
// ancestor name that has children but was never requested itself.
type Hierarchy struct {
	sep       string
	rootLevel Level

	mu      sync.RWMutex
	loggers map[string]any
	root    *Logger

	threshold atomic.Pointer[Level]

	renderMu  sync.RWMutex
	renderers map[reflect.Type]Renderer

	listenerMu sync.RWMutex
	listeners  []CreationListener

	noAppenderWarned atomic.Bool
}

// provisionNode stands in for a not-yet-created ancestor logger, holding the
// descendants waiting to be reparented once the real logger appears.
type provisionNode struct {
	children []*Logger
}

// CreationListener is notified after a logger has been created and linked
// into the tree. Listeners run outside the hierarchy lock.
type CreationListener func(*Logger)

// New returns a hierarchy with default options.
func New() *Hierarchy {
	return NewWithOptions(Options{})
}

// NewWithOptions returns a hierarchy configured by opts.
func NewWithOptions(opts Options) *Hierarchy {
	sep := opts.Separator
	if sep == "" {
		sep = "."
	}
	rootLevel := opts.RootLevel
	if rootLevel == (Level{}) {
		rootLevel = LevelDebug
	}
	h := &Hierarchy{
		sep:       sep,
		rootLevel: rootLevel,
		loggers:   make(map[string]any),
	}
	h.root = newLogger(h, RootLoggerName)
	h.root.SetLevel(rootLevel)
	h.SetThreshold(LevelAll)
	return h
}

// Root returns the root logger. Its level is always set.
func (h *Hierarchy) Root() *Logger { return h.root }

// Separator returns the name-segment delimiter.
func (h *Hierarchy) Separator() string { return h.sep }

// Threshold returns the repository-wide level gate. Events below the
// threshold are rejected regardless of per-logger levels.
func (h *Hierarchy) Threshold() Level { return *h.threshold.Load() }

// SetThreshold sets the repository-wide level gate.
func (h *Hierarchy) SetThreshold(level Level) {
	lv := level
	h.threshold.Store(&lv)
}

func (h *Hierarchy) isDisabled(level Level) bool {
	return !level.IsGreaterOrEqual(h.Threshold())
}

// GetLogger returns the logger bound to name, creating and linking it on
// first request. Intermediate ancestors that do not exist yet are recorded
// as provision nodes; creating a logger whose name already has descendants
// splices it into their parent chains.
//
// The empty name returns the root logger.
func (h *Hierarchy) GetLogger(name string) *Logger {
	if name == "" || name == RootLoggerName {
		return h.root
	}

	h.mu.RLock()
	if l, ok := h.loggers[name].(*Logger); ok {
		h.mu.RUnlock()
		return l
	}
	h.mu.RUnlock()

	h.mu.Lock()
	var created *Logger
	switch node := h.loggers[name].(type) {
	case *Logger:
		// Lost the race to another goroutine.
		h.mu.Unlock()
		return node
	case *provisionNode:
		created = newLogger(h, name)
		h.updateChildren(node, created)
		h.loggers[name] = created
		h.updateParents(created)
	default:
		created = newLogger(h, name)
		h.loggers[name] = created
		h.updateParents(created)
	}
	h.mu.Unlock()

	h.notifyCreated(created)
	return created
}

// Exists returns the logger bound to name if it has been created, without
// materializing it. Provision nodes do not count as existing loggers.
func (h *Hierarchy) Exists(name string) *Logger {
	if name == RootLoggerName {
		return h.root
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if l, ok := h.loggers[name].(*Logger); ok {
		return l
	}
	return nil
}

// CurrentLoggers returns a snapshot of every real logger in the repository,
// excluding the root. Callers iterate the snapshot; loggers created
// concurrently may be missed but iteration is always safe.
func (h *Hierarchy) CurrentLoggers() []*Logger {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Logger, 0, len(h.loggers))
	for _, node := range h.loggers {
		if l, ok := node.(*Logger); ok {
			out = append(out, l)
		}
	}
	return out
}

// updateParents links l to its nearest existing real ancestor, registering l
// with (or creating) a provision node for every missing intermediate name.
// Falls back to the root when no real ancestor exists. Caller holds h.mu.
func (h *Hierarchy) updateParents(l *Logger) {
	name := l.name
	for i := strings.LastIndex(name, h.sep); i > 0; i = strings.LastIndex(name[:i], h.sep) {
		prefix := name[:i]
		switch node := h.loggers[prefix].(type) {
		case *Logger:
			l.parent.Store(node)
			return
		case *provisionNode:
			node.children = append(node.children, l)
		default:
			h.loggers[prefix] = &provisionNode{children: []*Logger{l}}
		}
	}
	l.parent.Store(h.root)
}

// updateChildren splices l between the waiting children and their current
// parents. A child whose parent already sits below l keeps its link; the
// others are re-pointed at l, and l inherits their former parent so the
// chain above stays intact. Caller holds h.mu.
func (h *Hierarchy) updateChildren(pn *provisionNode, l *Logger) {
	for _, child := range pn.children {
		p := child.parent.Load()
		if p != nil && h.isAncestorName(l.name, p.name) {
			continue
		}
		l.parent.Store(p)
		child.parent.Store(l)
	}
}

// isAncestorName reports whether ancestor's name denotes name itself or one
// of its ancestors, using the hierarchy separator.
func (h *Hierarchy) isAncestorName(ancestor, name string) bool {
	return name == ancestor || strings.HasPrefix(name, ancestor+h.sep)
}

// ResetConfiguration returns the repository to a clean state: the root keeps
// its default level, every other logger loses its explicit level, additivity
// flags return to true, the threshold drops to ALL, and every cascade is
// detached. Appenders are not closed; use Shutdown first when sinks must be
// released.
func (h *Hierarchy) ResetConfiguration() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.SetThreshold(LevelAll)
	h.root.SetLevel(h.rootLevel)
	h.root.SetAdditivity(true)
	h.root.cascade.RemoveAll()
	for _, node := range h.loggers {
		if l, ok := node.(*Logger); ok {
			l.level.Store(nil)
			l.additive.Store(true)
			l.cascade.RemoveAll()
		}
	}
	h.noAppenderWarned.Store(false)
}

// Shutdown closes every attached appender exactly once, even when one
// instance is shared across several loggers, then detaches all cascades.
// Close failures are reported to the internal diagnostic channel.
func (h *Hierarchy) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[Appender]struct{})
	h.closeAndDetach(h.root, seen)
	for _, node := range h.loggers {
		if l, ok := node.(*Logger); ok {
			h.closeAndDetach(l, seen)
		}
	}
}

func (h *Hierarchy) closeAndDetach(l *Logger, seen map[Appender]struct{}) {
	for _, a := range l.cascade.Appenders() {
		if _, done := seen[a]; done {
			continue
		}
		seen[a] = struct{}{}
		if err := a.Close(); err != nil {
			diag.Errorf("treelog: closing appender %q: %v", a.Name(), err)
		}
	}
	l.cascade.RemoveAll()
}

// Clear empties the name map, discarding every non-root logger and provision
// node. Appenders attached to discarded loggers are not closed; call
// Shutdown first. Loggers held by the application keep working but are no
// longer reachable through the repository.
func (h *Hierarchy) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loggers = make(map[string]any)
}

// OnLoggerCreated registers fn to run after each newly created logger has
// been linked into the tree.
func (h *Hierarchy) OnLoggerCreated(fn CreationListener) {
	if fn == nil {
		return
	}
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *Hierarchy) notifyCreated(l *Logger) {
	h.listenerMu.RLock()
	listeners := make([]CreationListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(l)
	}
}

// noAppenderWarning fires once per hierarchy when a dispatched event reached
// no appender at all, which almost always means the tree was never
// configured.
func (h *Hierarchy) noAppenderWarning(name string) {
	if h.noAppenderWarned.CompareAndSwap(false, true) {
		diag.Warnf("treelog: no appenders could be found for logger %q; attach an appender to the logger or its ancestors", name)
	}
}
