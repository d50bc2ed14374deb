package treelog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"treelog"
)

// recordingAppender captures events and counts closes; the test double for
// cascade behavior.
type recordingAppender struct {
	name string

	mu     sync.Mutex
	events []*treelog.Event
	closes int
	fail   error
	panics bool
}

func newRecording(name string) *recordingAppender {
	return &recordingAppender{name: name}
}

func (a *recordingAppender) Name() string { return a.name }

func (a *recordingAppender) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.panics {
		panic("appender exploded")
	}
	if a.fail != nil {
		return a.fail
	}
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closes++
	return nil
}

func (a *recordingAppender) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

func (a *recordingAppender) closeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closes
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	h := treelog.New()
	first := h.GetLogger("app.store")
	second := h.GetLogger("app.store")
	if first != second {
		t.Fatal("expected the same logger instance for the same name")
	}
}

func TestGetLoggerEmptyNameReturnsRoot(t *testing.T) {
	h := treelog.New()
	if h.GetLogger("") != h.Root() {
		t.Fatal("empty name should resolve to the root logger")
	}
	if h.GetLogger(treelog.RootLoggerName) != h.Root() {
		t.Fatal("the root name should resolve to the root logger")
	}
}

func TestReparentingChildThenParent(t *testing.T) {
	h := treelog.New()
	child := h.GetLogger("app.store")
	if got := child.Parent(); got != h.Root() {
		t.Fatalf("before the ancestor exists the parent should be root, got %q", got.Name())
	}

	parent := h.GetLogger("app")
	if got := child.Parent(); got != parent {
		t.Fatalf("creating %q should reparent %q: parent is %q", parent.Name(), child.Name(), got.Name())
	}
	if got := parent.Parent(); got != h.Root() {
		t.Fatalf("parent of %q should be root, got %q", parent.Name(), got.Name())
	}
}

func TestReparentingSplicesIntermediate(t *testing.T) {
	h := treelog.New()
	leaf := h.GetLogger("a.b.c.d")

	mid := h.GetLogger("a.b")
	if got := leaf.Parent(); got != mid {
		t.Fatalf("leaf should hang off %q, got %q", mid.Name(), got.Name())
	}

	deeper := h.GetLogger("a.b.c")
	if got := leaf.Parent(); got != deeper {
		t.Fatalf("creating %q must splice between %q and %q, got parent %q",
			deeper.Name(), mid.Name(), leaf.Name(), got.Name())
	}
	if got := deeper.Parent(); got != mid {
		t.Fatalf("%q should hang off %q, got %q", deeper.Name(), mid.Name(), got.Name())
	}

	top := h.GetLogger("a")
	if got := mid.Parent(); got != top {
		t.Fatalf("%q should hang off %q, got %q", mid.Name(), top.Name(), got.Name())
	}
	if got := leaf.Parent(); got != deeper {
		t.Fatalf("creating %q must not disturb the %q link, got %q", top.Name(), deeper.Name(), got.Name())
	}
}

func TestReparentingSiblingsShareNewAncestor(t *testing.T) {
	h := treelog.New()
	b := h.GetLogger("svc.b")
	c := h.GetLogger("svc.c")

	svc := h.GetLogger("svc")
	if b.Parent() != svc || c.Parent() != svc {
		t.Fatalf("both siblings should be reparented to %q", svc.Name())
	}
	if svc.Parent() != h.Root() {
		t.Fatal("new ancestor should hang off root")
	}
}

func TestExistsIgnoresProvisionNodes(t *testing.T) {
	h := treelog.New()
	h.GetLogger("app.store.sqlite")

	if h.Exists("app.store.sqlite") == nil {
		t.Fatal("created logger should exist")
	}
	if h.Exists("app.store") != nil {
		t.Fatal("a provision node must not count as an existing logger")
	}
	if h.Exists("app") != nil {
		t.Fatal("a provision node must not count as an existing logger")
	}
	if h.Exists(treelog.RootLoggerName) != h.Root() {
		t.Fatal("root always exists")
	}
}

func TestCurrentLoggersSnapshot(t *testing.T) {
	h := treelog.New()
	h.GetLogger("a.b")
	h.GetLogger("a.c")

	loggers := h.CurrentLoggers()
	if len(loggers) != 2 {
		t.Fatalf("expected 2 real loggers (provision nodes excluded), got %d", len(loggers))
	}
}

func TestCurrentLoggersUnderConcurrentCreation(t *testing.T) {
	h := treelog.New()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.GetLogger(fmt.Sprintf("load.worker.%d", i))
		}
		close(stop)
	}()

	for {
		loggers := h.CurrentLoggers()
		seen := make(map[string]struct{}, len(loggers))
		for _, l := range loggers {
			if _, dup := seen[l.Name()]; dup {
				t.Fatalf("snapshot contains duplicate logger %q", l.Name())
			}
			seen[l.Name()] = struct{}{}
		}
		select {
		case <-stop:
			wg.Wait()
			// 200 leaves; "load" and "load.worker" stay provision nodes.
			if got := len(h.CurrentLoggers()); got != 200 {
				t.Fatalf("expected 200 loggers after creation finished, got %d", got)
			}
			return
		default:
		}
	}
}

func TestResetConfiguration(t *testing.T) {
	h := treelog.New()
	sink := newRecording("sink")

	h.Root().AddAppender(sink)
	l := h.GetLogger("app")
	l.SetLevel(treelog.LevelError)
	l.SetAdditivity(false)
	l.AddAppender(sink)
	h.SetThreshold(treelog.LevelWarn)

	h.ResetConfiguration()

	if _, ok := l.ExplicitLevel(); ok {
		t.Fatal("reset should clear explicit levels on non-root loggers")
	}
	if !l.Additivity() {
		t.Fatal("reset should restore additivity")
	}
	if len(l.Appenders()) != 0 || len(h.Root().Appenders()) != 0 {
		t.Fatal("reset should detach all appenders")
	}
	if sink.closeCount() != 0 {
		t.Fatal("reset must not close appenders")
	}
	if _, ok := h.Root().ExplicitLevel(); !ok {
		t.Fatal("root must keep an explicit level after reset")
	}
	if h.Threshold() != treelog.LevelAll {
		t.Fatalf("reset should drop the threshold to ALL, got %s", h.Threshold())
	}
}

func TestShutdownClosesSharedAppenderOnce(t *testing.T) {
	h := treelog.New()
	shared := newRecording("shared")

	h.Root().AddAppender(shared)
	h.GetLogger("a").AddAppender(shared)
	h.GetLogger("b").AddAppender(shared)

	h.Shutdown()

	if got := shared.closeCount(); got != 1 {
		t.Fatalf("shared appender should be closed exactly once, got %d", got)
	}
	if len(h.Root().Appenders()) != 0 {
		t.Fatal("shutdown should detach appenders")
	}
}

func TestThresholdGatesAllLoggers(t *testing.T) {
	h := treelog.New()
	sink := newRecording("sink")
	h.Root().AddAppender(sink)

	h.SetThreshold(treelog.LevelError)
	l := h.GetLogger("app")
	if l.IsEnabledFor(treelog.LevelWarn) {
		t.Fatal("threshold should disable levels below it regardless of logger levels")
	}
	l.Warn(context.Background(), "dropped")
	if sink.count() != 0 {
		t.Fatal("event below the threshold must not be dispatched")
	}
	l.Log(context.Background(), treelog.LevelError, "kept", nil)
	if sink.count() != 1 {
		t.Fatal("event at the threshold should be dispatched")
	}
}

func TestOnLoggerCreated(t *testing.T) {
	h := treelog.New()
	var mu sync.Mutex
	var created []string
	h.OnLoggerCreated(func(l *treelog.Logger) {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, l.Name())
	})

	h.GetLogger("x.y")
	h.GetLogger("x.y") // existing, no notification
	h.GetLogger("x")

	mu.Lock()
	defer mu.Unlock()
	if len(created) != 2 || created[0] != "x.y" || created[1] != "x" {
		t.Fatalf("unexpected creation notifications: %v", created)
	}
}

func TestRendererMap(t *testing.T) {
	type order struct{ id int }

	h := treelog.New()
	sink := newRecording("sink")
	h.Root().AddAppender(sink)
	h.AddRenderer(order{}, treelog.RendererFunc(func(msg any) string {
		return fmt.Sprintf("order#%d", msg.(order).id)
	}))

	h.GetLogger("shop").Log(context.Background(), treelog.LevelInfo, order{id: 42}, nil)

	if sink.count() != 1 {
		t.Fatalf("expected one delivery, got %d", sink.count())
	}
	if got := sink.events[0].Message(); got != "order#42" {
		t.Fatalf("renderer not applied: %q", got)
	}
}

// The end-to-end scenario: root(INFO) -> "App" (inherits) -> "App.Sub"
// (ERROR, non-additive).
func TestLevelAndAdditivityScenario(t *testing.T) {
	h := treelog.New()
	rootSink := newRecording("rootSink")
	subSink := newRecording("subSink")

	h.Root().SetLevel(treelog.LevelInfo)
	h.Root().AddAppender(rootSink)

	app := h.GetLogger("App")
	sub := h.GetLogger("App.Sub")
	sub.SetLevel(treelog.LevelError)
	sub.SetAdditivity(false)
	sub.AddAppender(subSink)

	ctx := context.Background()

	sub.Warn(ctx, "suppressed")
	if subSink.count() != 0 || rootSink.count() != 0 {
		t.Fatal("WARN on App.Sub must be suppressed by its ERROR level")
	}

	sub.Log(ctx, treelog.LevelError, "to sub only", errors.New("boom"))
	if subSink.count() != 1 {
		t.Fatalf("ERROR on App.Sub should reach its own sink, got %d", subSink.count())
	}
	if rootSink.count() != 0 {
		t.Fatal("non-additive App.Sub must not cascade to root")
	}

	app.Warn(ctx, "to root")
	if rootSink.count() != 1 {
		t.Fatalf("WARN on App should cascade to root (effective level INFO), got %d", rootSink.count())
	}
}
