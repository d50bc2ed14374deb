package logctx_test

import (
	"context"
	"sync"
	"testing"

	"treelog/logctx"
)

func TestGlobalProperties(t *testing.T) {
	logctx.ResetGlobal()
	defer logctx.ResetGlobal()

	logctx.SetGlobal("host", "worker-1")
	logctx.SetGlobal("region", "eu")
	logctx.RemoveGlobal("region")

	snap := logctx.Snapshot(context.Background())
	if snap["host"] != "worker-1" {
		t.Fatalf("global property missing: %v", snap)
	}
	if _, ok := snap["region"]; ok {
		t.Fatal("removed global property should be gone")
	}
}

func TestSnapshotEmptyIsNil(t *testing.T) {
	logctx.ResetGlobal()
	if snap := logctx.Snapshot(context.Background()); snap != nil {
		t.Fatalf("empty snapshot should be nil, got %v", snap)
	}
	if snap := logctx.Snapshot(nil); snap != nil {
		t.Fatalf("nil context snapshot should be nil, got %v", snap)
	}
}

func TestContextPropertyOverridesGlobal(t *testing.T) {
	logctx.ResetGlobal()
	defer logctx.ResetGlobal()
	logctx.SetGlobal("tenant", "default")

	ctx := logctx.WithProperty(context.Background(), "tenant", "acme")
	snap := logctx.Snapshot(ctx)
	if snap["tenant"] != "acme" {
		t.Fatalf("per-call property must override the global one, got %q", snap["tenant"])
	}
}

func TestWithPropertyDoesNotMutateParent(t *testing.T) {
	parent := logctx.WithProperty(context.Background(), "step", "one")
	child := logctx.WithProperty(parent, "step", "two")

	if got := logctx.Properties(parent)["step"]; got != "one" {
		t.Fatalf("parent context mutated: %q", got)
	}
	if got := logctx.Properties(child)["step"]; got != "two" {
		t.Fatalf("child context wrong: %q", got)
	}
}

func TestPropertiesReturnsCopy(t *testing.T) {
	ctx := logctx.WithProperty(context.Background(), "k", "v")
	props := logctx.Properties(ctx)
	props["k"] = "mutated"
	if got := logctx.Properties(ctx)["k"]; got != "v" {
		t.Fatalf("mutating the returned map leaked into the context: %q", got)
	}
}

func TestWithProperties(t *testing.T) {
	ctx := logctx.WithProperties(context.Background(), map[string]string{"a": "1", "b": "2"})
	props := logctx.Properties(ctx)
	if props["a"] != "1" || props["b"] != "2" {
		t.Fatalf("unexpected properties %v", props)
	}
	if same := logctx.WithProperties(ctx, nil); same != ctx {
		t.Fatal("empty update should return the same context")
	}
}

func TestStackPushAndScope(t *testing.T) {
	ctx := context.Background()
	if logctx.Depth(ctx) != 0 {
		t.Fatal("fresh context should have an empty stack")
	}

	outer := logctx.Push(ctx, "request")
	inner := logctx.Push(outer, "retry")

	if got := logctx.Stack(inner); len(got) != 2 || got[0] != "request" || got[1] != "retry" {
		t.Fatalf("unexpected stack %v", got)
	}
	if top, ok := logctx.Peek(inner); !ok || top != "retry" {
		t.Fatalf("unexpected top %q", top)
	}
	// Returning to the outer scope pops implicitly.
	if got := logctx.Depth(outer); got != 1 {
		t.Fatalf("outer scope should still have depth 1, got %d", got)
	}
}

func TestSnapshotJoinsStack(t *testing.T) {
	logctx.ResetGlobal()
	ctx := logctx.Push(context.Background(), "a")
	ctx = logctx.Push(ctx, "b")
	snap := logctx.Snapshot(ctx)
	if snap[logctx.KeyStack] != "a b" {
		t.Fatalf("stack should join outermost-first, got %q", snap[logctx.KeyStack])
	}
}

func TestIsolationBetweenConcurrentFlows(t *testing.T) {
	logctx.ResetGlobal()
	var wg sync.WaitGroup
	results := make([]map[string]string, 2)

	for i, user := range []string{"ada", "grace"} {
		wg.Add(1)
		go func(slot int, user string) {
			defer wg.Done()
			ctx := logctx.WithProperty(context.Background(), "user", user)
			// Hand the context across another goroutine boundary, as an
			// asynchronous continuation of the same logical flow would.
			done := make(chan map[string]string)
			go func(ctx context.Context) {
				done <- logctx.Snapshot(ctx)
			}(ctx)
			results[slot] = <-done
		}(i, user)
	}
	wg.Wait()

	if results[0]["user"] != "ada" || results[1]["user"] != "grace" {
		t.Fatalf("properties leaked between flows: %v / %v", results[0], results[1])
	}
}

func TestWithCorrelationID(t *testing.T) {
	ctx1, id1 := logctx.WithCorrelationID(context.Background())
	_, id2 := logctx.WithCorrelationID(context.Background())
	if id1 == "" || id1 == id2 {
		t.Fatalf("correlation identifiers should be unique, got %q and %q", id1, id2)
	}
	if got := logctx.Properties(ctx1)[logctx.KeyCorrelationID]; got != id1 {
		t.Fatalf("correlation id not stored: %q", got)
	}
}
