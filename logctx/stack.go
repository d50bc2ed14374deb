package logctx

import (
	"context"
	"strings"
)

// KeyStack is the property key under which the nested stack appears in
// event snapshots. The entries are space-joined, outermost first.
const KeyStack = "ndc"

// Push returns a context whose nested diagnostic stack has value on top.
// The parent context is untouched, so "popping" is simply returning to the
// parent's scope; every exit path pops, including panics and early returns.
func Push(ctx context.Context, value string) context.Context {
	existing := stackFrom(ctx)
	next := make([]string, len(existing)+1)
	copy(next, existing)
	next[len(existing)] = value
	return context.WithValue(ctx, stackKey, next)
}

// Stack returns a copy of the nested stack carried by ctx, outermost first.
func Stack(ctx context.Context) []string {
	existing := stackFrom(ctx)
	if len(existing) == 0 {
		return nil
	}
	out := make([]string, len(existing))
	copy(out, existing)
	return out
}

// Peek returns the innermost stack entry.
func Peek(ctx context.Context) (string, bool) {
	existing := stackFrom(ctx)
	if len(existing) == 0 {
		return "", false
	}
	return existing[len(existing)-1], true
}

// Depth returns the number of entries on the nested stack.
func Depth(ctx context.Context) int {
	return len(stackFrom(ctx))
}

func stackFrom(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(stackKey).([]string)
	return s
}

func joinStack(s []string) string {
	return strings.Join(s, " ")
}
