// Package logctx carries ambient diagnostic properties for logging.
//
// Three sources are combined into each emitted event: the process-wide
// global store, a per-logical-call property map, and a per-logical-call
// nested stack. The per-call sources ride on a context.Context, so they
// propagate across goroutine handoffs exactly as far as the context is
// passed and never leak into unrelated concurrent flows.
//
// On key collision the more specific source wins: context properties
// override global ones. The stack surfaces under the reserved KeyStack key.
package logctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	propsKey contextKey = "treelog_properties"
	stackKey contextKey = "treelog_stack"
)

// KeyCorrelationID is the property key used by WithCorrelationID.
const KeyCorrelationID = "correlation_id"

// WithProperty returns a context carrying the diagnostic property key=value
// in addition to any properties already present. The parent context is not
// modified.
func WithProperty(ctx context.Context, key, value string) context.Context {
	props := copyProps(ctx, 1)
	props[key] = value
	return context.WithValue(ctx, propsKey, props)
}

// WithProperties returns a context carrying every entry of values on top of
// the properties already present.
func WithProperties(ctx context.Context, values map[string]string) context.Context {
	if len(values) == 0 {
		return ctx
	}
	props := copyProps(ctx, len(values))
	for k, v := range values {
		props[k] = v
	}
	return context.WithValue(ctx, propsKey, props)
}

// WithCorrelationID returns a context tagged with a fresh correlation
// identifier under KeyCorrelationID, and the identifier itself.
func WithCorrelationID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithProperty(ctx, KeyCorrelationID, id), id
}

// Properties returns a copy of the per-call diagnostic properties carried by
// ctx, or nil when there are none.
func Properties(ctx context.Context) map[string]string {
	props := propsFrom(ctx)
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Snapshot captures the union of every ambient diagnostic source as seen by
// one log call: global store first, then per-call properties, then the
// nested stack under KeyStack. Returns nil when all sources are empty, so
// the disabled-call path stays allocation-free for callers that check first.
func Snapshot(ctx context.Context) map[string]string {
	dst := appendGlobal(nil)
	if ctx != nil {
		if props := propsFrom(ctx); len(props) > 0 {
			if dst == nil {
				dst = make(map[string]string, len(props))
			}
			for k, v := range props {
				dst[k] = v
			}
		}
		if s := stackFrom(ctx); len(s) > 0 {
			if dst == nil {
				dst = make(map[string]string, 1)
			}
			dst[KeyStack] = joinStack(s)
		}
	}
	return dst
}

func propsFrom(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	props, _ := ctx.Value(propsKey).(map[string]string)
	return props
}

func copyProps(ctx context.Context, extra int) map[string]string {
	existing := propsFrom(ctx)
	props := make(map[string]string, len(existing)+extra)
	for k, v := range existing {
		props[k] = v
	}
	return props
}
