// Package layout provides the render collaborators consumed by
// byte-oriented appenders.
package layout

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"treelog"
)

// DefaultPattern is the pattern used when a configuration supplies none.
const DefaultPattern = "%d %p %c: %m%n"

// PatternLayout renders events according to a printf-like pattern, compiled
// once at construction.
//
// Conversions:
//
//	%d        timestamp, RFC3339; %d{layout} uses a Go reference layout
//	%p        level name
//	%c        logger name
//	%m        rendered message
//	%e        error text, empty when the event carries no error
//	%g        goroutine identity
//	%x        nested diagnostic stack (the "ndc" property)
//	%X{key}   one diagnostic property; %X alone emits all, sorted, as k=v
//	%n        newline
//	%%        literal percent
type PatternLayout struct {
	segments []segment
}

type segment func(b *strings.Builder, e *treelog.Event)

// NewPatternLayout compiles pattern. Unknown conversions are an error so
// configuration typos surface immediately instead of producing silent holes
// in the output.
func NewPatternLayout(pattern string) (*PatternLayout, error) {
	var segments []segment
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() == 0 {
			return
		}
		text := literal.String()
		literal.Reset()
		segments = append(segments, func(b *strings.Builder, _ *treelog.Event) {
			b.WriteString(text)
		})
	}

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch != '%' {
			literal.WriteByte(ch)
			continue
		}
		if i+1 >= len(pattern) {
			return nil, fmt.Errorf("pattern layout: trailing %% in %q", pattern)
		}
		i++
		verb := pattern[i]
		arg := ""
		if (verb == 'd' || verb == 'X') && i+1 < len(pattern) && pattern[i+1] == '{' {
			end := strings.IndexByte(pattern[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("pattern layout: unterminated argument after %%%c", verb)
			}
			arg = pattern[i+2 : i+2+end]
			i += end + 2
		}
		seg, err := conversion(verb, arg)
		if err != nil {
			return nil, err
		}
		flushLiteral()
		segments = append(segments, seg)
	}
	flushLiteral()

	return &PatternLayout{segments: segments}, nil
}

// MustPatternLayout is NewPatternLayout for compile-time-constant patterns;
// it panics on a malformed pattern.
func MustPatternLayout(pattern string) *PatternLayout {
	p, err := NewPatternLayout(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Render implements treelog.Layout.
func (p *PatternLayout) Render(e *treelog.Event) string {
	var b strings.Builder
	b.Grow(128)
	for _, seg := range p.segments {
		seg(&b, e)
	}
	return b.String()
}

func conversion(verb byte, arg string) (segment, error) {
	switch verb {
	case 'd':
		timeLayout := time.RFC3339
		if arg != "" {
			timeLayout = arg
		}
		return func(b *strings.Builder, e *treelog.Event) {
			b.WriteString(e.Timestamp.Format(timeLayout))
		}, nil
	case 'p':
		return func(b *strings.Builder, e *treelog.Event) {
			b.WriteString(e.Level.String())
		}, nil
	case 'c':
		return func(b *strings.Builder, e *treelog.Event) {
			b.WriteString(e.LoggerName)
		}, nil
	case 'm':
		return func(b *strings.Builder, e *treelog.Event) {
			b.WriteString(e.Message())
		}, nil
	case 'e':
		return func(b *strings.Builder, e *treelog.Event) {
			if e.Err != nil {
				b.WriteString(e.Err.Error())
			}
		}, nil
	case 'g':
		return func(b *strings.Builder, e *treelog.Event) {
			b.WriteString(e.Goroutine)
		}, nil
	case 'x':
		return func(b *strings.Builder, e *treelog.Event) {
			if v, ok := e.Property("ndc"); ok {
				b.WriteString(v)
			}
		}, nil
	case 'X':
		if arg != "" {
			key := arg
			return func(b *strings.Builder, e *treelog.Event) {
				if v, ok := e.Property(key); ok {
					b.WriteString(v)
				}
			}, nil
		}
		return allProperties, nil
	case 'n':
		return func(b *strings.Builder, _ *treelog.Event) {
			b.WriteByte('\n')
		}, nil
	case '%':
		return func(b *strings.Builder, _ *treelog.Event) {
			b.WriteByte('%')
		}, nil
	}
	return nil, fmt.Errorf("pattern layout: unknown conversion %%%c", verb)
}

func allProperties(b *strings.Builder, e *treelog.Event) {
	if len(e.Properties) == 0 {
		return
	}
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Properties[k])
	}
}
