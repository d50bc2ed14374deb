package layout

import (
	"strings"

	"treelog"
)

// SimpleLayout renders "LEVEL - message\n". Useful as a dependency-free
// default in tests and tooling.
type SimpleLayout struct{}

// Render implements treelog.Layout.
func (SimpleLayout) Render(e *treelog.Event) string {
	var b strings.Builder
	b.Grow(len(e.Level.String()) + len(e.Message()) + 4)
	b.WriteString(e.Level.String())
	b.WriteString(" - ")
	b.WriteString(e.Message())
	b.WriteByte('\n')
	return b.String()
}
