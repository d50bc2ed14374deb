package appenders

import (
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"treelog"
)

// ColorMode controls ANSI coloring of console output.
type ColorMode int

const (
	// ColorAuto enables color only when the target is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ConsoleOptions configures a console appender.
type ConsoleOptions struct {
	// Target is "stdout" (default) or "stderr".
	Target string
	Layout treelog.Layout
	Color  ColorMode
}

// Console writes rendered events to stdout or stderr, coloring lines by
// severity when the target is a terminal.
type Console struct {
	name   string
	layout treelog.Layout
	color  bool

	mu sync.Mutex
	f  *os.File

	threshold *treelog.Level
}

// NewConsole returns a console appender for the given target stream.
func NewConsole(name string, opts ConsoleOptions) (*Console, error) {
	var f *os.File
	switch opts.Target {
	case "", "stdout":
		f = os.Stdout
	case "stderr":
		f = os.Stderr
	default:
		return nil, fmt.Errorf("console appender: unknown target %q", opts.Target)
	}
	l := opts.Layout
	if l == nil {
		return nil, fmt.Errorf("console appender: layout is required")
	}
	color := false
	switch opts.Color {
	case ColorAlways:
		color = true
	case ColorAuto:
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{name: name, layout: l, color: color, f: f}, nil
}

// Name implements treelog.Appender.
func (a *Console) Name() string { return a.name }

// SetThreshold rejects events below level at this sink only.
func (a *Console) SetThreshold(level treelog.Level) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lv := level
	a.threshold = &lv
}

// Append implements treelog.Appender.
func (a *Console) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.threshold != nil && !e.Level.IsGreaterOrEqual(*a.threshold) {
		return nil
	}
	line := a.layout.Render(e)
	if a.color {
		line = colorize(e.Level, line)
	}
	if _, err := a.f.WriteString(line); err != nil {
		return fmt.Errorf("write event to console: %w", err)
	}
	return nil
}

// Close implements treelog.Appender. The process streams are left open.
func (a *Console) Close() error { return nil }

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func colorize(level treelog.Level, line string) string {
	switch {
	case level.IsGreaterOrEqual(treelog.LevelError):
		return ansiRed + line + ansiReset
	case level.IsGreaterOrEqual(treelog.LevelWarn):
		return ansiYellow + line + ansiReset
	case level.IsGreaterOrEqual(treelog.LevelInfo):
		return line
	default:
		return ansiDim + line + ansiReset
	}
}
