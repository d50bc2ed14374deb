package config

import (
	"fmt"

	"treelog"
	"treelog/appenders"
	"treelog/internal/diag"
	"treelog/layout"
)

// Build constructs a fresh hierarchy from cfg. Equivalent to
// NewWithOptions + Apply.
func Build(cfg Config) (*treelog.Hierarchy, error) {
	h := treelog.NewWithOptions(treelog.Options{Separator: cfg.Hierarchy.Separator})
	if err := Apply(h, cfg); err != nil {
		return nil, err
	}
	return h, nil
}

// Apply wires cfg into h using the core's public mutators: it constructs the
// declared appenders and sets levels, additivity, and attachments.
//
// Structural failures (a file that cannot be opened, a malformed pattern, a
// duplicate appender name) return an error. Unparseable level names and
// references to unknown appenders are reported to the internal diagnostic
// channel, the offending setting is skipped, and the prior value is
// retained.
func Apply(h *treelog.Hierarchy, cfg Config) error {
	if cfg.Hierarchy.Threshold != "" {
		if level, ok := treelog.ParseLevel(cfg.Hierarchy.Threshold); ok {
			h.SetThreshold(level)
		} else {
			diag.Warnf("config: unknown hierarchy threshold %q ignored", cfg.Hierarchy.Threshold)
		}
	}

	built, err := buildAppenders(cfg.Appenders)
	if err != nil {
		return err
	}

	applyLogger(h.Root(), "root", cfg.Root.Level, nil, cfg.Root.Appenders, built)

	for _, section := range cfg.Loggers {
		if section.Name == "" {
			diag.Warnf("config: logger section without a name ignored")
			continue
		}
		l := h.GetLogger(section.Name)
		applyLogger(l, section.Name, section.Level, section.Additive, section.Appenders, built)
	}
	return nil
}

func applyLogger(l *treelog.Logger, name, level string, additive *bool, refs []string, built map[string]treelog.Appender) {
	if level != "" {
		if lv, ok := treelog.ParseLevel(level); ok {
			l.SetLevel(lv)
		} else {
			diag.Warnf("config: unknown level %q on logger %q ignored", level, name)
		}
	}
	if additive != nil {
		l.SetAdditivity(*additive)
	}
	for _, ref := range refs {
		a, ok := built[ref]
		if !ok {
			diag.Warnf("config: logger %q references unknown appender %q", name, ref)
			continue
		}
		l.AddAppender(a)
	}
}

type thresholdSetter interface {
	SetThreshold(level treelog.Level)
}

// buildAppenders constructs every declared appender in declaration order,
// then resolves forwarding memberships in a second pass so members may be
// declared in any order.
func buildAppenders(sections []AppenderSettings) (map[string]treelog.Appender, error) {
	built := make(map[string]treelog.Appender, len(sections))

	for _, s := range sections {
		if s.Name == "" {
			return nil, fmt.Errorf("appender without a name")
		}
		if _, dup := built[s.Name]; dup {
			return nil, fmt.Errorf("duplicate appender name %q", s.Name)
		}
		a, err := buildAppender(s)
		if err != nil {
			return nil, err
		}
		built[s.Name] = a
	}

	for _, s := range sections {
		if s.Type != "forwarding" {
			continue
		}
		fwd := built[s.Name].(*appenders.Forwarding)
		for _, ref := range s.Appenders {
			member, ok := built[ref]
			if !ok || ref == s.Name {
				diag.Warnf("config: forwarding appender %q references unknown appender %q", s.Name, ref)
				continue
			}
			fwd.AddAppender(member)
		}
	}

	return built, nil
}

func buildAppender(s AppenderSettings) (treelog.Appender, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = layout.DefaultPattern
	}
	l, err := layout.NewPatternLayout(pattern)
	if err != nil {
		return nil, fmt.Errorf("appender %q: %w", s.Name, err)
	}

	var a treelog.Appender
	switch s.Type {
	case "console":
		color := appenders.ColorAuto
		switch s.Color {
		case "", "auto":
		case "always":
			color = appenders.ColorAlways
		case "never":
			color = appenders.ColorNever
		default:
			diag.Warnf("config: appender %q: unknown color mode %q, using auto", s.Name, s.Color)
		}
		a, err = appenders.NewConsole(s.Name, appenders.ConsoleOptions{
			Target: s.Target,
			Layout: l,
			Color:  color,
		})
	case "file":
		a, err = appenders.NewFile(s.Name, appenders.FileOptions{
			Path:      s.Path,
			Layout:    l,
			Truncate:  s.Truncate,
			Encoding:  s.Encoding,
			Exclusive: s.Exclusive,
		})
	case "memory":
		a = appenders.NewMemory(s.Name)
	case "forwarding":
		a = appenders.NewForwarding(s.Name)
	case "sqlite":
		a, err = appenders.NewSQLite(s.Name, appenders.SQLiteOptions{
			Path:       s.Path,
			Table:      s.Table,
			BufferSize: s.BufferSize,
		})
	default:
		return nil, fmt.Errorf("appender %q: unknown type %q", s.Name, s.Type)
	}
	if err != nil {
		return nil, err
	}

	if s.Threshold != "" {
		if level, ok := treelog.ParseLevel(s.Threshold); ok {
			if setter, can := a.(thresholdSetter); can {
				setter.SetThreshold(level)
			}
		} else {
			diag.Warnf("config: unknown threshold %q on appender %q ignored", s.Threshold, s.Name)
		}
	}
	return a, nil
}
