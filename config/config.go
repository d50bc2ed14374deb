// Package config loads and validates TOML logging configuration and applies
// it to a treelog hierarchy through the core's public mutators. The core
// itself owns no file format; this package is the external configurator.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"treelog"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the root of the TOML document.
type Config struct {
	Hierarchy HierarchySettings  `toml:"hierarchy"`
	Root      RootSettings       `toml:"root"`
	Appenders []AppenderSettings `toml:"appender"`
	Loggers   []LoggerSettings   `toml:"logger"`
}

// HierarchySettings configures repository-wide behavior.
type HierarchySettings struct {
	// Threshold gates every logger in the repository. Default "all".
	Threshold string `toml:"threshold"`
	// Separator delimits logger name segments. Default ".".
	Separator string `toml:"separator"`
}

// RootSettings configures the root logger.
type RootSettings struct {
	Level     string   `toml:"level"`
	Appenders []string `toml:"appenders"`
}

// AppenderSettings declares one named appender. Type selects the
// implementation; the remaining fields apply per type.
type AppenderSettings struct {
	Name      string `toml:"name"`
	Type      string `toml:"type"`
	Threshold string `toml:"threshold"`
	// Pattern is the layout pattern; layout.DefaultPattern when empty.
	Pattern string `toml:"pattern"`

	// Target selects "stdout" or "stderr" for console appenders.
	Target string `toml:"target"`
	// Color is "auto", "always", or "never" for console appenders.
	Color string `toml:"color"`

	// Path names the file for file and sqlite appenders.
	Path      string `toml:"path"`
	Truncate  bool   `toml:"truncate"`
	Encoding  string `toml:"encoding"`
	Exclusive bool   `toml:"exclusive"`

	// Table and BufferSize tune sqlite appenders.
	Table      string `toml:"table"`
	BufferSize int    `toml:"buffer_size"`

	// Appenders lists the members of a forwarding appender.
	Appenders []string `toml:"appenders"`
}

// LoggerSettings configures one named logger.
type LoggerSettings struct {
	Name  string `toml:"name"`
	Level string `toml:"level"`
	// Additive defaults to true when omitted.
	Additive  *bool    `toml:"additive"`
	Appenders []string `toml:"appenders"`
}

// Default returns a configuration that logs info and above to stdout.
func Default() Config {
	return Config{
		Root: RootSettings{Level: "info", Appenders: []string{"console"}},
		Appenders: []AppenderSettings{
			{Name: "console", Type: "console"},
		},
	}
}

// Sample returns the annotated sample configuration shipped with the
// package.
func Sample() string { return sampleConfig }

// Load reads and parses a TOML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

var appenderTypes = map[string]struct{}{
	"console":    {},
	"file":       {},
	"memory":     {},
	"forwarding": {},
	"sqlite":     {},
}

// Validate reports every static problem in cfg: duplicate or missing
// appender names, unknown types, dangling references, and unparseable level
// names. Apply tolerates the level and reference problems at runtime (they
// are ignored with a diagnostic); Validate exists so tooling can reject them
// up front.
func (c Config) Validate() error {
	var errs []error

	names := make(map[string]struct{}, len(c.Appenders))
	for _, a := range c.Appenders {
		if a.Name == "" {
			errs = append(errs, errors.New("appender without a name"))
			continue
		}
		if _, dup := names[a.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate appender name %q", a.Name))
		}
		names[a.Name] = struct{}{}

		if _, ok := appenderTypes[a.Type]; !ok {
			errs = append(errs, fmt.Errorf("appender %q: unknown type %q", a.Name, a.Type))
			continue
		}
		switch a.Type {
		case "file", "sqlite":
			if a.Path == "" {
				errs = append(errs, fmt.Errorf("appender %q: %s appender requires a path", a.Name, a.Type))
			}
		case "console":
			switch a.Color {
			case "", "auto", "always", "never":
			default:
				errs = append(errs, fmt.Errorf("appender %q: unknown color mode %q", a.Name, a.Color))
			}
		}
		if a.Threshold != "" {
			if _, ok := treelog.ParseLevel(a.Threshold); !ok {
				errs = append(errs, fmt.Errorf("appender %q: unknown threshold level %q", a.Name, a.Threshold))
			}
		}
	}

	for _, a := range c.Appenders {
		if a.Type != "forwarding" {
			continue
		}
		for _, ref := range a.Appenders {
			if _, ok := names[ref]; !ok {
				errs = append(errs, fmt.Errorf("appender %q: unknown member appender %q", a.Name, ref))
			}
			if ref == a.Name {
				errs = append(errs, fmt.Errorf("appender %q: forwards to itself", a.Name))
			}
		}
	}

	if c.Hierarchy.Threshold != "" {
		if _, ok := treelog.ParseLevel(c.Hierarchy.Threshold); !ok {
			errs = append(errs, fmt.Errorf("hierarchy: unknown threshold level %q", c.Hierarchy.Threshold))
		}
	}
	if c.Root.Level != "" {
		if _, ok := treelog.ParseLevel(c.Root.Level); !ok {
			errs = append(errs, fmt.Errorf("root: unknown level %q", c.Root.Level))
		}
	}
	for _, ref := range c.Root.Appenders {
		if _, ok := names[ref]; !ok {
			errs = append(errs, fmt.Errorf("root: unknown appender %q", ref))
		}
	}

	seenLoggers := make(map[string]struct{}, len(c.Loggers))
	for _, l := range c.Loggers {
		if l.Name == "" {
			errs = append(errs, errors.New("logger without a name"))
			continue
		}
		if _, dup := seenLoggers[l.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate logger section %q", l.Name))
		}
		seenLoggers[l.Name] = struct{}{}
		if l.Level != "" {
			if _, ok := treelog.ParseLevel(l.Level); !ok {
				errs = append(errs, fmt.Errorf("logger %q: unknown level %q", l.Name, l.Level))
			}
		}
		for _, ref := range l.Appenders {
			if _, ok := names[ref]; !ok {
				errs = append(errs, fmt.Errorf("logger %q: unknown appender %q", l.Name, ref))
			}
		}
	}

	return errors.Join(errs...)
}
