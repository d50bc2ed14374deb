package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"treelog"
	"treelog/appenders"
	"treelog/config"
	"treelog/internal/diag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treelog.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[hierarchy]
threshold = "debug"

[root]
level = "warn"
appenders = ["mem"]

[[appender]]
name = "mem"
type = "memory"

[[logger]]
name = "svc.db"
level = "trace"
additive = false
appenders = ["mem"]
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hierarchy.Threshold != "debug" || cfg.Root.Level != "warn" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Loggers) != 1 || cfg.Loggers[0].Additive == nil || *cfg.Loggers[0].Additive {
		t.Fatalf("logger section parsed wrong: %+v", cfg.Loggers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file should error")
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[root\nlevel =")
	if _, err := config.Load(path); err == nil {
		t.Fatal("malformed document should error")
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := config.Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSampleParsesAndValidates(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := config.Config{
		Hierarchy: config.HierarchySettings{Threshold: "loudest"},
		Root:      config.RootSettings{Level: "shiny", Appenders: []string{"ghost"}},
		Appenders: []config.AppenderSettings{
			{Name: "dup", Type: "memory"},
			{Name: "dup", Type: "memory"},
			{Name: "bad", Type: "teletype"},
			{Name: "nofile", Type: "file"},
			{Name: "loop", Type: "forwarding", Appenders: []string{"loop", "missing"}},
		},
		Loggers: []config.LoggerSettings{
			{Name: "svc", Level: "blue", Appenders: []string{"ghost"}},
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	text := err.Error()
	for _, want := range []string{
		`unknown threshold level "loudest"`,
		`unknown level "shiny"`,
		`duplicate appender name "dup"`,
		`unknown type "teletype"`,
		`requires a path`,
		`forwards to itself`,
		`unknown member appender "missing"`,
		`unknown level "blue"`,
		`unknown appender "ghost"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestBuildWiresHierarchy(t *testing.T) {
	additiveOff := false
	cfg := config.Config{
		Hierarchy: config.HierarchySettings{Threshold: "debug"},
		Root:      config.RootSettings{Level: "warn", Appenders: []string{"mem"}},
		Appenders: []config.AppenderSettings{
			{Name: "mem", Type: "memory"},
		},
		Loggers: []config.LoggerSettings{
			{Name: "svc.db", Level: "trace", Additive: &additiveOff, Appenders: []string{"mem"}},
		},
	}
	h, err := config.Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Shutdown()

	if h.Threshold() != treelog.LevelDebug {
		t.Fatalf("threshold not applied: %v", h.Threshold())
	}
	if h.Root().EffectiveLevel() != treelog.LevelWarn {
		t.Fatalf("root level not applied: %v", h.Root().EffectiveLevel())
	}
	db := h.Exists("svc.db")
	if db == nil {
		t.Fatal("configured logger should exist")
	}
	if db.EffectiveLevel() != treelog.LevelTrace || db.Additivity() {
		t.Fatalf("logger settings not applied: level=%v additive=%v", db.EffectiveLevel(), db.Additivity())
	}
	if db.Appender("mem") == nil || h.Root().Appender("mem") == nil {
		t.Fatal("appender attachments missing")
	}
	// Both attachments reference the one constructed instance.
	if db.Appender("mem") != h.Root().Appender("mem") {
		t.Fatal("the same declared appender should be shared, not duplicated")
	}
}

func TestApplyForwardingMembersResolveInAnyOrder(t *testing.T) {
	cfg := config.Config{
		Root: config.RootSettings{Appenders: []string{"fan"}},
		Appenders: []config.AppenderSettings{
			// The forwarding appender is declared before its member.
			{Name: "fan", Type: "forwarding", Appenders: []string{"mem"}},
			{Name: "mem", Type: "memory"},
		},
	}
	h, err := config.Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Shutdown()

	fan, ok := h.Root().Appender("fan").(*appenders.Forwarding)
	if !ok {
		t.Fatalf("root appender is %T", h.Root().Appender("fan"))
	}
	if fan.Appender("mem") == nil {
		t.Fatal("forward-declared member was not resolved")
	}
}

func TestApplySkipsBadLevelAndKeepsPrior(t *testing.T) {
	var buf bytes.Buffer
	diag.SetOutput(&buf)
	defer diag.SetOutput(nil)

	h := treelog.New()
	defer h.Shutdown()
	h.GetLogger("svc").SetLevel(treelog.LevelWarn)

	err := config.Apply(h, config.Config{
		Loggers: []config.LoggerSettings{
			{Name: "svc", Level: "extreme"},
		},
	})
	if err != nil {
		t.Fatalf("bad level must not fail the whole apply: %v", err)
	}
	if got := h.GetLogger("svc").EffectiveLevel(); got != treelog.LevelWarn {
		t.Fatalf("prior level should be retained, got %v", got)
	}
	if !strings.Contains(buf.String(), "extreme") {
		t.Fatalf("bad level should be reported internally, got %q", buf.String())
	}
}

func TestApplySkipsUnknownAppenderReference(t *testing.T) {
	var buf bytes.Buffer
	diag.SetOutput(&buf)
	defer diag.SetOutput(nil)

	h := treelog.New()
	defer h.Shutdown()

	err := config.Apply(h, config.Config{
		Root: config.RootSettings{Appenders: []string{"ghost"}},
	})
	if err != nil {
		t.Fatalf("dangling reference must not fail the whole apply: %v", err)
	}
	if got := h.Root().Appenders(); len(got) != 0 {
		t.Fatalf("nothing should be attached, got %d", len(got))
	}
	if !strings.Contains(buf.String(), "ghost") {
		t.Fatalf("dangling reference should be reported internally, got %q", buf.String())
	}
}

func TestApplyStructuralFailure(t *testing.T) {
	h := treelog.New()
	defer h.Shutdown()

	err := config.Apply(h, config.Config{
		Appenders: []config.AppenderSettings{
			{Name: "broken", Type: "console", Pattern: "%q"},
		},
	})
	if err == nil {
		t.Fatal("a malformed pattern is structural and must fail")
	}
}

func TestApplyAppenderThreshold(t *testing.T) {
	cfg := config.Config{
		Root: config.RootSettings{Level: "debug", Appenders: []string{"file"}},
		Appenders: []config.AppenderSettings{
			{Name: "file", Type: "file", Path: "", Threshold: "error"},
		},
	}
	// Route through a real file so the threshold setter path is exercised.
	cfg.Appenders[0].Path = filepath.Join(t.TempDir(), "app.log")

	h, err := config.Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Shutdown()

	a, ok := h.Root().Appender("file").(*appenders.File)
	if !ok {
		t.Fatalf("root appender is %T", h.Root().Appender("file"))
	}
	if a.Path() != cfg.Appenders[0].Path {
		t.Fatalf("unexpected path %q", a.Path())
	}
}
