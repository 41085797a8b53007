package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/dragboard.db")
	if cfg.Database.Path != "/tmp/dragboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(cfg.SeedColumns()) != 3 || cfg.Board.HitThreshold != 35 {
		t.Fatalf("unexpected board defaults %#v", cfg.Board)
	}
	if cfg.Server.APIEndpoint != "/api/v1" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server defaults %#v", cfg.Server)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/dragboard.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/custom/dragboard.db"

[logging]
level = "debug"

[board]
hit_threshold = 20

[[board.seed_columns]]
name = "Backlog"

[[board.seed_columns]]
name = "Shipping"
wip_limit = 2

[drag]
scroll_threshold = 0.2
scroll_step = 0.05
speed_factor = 2
row_delay = "250ms"
column_delay = "0s"

[tui]
column_width = 32
show_descriptions = true

[grid]
column_width = 300
viewport_width = 1000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/dragboard.db" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected overrides %#v %#v", cfg.Database, cfg.Logging)
	}
	seeds := cfg.SeedColumns()
	if len(seeds) != 2 || seeds[1].Name != "Shipping" || seeds[1].WIPLimit != 2 {
		t.Fatalf("unexpected seed columns %#v", seeds)
	}
	if cfg.TUI.ColumnWidth != 32 || !cfg.TUI.ShowDescriptions || cfg.TUI.CardHeight != 3 {
		t.Fatalf("unexpected tui config %#v", cfg.TUI)
	}
	if cfg.Grid.ColumnWidth != 300 || cfg.Grid.RowHeight != 96 {
		t.Fatalf("expected partial grid override, got %#v", cfg.Grid)
	}

	tuning := cfg.Tuning(1000)
	if tuning.XScrollThreshold != 200 || tuning.HorizontalStep != 50 || tuning.DragSpeedFactor != 2 {
		t.Fatalf("unexpected tuning %#v", tuning)
	}
	if tuning.HitThreshold != 20 || tuning.DelayRow != 250*time.Millisecond || tuning.DelayColumn != 0 {
		t.Fatalf("unexpected tuning %#v", tuning)
	}
	if err := tuning.Validate(); err != nil {
		t.Fatalf("tuning Validate() error = %v", err)
	}

	tui := cfg.TUITuning(100)
	if tui.HitThreshold != 1 || tui.DelayRow != 300*time.Millisecond || tui.XScrollThreshold != 20 {
		t.Fatalf("unexpected tui tuning %#v", tui)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"database path":  func(c *Config) { c.Database.Path = " " },
		"logging.level":  func(c *Config) { c.Logging.Level = "loud" },
		"dev_file.dir":   func(c *Config) { c.Logging.DevFile.Dir = "" },
		"seed name":      func(c *Config) { c.Board.SeedColumns = []ColumnConfig{{Name: ""}} },
		"seed duplicate": func(c *Config) { c.Board.SeedColumns = []ColumnConfig{{Name: "To Do"}, {Name: "to do"}} },
		"seed wip":       func(c *Config) { c.Board.SeedColumns = []ColumnConfig{{Name: "x", WIPLimit: -1}} },
		"threshold":      func(c *Config) { c.Drag.ScrollThreshold = 0.9 },
		"speed":          func(c *Config) { c.Drag.SpeedFactor = 0 },
		"delay":          func(c *Config) { c.Drag.RowDelay = "soon" },
		"negative delay": func(c *Config) { c.TUI.ColumnDelay = "-1s" },
		"column width":   func(c *Config) { c.TUI.ColumnWidth = 2 },
		"grid":           func(c *Config) { c.Grid.RowHeight = 0 },
	}
	for name, mutate := range cases {
		cfg := Default("/tmp/dragboard.db")
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadRejectsInvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[drag\nspeed_factor = 1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/dragboard.db")); err == nil || !strings.Contains(err.Error(), "decode toml") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	defaults := Default("/tmp/dragboard.db")
	wrote, err := WriteDefault(path, defaults)
	if err != nil || !wrote {
		t.Fatalf("WriteDefault() = %v, %v", wrote, err)
	}
	wrote, err = WriteDefault(path, defaults)
	if err != nil || wrote {
		t.Fatalf("second WriteDefault() = %v, %v, want no write", wrote, err)
	}
	cfg, err := Load(path, Default("/elsewhere.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/dragboard.db" || len(cfg.SeedColumns()) != 3 {
		t.Fatalf("unexpected round trip %#v", cfg)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[drag]\nspeed_factor = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	changes := make(chan Config, 4)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, Default("/tmp/dragboard.db"), func(cfg Config) { changes <- cfg },
			WithDebounce(20*time.Millisecond),
			WithWatchErrorHandler(func(err error) { errs <- err }),
			func(o *watchOptions) { o.ready = func() { close(ready) } },
		)
	}()
	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("Watch() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	if err := os.WriteFile(path, []byte("[drag]\nspeed_factor = 3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	select {
	case cfg := <-changes:
		if cfg.Drag.SpeedFactor != 3 {
			t.Fatalf("unexpected reloaded speed factor %v", cfg.Drag.SpeedFactor)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if err := os.WriteFile(path, []byte("[drag]\nspeed_factor = 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	select {
	case err := <-errs:
		if err == nil || errors.Is(err, ErrConfigRemoved) {
			t.Fatalf("expected validation error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
}
