// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
	"github.com/evanschultz/dragboard/internal/layout"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the full configuration file.
type Config struct {
	Database DatabaseConfig    `toml:"database"`
	Logging  LoggingConfig     `toml:"logging"`
	Board    BoardConfig       `toml:"board"`
	Drag     DragConfig        `toml:"drag"`
	TUI      TUIConfig         `toml:"tui"`
	Server   ServerConfig      `toml:"server"`
	Grid     layout.GridConfig `toml:"grid"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig selects the level and the optional dev-mode log file.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// BoardConfig seeds an empty board and sets the pointer hit margin.
// Seed columns are only read from the file; defaults live in SeedColumns.
type BoardConfig struct {
	HitThreshold float64        `toml:"hit_threshold"`
	SeedColumns  []ColumnConfig `toml:"seed_columns"`
}

type ColumnConfig struct {
	Name     string `toml:"name"`
	WIPLimit int    `toml:"wip_limit"`
}

// DragConfig expresses scroll thresholds and steps as fractions of the viewport width.
type DragConfig struct {
	ScrollThreshold float64 `toml:"scroll_threshold"`
	ScrollStep      float64 `toml:"scroll_step"`
	SpeedFactor     float64 `toml:"speed_factor"`
	RowDelay        string  `toml:"row_delay"`
	ColumnDelay     string  `toml:"column_delay"`
}

// TUIConfig sizes the terminal board in cells.
type TUIConfig struct {
	ColumnWidth      int     `toml:"column_width"`
	CardHeight       int     `toml:"card_height"`
	HitThreshold     float64 `toml:"hit_threshold"`
	ShowDescriptions bool    `toml:"show_descriptions"`
	RowDelay         string  `toml:"row_delay"`
	ColumnDelay      string  `toml:"column_delay"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

func defaultSeedColumns() []ColumnConfig {
	return []ColumnConfig{
		{Name: "To Do"},
		{Name: "In Progress", WIPLimit: 3},
		{Name: "Done"},
	}
}

// Default returns the built-in configuration for dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     "log",
			},
		},
		Board: BoardConfig{
			HitThreshold: 35,
		},
		Drag: DragConfig{
			ScrollThreshold: 0.15,
			ScrollStep:      0.10,
			SpeedFactor:     1,
			RowDelay:        "1s",
			ColumnDelay:     "1s",
		},
		TUI: TUIConfig{
			ColumnWidth:      28,
			CardHeight:       3,
			HitThreshold:     1,
			ShowDescriptions: false,
			RowDelay:         "300ms",
			ColumnDelay:      "500ms",
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Grid: layout.DefaultGridConfig(),
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	if c.Board.HitThreshold < 0 {
		return errors.New("board.hit_threshold must be >= 0")
	}
	seen := map[string]struct{}{}
	for idx, col := range c.Board.SeedColumns {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			return fmt.Errorf("board.seed_columns[%d].name is required", idx)
		}
		if col.WIPLimit < 0 {
			return fmt.Errorf("board.seed_columns[%d].wip_limit must be >= 0", idx)
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("board.seed_columns[%d].name is duplicated: %s", idx, name)
		}
		seen[key] = struct{}{}
	}

	switch {
	case c.Drag.ScrollThreshold < 0 || c.Drag.ScrollThreshold > 0.5:
		return errors.New("drag.scroll_threshold must be within [0, 0.5]")
	case c.Drag.ScrollStep < 0 || c.Drag.ScrollStep > 1:
		return errors.New("drag.scroll_step must be within [0, 1]")
	case c.Drag.SpeedFactor <= 0:
		return errors.New("drag.speed_factor must be positive")
	}
	for name, raw := range map[string]string{
		"drag.row_delay":    c.Drag.RowDelay,
		"drag.column_delay": c.Drag.ColumnDelay,
		"tui.row_delay":     c.TUI.RowDelay,
		"tui.column_delay":  c.TUI.ColumnDelay,
	} {
		if _, err := parseDelay(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.TUI.ColumnWidth < 8 {
		return errors.New("tui.column_width must be >= 8")
	}
	if c.TUI.CardHeight < 1 {
		return errors.New("tui.card_height must be >= 1")
	}
	if c.TUI.HitThreshold < 0 {
		return errors.New("tui.hit_threshold must be >= 0")
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	return nil
}

// parseDelay reads a long-press delay. Empty means no delay.
func parseDelay(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("delay %q must be >= 0", raw)
	}
	return d, nil
}

// Tuning builds session tuning for a viewport of the given width.
func (c Config) Tuning(viewportWidth float64) drag.Tuning {
	t := drag.DefaultTuning(viewportWidth)
	t.XScrollThreshold = viewportWidth * c.Drag.ScrollThreshold
	t.YScrollThreshold = viewportWidth * c.Drag.ScrollThreshold
	t.HorizontalStep = viewportWidth * c.Drag.ScrollStep
	t.VerticalStep = viewportWidth * c.Drag.ScrollStep
	t.DragSpeedFactor = c.Drag.SpeedFactor
	t.HitThreshold = c.Board.HitThreshold
	t.DelayRow, _ = parseDelay(c.Drag.RowDelay)
	t.DelayColumn, _ = parseDelay(c.Drag.ColumnDelay)
	return t
}

// TUITuning is Tuning measured in terminal cells.
func (c Config) TUITuning(viewportWidth float64) drag.Tuning {
	t := c.Tuning(viewportWidth)
	t.HitThreshold = c.TUI.HitThreshold
	t.DelayRow, _ = parseDelay(c.TUI.RowDelay)
	t.DelayColumn, _ = parseDelay(c.TUI.ColumnDelay)
	return t
}

// SeedColumns returns the columns written to an empty board. An empty list
// seeds the built-in To Do / In Progress / Done lanes.
func (c Config) SeedColumns() []domain.ColumnData {
	cols := c.Board.SeedColumns
	if len(cols) == 0 {
		cols = defaultSeedColumns()
	}
	out := make([]domain.ColumnData, 0, len(cols))
	for _, col := range cols {
		out = append(out, domain.ColumnData{Name: strings.TrimSpace(col.Name), WIPLimit: col.WIPLimit})
	}
	return out
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefault writes cfg to path unless a file already exists there.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
