package tui

import (
	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/drag"
	"github.com/evanschultz/dragboard/internal/layout"
)

// Fixed screen regions in cells.
const (
	boardTop           = 1
	footerHeight       = 2
	columnHeaderHeight = 3
	columnGap          = 1
)

// CardConfig sizes columns and cards in terminal cells.
type CardConfig struct {
	ColumnWidth      int
	CardHeight       int
	ShowDescriptions bool
}

// Option configures a Model.
type Option func(*Model)

// DefaultCardConfig returns the default card sizing.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		ColumnWidth:      28,
		CardHeight:       3,
		ShowDescriptions: false,
	}
}

// cardHeight adds a line per card when descriptions are shown.
func (c CardConfig) cardHeight() int {
	h := max(3, c.CardHeight)
	if c.ShowDescriptions {
		h++
	}
	return h
}

// GridConfig returns the cell geometry the board is laid out with on a
// width x height terminal. Hosts pass it to layout.NewGrid.
func (c CardConfig) GridConfig(width, height int) layout.GridConfig {
	return layout.GridConfig{
		OriginY:        boardTop,
		ColumnWidth:    float64(max(8, c.ColumnWidth)),
		ColumnGap:      columnGap,
		HeaderHeight:   columnHeaderHeight,
		RowHeight:      float64(c.cardHeight()),
		ViewportWidth:  float64(max(1, width)),
		ViewportHeight: float64(max(boardTop+1, height-footerHeight)),
	}
}

func WithCardConfig(cfg CardConfig) Option {
	return func(m *Model) {
		m.cards = cfg
	}
}

// WithKeyConfig overrides default key bindings.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithTuning derives drag tuning from the terminal width on every resize.
func WithTuning(fn func(viewportWidth float64) drag.Tuning) Option {
	return func(m *Model) {
		m.tuningFor = fn
	}
}

// WithClipboard replaces the clipboard writer used by the yank binding.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}
