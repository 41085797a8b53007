package layout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/evanschultz/dragboard/internal/board"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
)

// GridConfig fixes the geometry of a Grid. Units are whatever the host draws in:
// pixels for a canvas, cells for a terminal.
type GridConfig struct {
	OriginX        float64 `toml:"origin_x"`
	OriginY        float64 `toml:"origin_y"`
	ColumnWidth    float64 `toml:"column_width"`
	ColumnGap      float64 `toml:"column_gap"`
	HeaderHeight   float64 `toml:"header_height"`
	RowHeight      float64 `toml:"row_height"`
	RowGap         float64 `toml:"row_gap"`
	ViewportWidth  float64 `toml:"viewport_width"`
	ViewportHeight float64 `toml:"viewport_height"`
}

// DefaultGridConfig returns pixel-sized lanes on a 1280x720 viewport.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		ColumnWidth:    280,
		ColumnGap:      16,
		HeaderHeight:   48,
		RowHeight:      96,
		RowGap:         8,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

// ErrInvalidGrid wraps every grid config validation failure.
var ErrInvalidGrid = errors.New("invalid grid config")

// Validate checks that every lane and card has a positive size.
func (c GridConfig) Validate() error {
	switch {
	case c.ColumnWidth <= 0:
		return fmt.Errorf("%w: column_width must be positive", ErrInvalidGrid)
	case c.RowHeight <= 0:
		return fmt.Errorf("%w: row_height must be positive", ErrInvalidGrid)
	case c.ColumnGap < 0 || c.RowGap < 0 || c.HeaderHeight < 0:
		return fmt.Errorf("%w: gaps and header height must be non-negative", ErrInvalidGrid)
	case c.ViewportWidth <= 0 || c.ViewportHeight <= 0:
		return fmt.Errorf("%w: viewport must be positive", ErrInvalidGrid)
	}
	return nil
}

type rowPlace struct {
	columnID string
	slot     int
}

// Grid lays columns out side by side and rows as equal cards inside them.
// It is a Provider and a drag.ScrollController, and is safe for concurrent use.
type Grid struct {
	mu           sync.RWMutex
	cfg          GridConfig
	columnPos    map[string]int
	columnRows   map[string]int
	rowPlace     map[string]rowPlace
	columnScroll map[string]float64
	boardScroll  float64
}

// NewGrid constructs an empty grid.
func NewGrid(cfg GridConfig) *Grid {
	return &Grid{
		cfg:          cfg,
		columnPos:    map[string]int{},
		columnRows:   map[string]int{},
		rowPlace:     map[string]rowPlace{},
		columnScroll: map[string]float64{},
	}
}

// Config returns the current geometry.
func (g *Grid) Config() GridConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// Resize changes the viewport and clamps scroll offsets to the new bounds.
func (g *Grid) Resize(width, height float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.ViewportWidth = width
	g.cfg.ViewportHeight = height
	g.clampLocked()
}

// Sync records where every column and row currently sits.
func (g *Grid) Sync(columns []domain.Column) {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.columnPos)
	clear(g.columnRows)
	clear(g.rowPlace)
	scroll := make(map[string]float64, len(columns))
	for pos, col := range columns {
		g.columnPos[col.ID] = pos
		g.columnRows[col.ID] = len(col.Rows)
		scroll[col.ID] = g.columnScroll[col.ID]
		for _, row := range col.Rows {
			g.rowPlace[row.ID] = rowPlace{columnID: col.ID, slot: row.Index}
		}
	}
	g.columnScroll = scroll
	g.clampLocked()
}

// Attach keeps the grid in step with b through its observers and publishes
// scroll bounds back to it. Call it from the goroutine that owns b.
func (g *Grid) Attach(b *board.Board) (detach func()) {
	var reloads []func()
	resync := func() {
		g.Sync(b.Columns())
		g.publish(b)
	}
	rewire := func() {
		for _, unsubscribe := range reloads {
			unsubscribe()
		}
		reloads = reloads[:0]
		for _, id := range b.ColumnIDs() {
			reloads = append(reloads, b.AddListener(id, board.EventReload, resync))
		}
		resync()
	}
	stop := b.OnStructureChange(rewire)
	rewire()
	return func() {
		stop()
		for _, unsubscribe := range reloads {
			unsubscribe()
		}
		reloads = nil
	}
}

// Publish pushes the grid's scroll offsets and bounds into b.
func (g *Grid) Publish(b *board.Board) {
	g.publish(b)
}

func (g *Grid) publish(b *board.Board) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b.SetBoardScroll(g.boardScroll, g.maxBoardScrollLocked())
	for id, rows := range g.columnRows {
		_ = b.SetColumnScroll(id, g.columnScroll[id], g.maxColumnScrollLocked(rows))
	}
}

// Measure returns the entity's rectangle in viewport coordinates.
func (g *Grid) Measure(ctx context.Context, ref domain.EntityRef) (domain.Rect, error) {
	if err := ctx.Err(); err != nil {
		return domain.Rect{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch ref.Kind {
	case domain.EntityColumn:
		pos, ok := g.columnPos[ref.ID]
		if !ok {
			return domain.Rect{}, fmt.Errorf("%s: %w", ref, ErrUnknownEntity)
		}
		return g.columnRectLocked(pos), nil
	case domain.EntityRow:
		place, ok := g.rowPlace[ref.ID]
		if !ok {
			return domain.Rect{}, fmt.Errorf("%s: %w", ref, ErrUnknownEntity)
		}
		col := g.columnRectLocked(g.columnPos[place.columnID])
		return domain.Rect{
			X:      col.X,
			Y:      col.Y + g.cfg.HeaderHeight + float64(place.slot)*(g.cfg.RowHeight+g.cfg.RowGap) - g.columnScroll[place.columnID],
			Width:  col.Width,
			Height: g.cfg.RowHeight,
		}, nil
	default:
		return domain.Rect{}, fmt.Errorf("%s: %w", ref, ErrUnknownEntity)
	}
}

// ScrollTo moves the board container or one column. Offsets are clamped.
func (g *Grid) ScrollTo(ctx context.Context, target drag.ScrollTarget, offset float64, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if target.ColumnID == "" {
		g.boardScroll = clamp(offset, g.maxBoardScrollLocked())
		return nil
	}
	rows, ok := g.columnRows[target.ColumnID]
	if !ok {
		return fmt.Errorf("scroll column %q: %w", target.ColumnID, ErrUnknownEntity)
	}
	g.columnScroll[target.ColumnID] = clamp(offset, g.maxColumnScrollLocked(rows))
	return nil
}

// BoardScroll returns the board container offset.
func (g *Grid) BoardScroll() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.boardScroll
}

// ColumnScroll returns one column's offset.
func (g *Grid) ColumnScroll(columnID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.columnScroll[columnID]
}

func (g *Grid) columnRectLocked(pos int) domain.Rect {
	return domain.Rect{
		X:      g.cfg.OriginX + float64(pos)*(g.cfg.ColumnWidth+g.cfg.ColumnGap) - g.boardScroll,
		Y:      g.cfg.OriginY,
		Width:  g.cfg.ColumnWidth,
		Height: g.columnHeightLocked(),
	}
}

func (g *Grid) columnHeightLocked() float64 {
	return max(0, g.cfg.ViewportHeight-g.cfg.OriginY)
}

func (g *Grid) maxBoardScrollLocked() float64 {
	n := float64(len(g.columnPos))
	if n == 0 {
		return 0
	}
	content := g.cfg.OriginX + n*g.cfg.ColumnWidth + (n-1)*g.cfg.ColumnGap
	return max(0, content-g.cfg.ViewportWidth)
}

func (g *Grid) maxColumnScrollLocked(rows int) float64 {
	content := g.cfg.HeaderHeight + float64(rows)*(g.cfg.RowHeight+g.cfg.RowGap)
	return max(0, content-g.columnHeightLocked())
}

func (g *Grid) clampLocked() {
	g.boardScroll = clamp(g.boardScroll, g.maxBoardScrollLocked())
	for id, offset := range g.columnScroll {
		g.columnScroll[id] = clamp(offset, g.maxColumnScrollLocked(g.columnRows[id]))
	}
}

func clamp(offset, upper float64) float64 {
	return min(max(offset, 0), max(upper, 0))
}
