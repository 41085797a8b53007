// Package drag runs the pointer-driven drag session over a board: pickup,
// tracking with hit-tests and reorders, autoscroll and the commit/cancel teardown.
package drag

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/board"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/geometry"
)

var (
	ErrDragInProgress = errors.New("drag already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
)

// State is the session state.
type State int

const (
	StateIdle State = iota
	StateDraggingRow
	StateDraggingColumn
)

// String returns a log-friendly state name.
func (s State) String() string {
	switch s {
	case StateDraggingRow:
		return "dragging_row"
	case StateDraggingColumn:
		return "dragging_column"
	default:
		return "idle"
	}
}

// HoverView is what a renderer needs to draw the floating preview.
type HoverView struct {
	Active bool
	Item   domain.HoverItem
	DX     float64
	DY     float64
}

// Rect returns the preview rectangle: the pickup rectangle moved by the pointer translation.
func (h HoverView) Rect() (domain.Rect, bool) {
	if !h.Active || h.Item.Layout == nil {
		return domain.Rect{}, false
	}
	return h.Item.Layout.Translate(h.DX, h.DY), true
}

// Session drives one board. It is not safe for concurrent use; run it on a Loop.
type Session struct {
	board    *board.Board
	resolver geometry.Resolver
	tuning   Tuning
	scroller ScrollController
	logger   *log.Logger

	onDragStart func(domain.HoverItem)
	onDragEnd   func(domain.DragResult)

	state       State
	hover       domain.HoverItem
	awaitLayout bool
	start       domain.Point
	pointer     domain.Point
}

// Option configures a Session.
type Option func(*Session)

// WithTuning replaces the default tuning.
func WithTuning(t Tuning) Option {
	return func(s *Session) {
		s.tuning = t
	}
}

// WithScrollController enables autoscroll.
func WithScrollController(c ScrollController) Option {
	return func(s *Session) {
		s.scroller = c
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDragStart registers the pickup callback.
func WithDragStart(fn func(domain.HoverItem)) Option {
	return func(s *Session) {
		s.onDragStart = fn
	}
}

// WithDragEnd registers the callback fired exactly once per drag, on drop or cancel.
func WithDragEnd(fn func(domain.DragResult)) Option {
	return func(s *Session) {
		s.onDragEnd = fn
	}
}

// NewSession constructs an idle session over b.
func NewSession(b *board.Board, opts ...Option) *Session {
	s := &Session{
		board:  b,
		tuning: DefaultTuning(0),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = geometry.NewResolver(s.tuning.HitThreshold)
	return s
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Tuning returns the active tuning.
func (s *Session) Tuning() Tuning {
	return s.tuning
}

// SetTuning swaps tuning between or during drags.
func (s *Session) SetTuning(t Tuning) {
	s.tuning = t
	s.resolver = geometry.NewResolver(t.HitThreshold)
}

// Hover returns the hover item and the pointer translation since pickup.
func (s *Session) Hover() HoverView {
	if s.state == StateIdle {
		return HoverView{}
	}
	item := s.hover
	item.Layout = domain.CloneRect(s.hover.Layout)
	return HoverView{
		Active: true,
		Item:   item,
		DX:     s.pointer.X - s.start.X,
		DY:     s.pointer.Y - s.start.Y,
	}
}

// BeginRow picks up a row pressed at the given point.
func (s *Session) BeginRow(ctx context.Context, rowID string, at domain.Point) error {
	if s.state != StateIdle {
		return ErrDragInProgress
	}
	row, ok := s.board.Row(rowID)
	if !ok {
		return fmt.Errorf("row %q: %w", rowID, board.ErrNotFound)
	}
	if err := s.board.HideRow(rowID); err != nil {
		return fmt.Errorf("hide row: %w", err)
	}
	origin := domain.Position{ColumnID: row.ColumnID, Index: row.Index}
	s.begin(ctx, StateDraggingRow, domain.HoverItem{
		Kind:   domain.DragRow,
		ID:     row.ID,
		Layout: row.Layout,
		Row:    row.Data,
		Origin: origin,
		Now:    origin,
	}, at)
	return nil
}

// BeginColumn picks up a column pressed at the given point.
func (s *Session) BeginColumn(ctx context.Context, columnID string, at domain.Point) error {
	if s.state != StateIdle {
		return ErrDragInProgress
	}
	col, ok := s.board.Column(columnID)
	if !ok {
		return fmt.Errorf("column %q: %w", columnID, board.ErrNotFound)
	}
	if err := s.board.HideColumn(columnID); err != nil {
		return fmt.Errorf("hide column: %w", err)
	}
	origin := domain.Position{ColumnID: col.ID, Index: col.Index}
	s.begin(ctx, StateDraggingColumn, domain.HoverItem{
		Kind:   domain.DragColumn,
		ID:     col.ID,
		Layout: col.Layout,
		Column: col.Data,
		Origin: origin,
		Now:    origin,
	}, at)
	return nil
}

// begin enters the dragging state, then asks for a fresh rectangle of the
// picked-up entity. The first one to arrive replaces the pickup rectangle.
func (s *Session) begin(ctx context.Context, state State, item domain.HoverItem, at domain.Point) {
	s.state = state
	s.hover = item
	s.awaitLayout = true
	s.start = at
	s.pointer = at
	s.board.MeasureEntity(ctx, s.hoverRef())
	s.logger.Debug("drag started", "kind", item.Kind, "id", item.ID, "column_id", item.Origin.ColumnID, "index", item.Origin.Index)
	if s.onDragStart != nil {
		s.onDragStart(s.Hover().Item)
	}
}

// ApplyMeasurement stores a measured rectangle on the board. The first
// measurement of the dragged entity after pickup becomes its hover rectangle.
func (s *Session) ApplyMeasurement(ref domain.EntityRef, rect domain.Rect) bool {
	if !s.board.ApplyMeasurement(ref, rect) {
		return false
	}
	if s.state != StateIdle && s.awaitLayout && ref.ID == s.hover.ID && ref.Kind == s.hoverRef().Kind {
		s.hover.Layout = &rect
		s.awaitLayout = false
	}
	return true
}

func (s *Session) hoverRef() domain.EntityRef {
	if s.hover.Kind == domain.DragColumn {
		return domain.ColumnRef(s.hover.ID)
	}
	return domain.RowRef(s.hover.ID)
}

// Track processes one pointer sample. Reorders that cannot run because
// rectangles are missing are skipped. Scroll errors are returned after any reorder applied.
func (s *Session) Track(ctx context.Context, x, y float64) error {
	if s.state == StateIdle {
		return ErrNotDragging
	}
	if x == 0 && y == 0 {
		return nil
	}
	s.pointer = domain.Point{X: x, Y: y}
	switch s.state {
	case StateDraggingRow:
		col, hit := s.trackRow(ctx, x, y)
		return s.autoscroll(ctx, x, y, col, hit)
	default:
		s.trackColumn(ctx, x, y)
		return s.autoscroll(ctx, x, y, domain.Column{}, false)
	}
}

func (s *Session) trackRow(ctx context.Context, x, y float64) (domain.Column, bool) {
	col, ok := s.resolver.FindColumnAt(s.board.Columns(), x, y)
	if !ok {
		return domain.Column{}, false
	}
	cur, ok := s.board.Row(s.hover.ID)
	if !ok {
		return col, true
	}
	if col.ID != cur.ColumnID {
		if err := s.board.MoveToOtherColumn(cur.ID, cur.ColumnID, col.ID); err != nil {
			s.logger.Debug("transfer skipped", "row_id", cur.ID, "to_column_id", col.ID, "err", err)
			return col, true
		}
		s.syncHoverRow()
		s.board.MeasureColumnLayouts(ctx)
		s.logger.Debug("row transferred", "row_id", cur.ID, "from_column_id", cur.ColumnID, "to_column_id", col.ID)
		return col, true
	}
	target, ok := s.resolver.FindRowAt(col.Rows, x, y, s.hover.Layout)
	if !ok || target.ID == cur.ID {
		return col, true
	}
	if err := s.board.SwitchItemsBetween(col.ID, cur.Index, target.Index); err != nil {
		s.logger.Debug("swap skipped", "row_id", cur.ID, "from", cur.Index, "to", target.Index, "err", err)
		return col, true
	}
	s.syncHoverRow()
	s.logger.Debug("row reordered", "row_id", cur.ID, "column_id", col.ID, "from", cur.Index, "to", target.Index)
	return col, true
}

func (s *Session) syncHoverRow() {
	if row, ok := s.board.Row(s.hover.ID); ok {
		s.hover.Now = domain.Position{ColumnID: row.ColumnID, Index: row.Index}
	}
}

func (s *Session) trackColumn(ctx context.Context, x, y float64) {
	target, ok := s.resolver.FindColumnAtStrict(s.board.Columns(), x, y)
	if !ok || target.ID == s.hover.ID {
		return
	}
	cur, ok := s.board.Column(s.hover.ID)
	if !ok {
		return
	}
	if err := s.board.SwitchColumnItemsBetween(cur.Index, target.Index); err != nil {
		s.logger.Debug("column swap skipped", "column_id", cur.ID, "from", cur.Index, "to", target.Index, "err", err)
		return
	}
	s.hover.Now = domain.Position{ColumnID: cur.ID, Index: target.Index}
	s.board.MeasureColumnLayouts(ctx)
	s.logger.Debug("column reordered", "column_id", cur.ID, "from", cur.Index, "to", target.Index)
}

func (s *Session) autoscroll(ctx context.Context, x, y float64, col domain.Column, hit bool) error {
	if s.scroller == nil {
		return nil
	}
	t := s.tuning
	if t.ViewportWidth > 0 {
		offset, _ := s.board.BoardScroll()
		step := t.HorizontalStep * t.DragSpeedFactor
		next := offset
		switch {
		case x+t.XScrollThreshold > t.ViewportWidth:
			next = offset + step
		case x < t.XScrollThreshold:
			next = offset - step
		}
		// Without a published maximum the host clamps the far edge itself.
		if upper, known := s.board.BoardScrollLimit(); known {
			next = clampOffset(next, upper)
		} else {
			next = max(next, 0)
		}
		if next != offset {
			if err := s.scroller.ScrollTo(ctx, ScrollTarget{}, next, true); err != nil {
				return fmt.Errorf("scroll board: %w", err)
			}
			s.board.SetBoardScroll(next, -1)
			s.board.MeasureColumnLayouts(ctx)
			s.logger.Debug("board autoscrolled", "offset", next)
		}
	}
	if s.state != StateDraggingRow || !hit || col.Layout == nil {
		return nil
	}
	step := t.VerticalStep * t.DragSpeedFactor
	next := col.ScrollOffset
	switch {
	case y > col.Layout.Bottom()-t.YScrollThreshold:
		next = col.ScrollOffset + step
	case y < col.Layout.Y+t.YScrollThreshold:
		next = col.ScrollOffset - step
	}
	if next = clampOffset(next, col.MaxScrollOffset); next == col.ScrollOffset {
		return nil
	}
	if err := s.scroller.ScrollTo(ctx, ScrollTarget{ColumnID: col.ID}, next, true); err != nil {
		return fmt.Errorf("scroll column %q: %w", col.ID, err)
	}
	if err := s.board.SetColumnScroll(col.ID, next, -1); err != nil {
		return err
	}
	s.board.MeasureColumnLayouts(ctx)
	s.logger.Debug("column autoscrolled", "column_id", col.ID, "offset", next)
	return nil
}

func clampOffset(offset, upper float64) float64 {
	return min(max(offset, 0), max(upper, 0))
}

// SyncBoardScroll adopts a board offset the host scrolled to by itself.
func (s *Session) SyncBoardScroll(ctx context.Context, offset float64) {
	s.board.SetBoardScroll(offset, -1)
	s.board.MeasureColumnLayouts(ctx)
}

// End drops the dragged entity where it currently sits.
func (s *Session) End() (domain.DragResult, error) {
	return s.finish("ended")
}

// Cancel stops the drag. The entity stays at its last position; the teardown matches End.
func (s *Session) Cancel() (domain.DragResult, error) {
	return s.finish("cancelled")
}

func (s *Session) finish(how string) (domain.DragResult, error) {
	if s.state == StateIdle {
		return domain.DragResult{}, ErrNotDragging
	}
	s.syncHoverNow()
	item := s.Hover().Item
	res := domain.DragResult{
		Kind:   item.Kind,
		ItemID: item.ID,
		From:   item.Origin,
		To:     item.Now,
		Item:   item,
	}
	s.start, s.pointer = domain.Point{}, domain.Point{}
	if s.onDragEnd != nil {
		s.onDragEnd(res)
	}
	s.board.UpdateOriginalData()
	if res.Kind == domain.DragColumn {
		_ = s.board.ShowColumn(res.ItemID)
	} else {
		_ = s.board.ShowRow(res.ItemID)
	}
	s.board.ClearHidden()
	s.state = StateIdle
	s.hover = domain.HoverItem{}
	s.awaitLayout = false
	s.logger.Debug("drag "+how, "kind", res.Kind, "id", res.ItemID, "moved", res.Moved(), "to_column_id", res.To.ColumnID, "to_index", res.To.Index)
	return res, nil
}

// syncHoverNow refreshes the current position in case programmatic moves ran mid-drag.
func (s *Session) syncHoverNow() {
	if s.hover.Kind == domain.DragColumn {
		if col, ok := s.board.Column(s.hover.ID); ok {
			s.hover.Now = domain.Position{ColumnID: col.ID, Index: col.Index}
		}
		return
	}
	s.syncHoverRow()
}
