package drag

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/evanschultz/dragboard/internal/board"
	"github.com/evanschultz/dragboard/internal/domain"
)

// syncMeasurer answers measurement requests immediately: 100-wide lanes,
// 300-high columns and 50-high rows, shifted by the board's scroll offsets.
type syncMeasurer struct {
	b        *board.Board
	s        *Session
	requests int
}

func (m *syncMeasurer) RequestMeasure(_ context.Context, refs []domain.EntityRef) {
	m.requests++
	for _, ref := range refs {
		rect, ok := m.measure(ref)
		if !ok {
			continue
		}
		if m.s != nil {
			m.s.ApplyMeasurement(ref, rect)
		} else {
			m.b.ApplyMeasurement(ref, rect)
		}
	}
}

func (m *syncMeasurer) measure(ref domain.EntityRef) (domain.Rect, bool) {
	boardScroll, _ := m.b.BoardScroll()
	switch ref.Kind {
	case domain.EntityColumn:
		col, ok := m.b.Column(ref.ID)
		if !ok {
			return domain.Rect{}, false
		}
		return domain.Rect{X: float64(col.Index)*100 - boardScroll, Width: 100, Height: 300}, true
	case domain.EntityRow:
		row, ok := m.b.Row(ref.ID)
		if !ok {
			return domain.Rect{}, false
		}
		col, _ := m.b.Column(row.ColumnID)
		return domain.Rect{
			X:      float64(col.Index)*100 - boardScroll,
			Y:      float64(row.Index)*50 - col.ScrollOffset,
			Width:  100,
			Height: 50,
		}, true
	}
	return domain.Rect{}, false
}

type scrollCall struct {
	target ScrollTarget
	offset float64
}

type recordingScroller struct {
	calls []scrollCall
	err   error
}

func (r *recordingScroller) ScrollTo(_ context.Context, target ScrollTarget, offset float64, animated bool) error {
	if r.err != nil {
		return r.err
	}
	if !animated {
		return errors.New("expected animated scroll")
	}
	r.calls = append(r.calls, scrollCall{target: target, offset: offset})
	return nil
}

type fixture struct {
	b       *board.Board
	s       *Session
	m       *syncMeasurer
	scroll  *recordingScroller
	started []domain.HoverItem
	ended   []domain.DragResult
	events  []string
}

// snapshotOf builds a snapshot; the first element of each slice is the column id.
func snapshotOf(columns ...[]string) domain.Snapshot {
	snap := domain.Snapshot{}
	for _, def := range columns {
		cs := domain.ColumnSnapshot{ID: def[0], Data: domain.ColumnData{Name: def[0]}}
		for _, rowID := range def[1:] {
			cs.Rows = append(cs.Rows, domain.RowSnapshot{ID: rowID, Data: domain.RowData{Title: rowID}})
		}
		snap.Columns = append(snap.Columns, cs)
	}
	return snap
}

func newFixture(t *testing.T, tuning Tuning, columns ...[]string) *fixture {
	t.Helper()
	f := &fixture{m: &syncMeasurer{}, scroll: &recordingScroller{}}
	b, err := board.New(snapshotOf(columns...),
		board.WithMeasurer(f.m),
		board.WithOriginalDataHook(func(domain.Snapshot) { f.events = append(f.events, "origin") }),
	)
	if err != nil {
		t.Fatalf("board.New() error = %v", err)
	}
	f.b = b
	f.m.b = b
	f.s = NewSession(b,
		WithTuning(tuning),
		WithScrollController(f.scroll),
		WithDragStart(func(item domain.HoverItem) { f.started = append(f.started, item) }),
		WithDragEnd(func(res domain.DragResult) {
			f.ended = append(f.ended, res)
			f.events = append(f.events, "end")
		}),
	)
	f.m.s = f.s
	b.MeasureColumnLayouts(context.Background())
	return f
}

func rowIDs(b *board.Board, columnID string) []string {
	out := []string{}
	for _, row := range b.Rows(columnID) {
		out = append(out, row.ID)
	}
	return out
}

func pt(x, y float64) domain.Point {
	return domain.Point{X: x, Y: y}
}

func TestBeginRowHidesAndSnapshots(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1", "r2"}, []string{"b", "s0"})
	if err := f.s.BeginRow(context.Background(), "r1", pt(50, 75)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if f.s.State() != StateDraggingRow {
		t.Fatalf("state = %s, want dragging_row", f.s.State())
	}
	row, _ := f.b.Row("r1")
	if !row.Hidden {
		t.Fatal("expected dragged row hidden")
	}
	if len(f.started) != 1 || f.started[0].Kind != domain.DragRow {
		t.Fatalf("unexpected drag start calls %#v", f.started)
	}
	hover := f.s.Hover()
	if hover.Item.Origin != (domain.Position{ColumnID: "a", Index: 1}) {
		t.Fatalf("unexpected origin %#v", hover.Item.Origin)
	}
	if hover.Item.Layout == nil || *hover.Item.Layout != (domain.Rect{Y: 50, Width: 100, Height: 50}) {
		t.Fatalf("unexpected pickup layout %#v", hover.Item.Layout)
	}
}

func TestBeginRejectsSecondDrag(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1"})
	ctx := context.Background()
	if err := f.s.BeginRow(ctx, "r0", pt(50, 25)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := f.s.BeginRow(ctx, "r1", pt(50, 75)); !errors.Is(err, ErrDragInProgress) {
		t.Fatalf("expected ErrDragInProgress, got %v", err)
	}
	if err := f.s.BeginColumn(ctx, "a", pt(50, 5)); !errors.Is(err, ErrDragInProgress) {
		t.Fatalf("expected ErrDragInProgress, got %v", err)
	}
	if ref, _ := f.b.HiddenRef(); ref != domain.RowRef("r0") {
		t.Fatalf("hidden entity changed to %s", ref)
	}
}

func TestBeginUnknownEntity(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0"})
	if err := f.s.BeginRow(context.Background(), "nope", pt(1, 1)); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.s.State() != StateIdle || len(f.started) != 0 {
		t.Fatal("failed begin must leave the session idle")
	}
}

func TestTrackSwapsWithinColumn(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1", "r2"})
	ctx := context.Background()
	if err := f.s.BeginRow(ctx, "r0", pt(50, 25)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := f.s.Track(ctx, 50, 125); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := rowIDs(f.b, "a"); !slices.Equal(got, []string{"r1", "r2", "r0"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if now := f.s.Hover().Item.Now; now != (domain.Position{ColumnID: "a", Index: 2}) {
		t.Fatalf("unexpected current position %#v", now)
	}
}

func TestTrackTransfersThenSwaps(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1", "r2"}, []string{"b", "s0"})
	ctx := context.Background()
	if err := f.s.BeginRow(ctx, "r1", pt(50, 75)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := f.s.Track(ctx, 150, 60); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := rowIDs(f.b, "b"); !slices.Equal(got, []string{"s0", "r1"}) {
		t.Fatalf("unexpected destination %v", got)
	}
	if got := rowIDs(f.b, "a"); !slices.Equal(got, []string{"r0", "r2"}) {
		t.Fatalf("unexpected source %v", got)
	}
	if err := f.s.Track(ctx, 150, 25); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := rowIDs(f.b, "b"); !slices.Equal(got, []string{"r1", "s0"}) {
		t.Fatalf("unexpected destination after swap %v", got)
	}

	res, err := f.s.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if res.From != (domain.Position{ColumnID: "a", Index: 1}) || res.To != (domain.Position{ColumnID: "b", Index: 0}) {
		t.Fatalf("unexpected result %#v", res)
	}
	if !res.Moved() {
		t.Fatal("expected moved result")
	}
}

func TestTrackIgnoresResetSampleAndIdle(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1"})
	ctx := context.Background()
	if err := f.s.Track(ctx, 10, 10); !errors.Is(err, ErrNotDragging) {
		t.Fatalf("expected ErrNotDragging, got %v", err)
	}
	if err := f.s.BeginRow(ctx, "r1", pt(50, 75)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := f.s.Track(ctx, 0, 0); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := rowIDs(f.b, "a"); !slices.Equal(got, []string{"r0", "r1"}) {
		t.Fatalf("reset sample reordered rows: %v", got)
	}
	if hover := f.s.Hover(); hover.DX != 0 || hover.DY != 0 {
		t.Fatalf("reset sample moved the preview: %#v", hover)
	}
}

func TestTrackSkipsSwapWithMissingLayout(t *testing.T) {
	b, err := board.New(snapshotOf([]string{"a", "r0", "r1", "r2"}))
	if err != nil {
		t.Fatalf("board.New() error = %v", err)
	}
	b.ApplyMeasurement(domain.ColumnRef("a"), domain.Rect{Width: 100, Height: 300})
	b.ApplyMeasurement(domain.RowRef("r0"), domain.Rect{Width: 100, Height: 50})
	b.ApplyMeasurement(domain.RowRef("r2"), domain.Rect{Y: 100, Width: 100, Height: 50})
	s := NewSession(b)
	ctx := context.Background()
	if err := s.BeginRow(ctx, "r0", pt(50, 25)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := s.Track(ctx, 50, 125); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r0", "r1", "r2"}) {
		t.Fatalf("expected skipped tick, got %v", got)
	}
	if now := s.Hover().Item.Now; now.Index != 0 {
		t.Fatalf("current position moved on skipped tick: %#v", now)
	}
}

func TestColumnDragReordersAndEnds(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0"}, []string{"b"}, []string{"c"})
	ctx := context.Background()
	if err := f.s.BeginColumn(ctx, "a", pt(50, 10)); err != nil {
		t.Fatalf("BeginColumn() error = %v", err)
	}
	if col, _ := f.b.Column("a"); !col.Hidden {
		t.Fatal("expected dragged column hidden")
	}
	if err := f.s.Track(ctx, 250, 100); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if got := f.b.ColumnIDs(); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Fatalf("unexpected column order %v", got)
	}
	res, err := f.s.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if res.Kind != domain.DragColumn || res.From.Index != 0 || res.To.Index != 2 {
		t.Fatalf("unexpected result %#v", res)
	}
	if _, hidden := f.b.HiddenRef(); hidden {
		t.Fatal("expected nothing hidden after end")
	}
}

func TestEndAndCancelShareTeardown(t *testing.T) {
	for _, cancel := range []bool{false, true} {
		f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1"})
		if err := f.s.BeginRow(context.Background(), "r0", pt(50, 25)); err != nil {
			t.Fatalf("BeginRow() error = %v", err)
		}
		var (
			res domain.DragResult
			err error
		)
		if cancel {
			res, err = f.s.Cancel()
		} else {
			res, err = f.s.End()
		}
		if err != nil {
			t.Fatalf("finish(cancel=%v) error = %v", cancel, err)
		}
		if res.Moved() {
			t.Fatalf("unexpected move %#v", res)
		}
		if len(f.ended) != 1 {
			t.Fatalf("expected one drag end, got %d", len(f.ended))
		}
		if !slices.Equal(f.events, []string{"end", "origin"}) {
			t.Fatalf("unexpected teardown order %v", f.events)
		}
		if _, hidden := f.b.HiddenRef(); hidden {
			t.Fatal("expected nothing hidden after teardown")
		}
		if f.s.State() != StateIdle || f.s.Hover().Active {
			t.Fatal("expected idle session")
		}
		if _, err := f.s.End(); !errors.Is(err, ErrNotDragging) {
			t.Fatalf("expected ErrNotDragging on second end, got %v", err)
		}
		if len(f.ended) != 1 {
			t.Fatal("second end must not fire the callback")
		}
	}
}

func TestHoverTranslation(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1"})
	ctx := context.Background()
	if err := f.s.BeginRow(ctx, "r0", pt(50, 25)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if err := f.s.Track(ctx, 60, 40); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	hover := f.s.Hover()
	if hover.DX != 10 || hover.DY != 15 {
		t.Fatalf("unexpected translation %#v", hover)
	}
	rect, ok := hover.Rect()
	if !ok || rect != (domain.Rect{X: 10, Y: 15, Width: 100, Height: 50}) {
		t.Fatalf("unexpected preview rect %#v", rect)
	}
}

func TestApplyMeasurementAdoptsFirstPickupLayout(t *testing.T) {
	b, err := board.New(snapshotOf([]string{"a", "r0"}))
	if err != nil {
		t.Fatalf("board.New() error = %v", err)
	}
	s := NewSession(b)
	if err := s.BeginRow(context.Background(), "r0", pt(5, 5)); err != nil {
		t.Fatalf("BeginRow() error = %v", err)
	}
	if s.Hover().Item.Layout != nil {
		t.Fatal("expected no layout before measurement")
	}
	first := domain.Rect{Width: 10, Height: 10}
	if !s.ApplyMeasurement(domain.RowRef("r0"), first) {
		t.Fatal("expected measurement applied")
	}
	s.ApplyMeasurement(domain.RowRef("r0"), domain.Rect{Y: 99, Width: 10, Height: 10})
	if got := s.Hover().Item.Layout; got == nil || *got != first {
		t.Fatalf("unexpected hover layout %#v", got)
	}
	if s.ApplyMeasurement(domain.RowRef("gone"), first) {
		t.Fatal("expected unknown entity dropped")
	}
}

func TestSyncBoardScrollRequestsMeasure(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0"})
	before := f.m.requests
	f.s.SyncBoardScroll(context.Background(), 40)
	if offset, _ := f.b.BoardScroll(); offset != 40 {
		t.Fatalf("board scroll = %v, want 40", offset)
	}
	if f.m.requests != before+1 {
		t.Fatalf("expected one measurement request, got %d", f.m.requests-before)
	}
	col, _ := f.b.Column("a")
	if col.Layout.X != -40 {
		t.Fatalf("expected re-measured column at -40, got %v", col.Layout.X)
	}
}
