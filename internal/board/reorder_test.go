package board

import (
	"errors"
	"slices"
	"testing"

	"github.com/evanschultz/dragboard/internal/domain"
)

func TestSwitchItemsBetweenMovesDown(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1", "r2", "r3"})
	measureGrid(b)
	reloads := 0
	b.AddListener("a", EventReload, func() { reloads++ })

	if err := b.SwitchItemsBetween("a", 0, 2); err != nil {
		t.Fatalf("SwitchItemsBetween() error = %v", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r1", "r2", "r0", "r3"}) {
		t.Fatalf("rows = %v", got)
	}
	if reloads != 1 {
		t.Fatalf("reloads = %d, want 1", reloads)
	}
	assertValid(t, b)
}

func TestSwitchItemsBetweenMovesUp(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1", "r2", "r3"})
	measureGrid(b)
	if err := b.SwitchItemsBetween("a", 3, 1); err != nil {
		t.Fatalf("SwitchItemsBetween() error = %v", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r0", "r3", "r1", "r2"}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestSwitchItemsBetweenKeepsRectanglesWithSlots(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1"})
	measureGrid(b)
	if err := b.HideRow("r0"); err != nil {
		t.Fatalf("HideRow() error = %v", err)
	}
	if err := b.SwitchItemsBetween("a", 0, 1); err != nil {
		t.Fatalf("SwitchItemsBetween() error = %v", err)
	}
	slot1, _ := b.RowAt("a", 1)
	if slot1.ID != "r0" || !slot1.Hidden {
		t.Fatalf("slot 1 = %#v, want hidden r0", slot1)
	}
	if slot1.Layout == nil || slot1.Layout.Y != 50 {
		t.Fatalf("slot 1 layout = %#v, want the slot's own rectangle", slot1.Layout)
	}
}

func TestSwitchItemsBetweenMissingLayoutIsNoOp(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1", "r2"})
	b.ApplyMeasurement(domain.RowRef("r0"), domain.Rect{Width: 1, Height: 1})
	b.ApplyMeasurement(domain.RowRef("r2"), domain.Rect{Width: 1, Height: 1})
	reloads := 0
	b.AddListener("a", EventReload, func() { reloads++ })

	err := b.SwitchItemsBetween("a", 0, 2)
	if !errors.Is(err, ErrMissingLayout) {
		t.Fatalf("SwitchItemsBetween() error = %v, want ErrMissingLayout", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r0", "r1", "r2"}) {
		t.Fatalf("rows = %v", got)
	}
	if reloads != 0 {
		t.Fatalf("reloads = %d, want 0", reloads)
	}
}

func TestSwitchItemsBetweenRejectsBadIndex(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0"})
	if err := b.SwitchItemsBetween("a", 0, 1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("SwitchItemsBetween() error = %v, want ErrInvalidIndex", err)
	}
}

func TestMoveToOtherColumn(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1", "r2"}, []string{"b", "r3"})
	measureGrid(b)
	var reloaded []string
	b.AddListener("a", EventReload, func() { reloaded = append(reloaded, "a") })
	b.AddListener("b", EventReload, func() { reloaded = append(reloaded, "b") })

	if err := b.MoveToOtherColumn("r1", "a", "b"); err != nil {
		t.Fatalf("MoveToOtherColumn() error = %v", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r0", "r2"}) {
		t.Fatalf("source rows = %v", got)
	}
	if got := rowIDs(b, "b"); !slices.Equal(got, []string{"r3", "r1"}) {
		t.Fatalf("destination rows = %v", got)
	}
	moved, _ := b.Row("r1")
	if moved.ColumnID != "b" || moved.Index != 1 || moved.Layout != nil {
		t.Fatalf("moved row = %#v", moved)
	}
	if !slices.Equal(reloaded, []string{"a", "b"}) {
		t.Fatalf("reloaded = %v", reloaded)
	}
	if b.RowCount() != 4 {
		t.Fatalf("row count = %d", b.RowCount())
	}
	assertValid(t, b)
}

func TestMoveToOtherColumnPreconditions(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0"}, []string{"b"})
	if err := b.MoveToOtherColumn("r0", "b", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong source error = %v, want ErrNotFound", err)
	}
	if err := b.MoveToOtherColumn("r0", "a", "a"); !errors.Is(err, ErrSameColumn) {
		t.Fatalf("same column error = %v, want ErrSameColumn", err)
	}
	if err := b.MoveToOtherColumn("r0", "a", "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing destination error = %v, want ErrNotFound", err)
	}
	if got := rowIDs(b, "a"); !slices.Equal(got, []string{"r0"}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestSwitchColumnItemsBetween(t *testing.T) {
	b := newTestBoard(t, nil, []string{"A"}, []string{"B"}, []string{"C"}, []string{"D"})
	measureGrid(b)
	structural := 0
	b.OnStructureChange(func() { structural++ })

	if err := b.SwitchColumnItemsBetween(0, 2); err != nil {
		t.Fatalf("SwitchColumnItemsBetween() error = %v", err)
	}
	if got := b.ColumnIDs(); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
		t.Fatalf("columns = %v", got)
	}
	if structural != 1 {
		t.Fatalf("structural = %d, want 1", structural)
	}

	b.ClearLayouts()
	if err := b.SwitchColumnItemsBetween(2, 0); !errors.Is(err, ErrMissingLayout) {
		t.Fatalf("SwitchColumnItemsBetween() error = %v, want ErrMissingLayout", err)
	}
	assertValid(t, b)
}

func TestMoveColumn(t *testing.T) {
	cases := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "right", from: 0, to: 2, want: []string{"B", "C", "A", "D"}},
		{name: "left", from: 2, to: 0, want: []string{"C", "A", "B", "D"}},
		{name: "adjacent", from: 3, to: 2, want: []string{"A", "B", "D", "C"}},
		{name: "same", from: 1, to: 1, want: []string{"A", "B", "C", "D"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t, nil, []string{"A"}, []string{"B"}, []string{"C"}, []string{"D"})
			structural := 0
			b.OnStructureChange(func() { structural++ })
			if err := b.MoveColumn(tc.from, tc.to); err != nil {
				t.Fatalf("MoveColumn() error = %v", err)
			}
			if got := b.ColumnIDs(); !slices.Equal(got, tc.want) {
				t.Fatalf("columns = %v, want %v", got, tc.want)
			}
			wantStructural := 1
			if tc.from == tc.to {
				wantStructural = 0
			}
			if structural != wantStructural {
				t.Fatalf("structural = %d, want %d", structural, wantStructural)
			}
			assertValid(t, b)
		})
	}
}

func TestMoveColumnRejectsBadIndex(t *testing.T) {
	b := newTestBoard(t, nil, []string{"A"}, []string{"B"})
	if err := b.MoveColumn(0, 2); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("MoveColumn() error = %v, want ErrInvalidIndex", err)
	}
}

func TestMoveRowPlacesAcrossColumns(t *testing.T) {
	b := newTestBoard(t, nil, []string{"a", "r0", "r1"}, []string{"b", "r2", "r3"})
	if err := b.MoveRow("r1", "b", 0); err != nil {
		t.Fatalf("MoveRow() error = %v", err)
	}
	if got := rowIDs(b, "b"); !slices.Equal(got, []string{"r1", "r2", "r3"}) {
		t.Fatalf("rows = %v", got)
	}
	if err := b.MoveRow("r1", "b", 99); err != nil {
		t.Fatalf("MoveRow() error = %v", err)
	}
	if got := rowIDs(b, "b"); !slices.Equal(got, []string{"r2", "r3", "r1"}) {
		t.Fatalf("rows = %v", got)
	}
	if err := b.MoveRow("r1", "b", -1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("MoveRow() error = %v, want ErrInvalidIndex", err)
	}
	assertValid(t, b)
}

func TestShiftIndexIsPermutation(t *testing.T) {
	const n = 6
	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			seen := map[int]bool{}
			for current := 0; current < n; current++ {
				seen[shiftIndex(current, from, to)] = true
			}
			if len(seen) != n {
				t.Fatalf("shiftIndex(%d->%d) is not a permutation: %v", from, to, seen)
			}
		}
	}
}
