package domain

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestNewRowDataNormalizes(t *testing.T) {
	data, err := NewRowData("  Ship it  ", " body ", []string{"B", "a", " b ", ""})
	if err != nil {
		t.Fatalf("NewRowData() error = %v", err)
	}
	if data.Title != "Ship it" {
		t.Fatalf("unexpected title %q", data.Title)
	}
	if data.Description != "body" {
		t.Fatalf("unexpected description %q", data.Description)
	}
	if !slices.Equal(data.Labels, []string{"a", "b"}) {
		t.Fatalf("unexpected labels %#v", data.Labels)
	}
}

func TestNewRowDataValidation(t *testing.T) {
	if _, err := NewRowData("   ", "", nil); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestNewColumnDataValidation(t *testing.T) {
	if _, err := NewColumnData(" ", 0); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := NewColumnData("todo", -1); err != ErrInvalidWIPLimit {
		t.Fatalf("expected ErrInvalidWIPLimit, got %v", err)
	}
}

func TestPatchesApply(t *testing.T) {
	title := "renamed"
	row, err := RowPatch{Title: &title}.Apply(RowData{Title: "old", Description: "keep"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if row.Title != "renamed" || row.Description != "keep" {
		t.Fatalf("unexpected row data %#v", row)
	}

	empty := ""
	if _, err := (RowPatch{Title: &empty}).Apply(row); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}

	limit := 3
	col, err := ColumnPatch{WIPLimit: &limit}.Apply(ColumnData{Name: "Doing"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if col.WIPLimit != 3 || col.Name != "Doing" {
		t.Fatalf("unexpected column data %#v", col)
	}
}

func TestColumnOverLimit(t *testing.T) {
	c := Column{Data: ColumnData{Name: "Doing", WIPLimit: 1}, Rows: []Row{{ID: "a"}, {ID: "b"}}}
	if !c.OverLimit() {
		t.Fatal("expected column over limit")
	}
	c.Data.WIPLimit = 0
	if c.OverLimit() {
		t.Fatal("zero limit means unlimited")
	}
	if got := c.RowIDs(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected row ids %#v", got)
	}
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 40}
	if r.Right() != 40 || r.Bottom() != 60 {
		t.Fatalf("unexpected edges %v %v", r.Right(), r.Bottom())
	}
	if !r.Contains(Point{X: 11, Y: 21}) {
		t.Fatal("expected point inside")
	}
	if r.Contains(Point{X: 10, Y: 30}) {
		t.Fatal("edge must be exclusive")
	}
	moved := r.Translate(5, -5)
	if moved.X != 15 || moved.Y != 15 {
		t.Fatalf("unexpected translate %#v", moved)
	}
	if CloneRect(nil) != nil {
		t.Fatal("expected nil clone")
	}
	clone := CloneRect(&r)
	clone.X = 99
	if r.X != 10 {
		t.Fatal("clone must not alias")
	}
}

func TestEntityRefRoundTrip(t *testing.T) {
	ref, err := ParseEntityRef(RowRef("r1").String())
	if err != nil {
		t.Fatalf("ParseEntityRef() error = %v", err)
	}
	if ref != RowRef("r1") {
		t.Fatalf("unexpected ref %#v", ref)
	}
	if _, err := ParseEntityRef("board:x"); err != ErrInvalidDragKind {
		t.Fatalf("expected ErrInvalidDragKind, got %v", err)
	}
	if _, err := ParseEntityRef("row:"); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestSnapshotValidate(t *testing.T) {
	snap := Snapshot{Columns: []ColumnSnapshot{
		{ID: "todo", Data: ColumnData{Name: "To Do"}, Rows: []RowSnapshot{{ID: "r1", Data: RowData{Title: "one"}}}},
		{ID: "done", Data: ColumnData{Name: "Done"}},
	}}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if snap.RowCount() != 1 {
		t.Fatalf("unexpected row count %d", snap.RowCount())
	}

	snap.Columns[1].Rows = []RowSnapshot{{ID: "r1", Data: RowData{Title: "dup"}}}
	if err := snap.Validate(); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestNewDragEvent(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.FixedZone("x", 3600))
	ev, err := NewDragEvent(DragResult{
		Kind:   DragRow,
		ItemID: "r1",
		From:   Position{ColumnID: "todo", Index: 2},
		To:     Position{ColumnID: "done", Index: 0},
	}, now)
	if err != nil {
		t.Fatalf("NewDragEvent() error = %v", err)
	}
	if ev.FromColumnID != "todo" || ev.ToIndex != 0 || ev.OccurredAt.Location() != time.UTC {
		t.Fatalf("unexpected event %#v", ev)
	}
	if _, err := NewDragEvent(DragResult{Kind: "bogus", ItemID: "x"}, now); err != ErrInvalidDragKind {
		t.Fatalf("expected ErrInvalidDragKind, got %v", err)
	}
}

func TestRowMarkdown(t *testing.T) {
	md := RowData{Title: "Fix", Description: "details", Labels: []string{"bug"}}.Markdown()
	for _, want := range []string{"## Fix", "`bug`", "details"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown %q missing %q", md, want)
		}
	}
}

func TestEntityRefText(t *testing.T) {
	var ref EntityRef
	if err := ref.UnmarshalText([]byte("column:todo")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if ref != ColumnRef("todo") {
		t.Fatalf("unexpected ref %#v", ref)
	}
	text, err := EntityRef{}.MarshalText()
	if err != nil || len(text) != 0 {
		t.Fatalf("expected empty text, got %q %v", text, err)
	}
	if err := ref.UnmarshalText(nil); err != nil || ref != (EntityRef{}) {
		t.Fatalf("expected zero ref, got %#v %v", ref, err)
	}
}
