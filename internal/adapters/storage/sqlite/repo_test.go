package sqlite

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/dragboard/internal/domain"
)

func sampleBoard() domain.Snapshot {
	return domain.Snapshot{Columns: []domain.ColumnSnapshot{
		{
			ID:   "todo",
			Data: domain.ColumnData{Name: "To Do", WIPLimit: 3},
			Rows: []domain.RowSnapshot{
				{ID: "r1", Data: domain.RowData{Title: "First", Description: "body", Labels: []string{"a", "b"}}},
				{ID: "r2", Data: domain.RowData{Title: "Second"}},
			},
		},
		{ID: "doing", Data: domain.ColumnData{Name: "Doing"}},
		{
			ID:   "done",
			Data: domain.ColumnData{Name: "Done"},
			Rows: []domain.RowSnapshot{{ID: "r3", Data: domain.RowData{Title: "Third"}}},
		},
	}}
}

func openTemp(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "dragboard.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func columnOrder(snap domain.Snapshot) []string {
	out := make([]string, 0, len(snap.Columns))
	for _, col := range snap.Columns {
		out = append(out, col.ID)
	}
	return out
}

func TestRepository_EmptyBoard(t *testing.T) {
	repo := openTemp(t)
	snap, err := repo.LoadBoard(context.Background())
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(snap.Columns) != 0 {
		t.Fatalf("expected empty board, got %#v", snap)
	}
}

func TestRepository_SaveAndLoadBoard(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	if err := repo.SaveBoard(ctx, sampleBoard()); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	snap, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if got := columnOrder(snap); !slices.Equal(got, []string{"todo", "doing", "done"}) {
		t.Fatalf("unexpected column order %#v", got)
	}
	todo := snap.Columns[0]
	if todo.Data.Name != "To Do" || todo.Data.WIPLimit != 3 {
		t.Fatalf("unexpected column data %#v", todo.Data)
	}
	if len(todo.Rows) != 2 || todo.Rows[0].ID != "r1" || todo.Rows[1].ID != "r2" {
		t.Fatalf("unexpected todo rows %#v", todo.Rows)
	}
	if !slices.Equal(todo.Rows[0].Data.Labels, []string{"a", "b"}) || todo.Rows[0].Data.Description != "body" {
		t.Fatalf("unexpected row data %#v", todo.Rows[0].Data)
	}
	if todo.Rows[1].Data.Labels != nil {
		t.Fatalf("expected nil labels, got %#v", todo.Rows[1].Data.Labels)
	}
	if len(snap.Columns[1].Rows) != 0 {
		t.Fatalf("expected empty doing column, got %#v", snap.Columns[1].Rows)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestRepository_SaveBoardReplacesOrdering(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	if err := repo.SaveBoard(ctx, sampleBoard()); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}

	moved := sampleBoard()
	moved.Columns[0], moved.Columns[2] = moved.Columns[2], moved.Columns[0]
	row := moved.Columns[2].Rows[0]
	moved.Columns[2].Rows = moved.Columns[2].Rows[1:]
	moved.Columns[1].Rows = append(moved.Columns[1].Rows, row)
	if err := repo.SaveBoard(ctx, moved); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}

	snap, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if got := columnOrder(snap); !slices.Equal(got, []string{"done", "doing", "todo"}) {
		t.Fatalf("unexpected column order %#v", got)
	}
	if len(snap.Columns[1].Rows) != 1 || snap.Columns[1].Rows[0].ID != "r1" {
		t.Fatalf("expected r1 in doing, got %#v", snap.Columns[1].Rows)
	}
	if snap.RowCount() != 3 {
		t.Fatalf("unexpected row count %d", snap.RowCount())
	}
}

func TestRepository_SaveBoardRollsBackOnDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	if err := repo.SaveBoard(ctx, sampleBoard()); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}

	bad := sampleBoard()
	bad.Columns[1].Rows = []domain.RowSnapshot{{ID: "r1", Data: domain.RowData{Title: "dup"}}}
	if err := repo.SaveBoard(ctx, bad); err == nil {
		t.Fatal("expected duplicate row id error")
	}

	snap, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if snap.RowCount() != 3 || len(snap.Columns[1].Rows) != 0 {
		t.Fatalf("expected the previous board after rollback, got %#v", snap)
	}
}

func TestRepository_DragEvents(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	base := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	for i, item := range []string{"r1", "todo", "r2"} {
		kind := domain.DragRow
		if item == "todo" {
			kind = domain.DragColumn
		}
		ev, err := repo.AppendDragEvent(ctx, domain.DragEvent{
			Kind:         kind,
			ItemID:       item,
			FromColumnID: "todo",
			FromIndex:    i,
			ToColumnID:   "done",
			ToIndex:      0,
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendDragEvent() error = %v", err)
		}
		if ev.ID != int64(i+1) {
			t.Fatalf("unexpected event id %d", ev.ID)
		}
	}

	events, err := repo.ListDragEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListDragEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ItemID != "r2" || events[1].ItemID != "todo" {
		t.Fatalf("expected newest first, got %#v", events)
	}
	if events[1].Kind != domain.DragColumn || events[0].FromIndex != 2 {
		t.Fatalf("unexpected event fields %#v", events)
	}
	if !events[0].OccurredAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected timestamp %v", events[0].OccurredAt)
	}

	all, err := repo.ListDragEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListDragEvents() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3 events, got %d", len(all))
	}
}

func TestRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dragboard.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := repo.SaveBoard(ctx, sampleBoard()); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	snap, err := reopened.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if snap.RowCount() != 3 {
		t.Fatalf("unexpected row count after reopen %d", snap.RowCount())
	}
}

func TestOpenInMemoryIsolated(t *testing.T) {
	ctx := context.Background()
	first, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	second, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	if err := first.SaveBoard(ctx, sampleBoard()); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	snap, err := second.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(snap.Columns) != 0 {
		t.Fatalf("expected isolated in-memory databases, got %#v", snap)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseTS(t *testing.T) {
	if !parseTS("garbage").IsZero() {
		t.Fatal("expected zero time for bad input")
	}
	now := time.Date(2026, 2, 21, 12, 0, 0, 5, time.FixedZone("x", 3600))
	if got := parseTS(ts(now)); !got.Equal(now) || got.Location() != time.UTC {
		t.Fatalf("unexpected round trip %v", got)
	}
}

