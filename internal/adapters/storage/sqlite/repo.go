package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evanschultz/dragboard/internal/app"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

var memoryDBs atomic.Int64

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

var _ app.Repository = (*Repository)(nil)

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:dragboard-mem-%d?mode=memory&cache=shared", memoryDBs.Add(1))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	// One connection keeps PRAGMAs and the in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			wip_limit INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS board_rows (
			id TEXT PRIMARY KEY,
			column_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			labels_json TEXT NOT NULL DEFAULT '[]',
			FOREIGN KEY(column_id) REFERENCES board_columns(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS drag_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			item_id TEXT NOT NULL,
			from_column_id TEXT NOT NULL DEFAULT '',
			from_index INTEGER NOT NULL,
			to_column_id TEXT NOT NULL DEFAULT '',
			to_index INTEGER NOT NULL,
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_board_columns_position ON board_columns(position);`,
		`CREATE INDEX IF NOT EXISTS idx_board_rows_column_position ON board_rows(column_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_drag_events_occurred_at ON drag_events(occurred_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadBoard reads columns and rows in position order.
func (r *Repository) LoadBoard(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{Columns: []domain.ColumnSnapshot{}}
	colRows, err := r.db.QueryContext(ctx, `
		SELECT id, name, wip_limit
		FROM board_columns
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return domain.Snapshot{}, err
	}
	index := map[string]int{}
	for colRows.Next() {
		var cs domain.ColumnSnapshot
		if err := colRows.Scan(&cs.ID, &cs.Data.Name, &cs.Data.WIPLimit); err != nil {
			_ = colRows.Close()
			return domain.Snapshot{}, err
		}
		index[cs.ID] = len(snap.Columns)
		snap.Columns = append(snap.Columns, cs)
	}
	if err := colRows.Close(); err != nil {
		return domain.Snapshot{}, err
	}
	if err := colRows.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, column_id, title, description, labels_json
		FROM board_rows
		ORDER BY column_id ASC, position ASC, id ASC
	`)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		rs, columnID, err := scanRow(rows)
		if err != nil {
			return domain.Snapshot{}, err
		}
		pos, ok := index[columnID]
		if !ok {
			return domain.Snapshot{}, fmt.Errorf("row %q references missing column %q: %w", rs.ID, columnID, app.ErrNotFound)
		}
		snap.Columns[pos].Rows = append(snap.Columns[pos].Rows, rs)
	}
	return snap, rows.Err()
}

// SaveBoard replaces the stored board in one transaction.
func (r *Repository) SaveBoard(ctx context.Context, snap domain.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save board: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM board_rows`); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM board_columns`); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	for pos, col := range snap.Columns {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO board_columns(id, name, wip_limit, position)
			VALUES(?, ?, ?, ?)
		`, col.ID, col.Data.Name, col.Data.WIPLimit, pos); err != nil {
			return fmt.Errorf("insert column %q: %w", col.ID, err)
		}
		for slot, row := range col.Rows {
			labels := row.Data.Labels
			if labels == nil {
				labels = []string{}
			}
			var labelsJSON []byte
			labelsJSON, err = json.Marshal(labels)
			if err != nil {
				return fmt.Errorf("encode labels: %w", err)
			}
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO board_rows(id, column_id, position, title, description, labels_json)
				VALUES(?, ?, ?, ?, ?, ?)
			`, row.ID, col.ID, slot, row.Data.Title, row.Data.Description, string(labelsJSON)); err != nil {
				return fmt.Errorf("insert row %q: %w", row.ID, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save board: %w", err)
	}
	return nil
}

// AppendDragEvent stores one drag commit and returns it with its id.
func (r *Repository) AppendDragEvent(ctx context.Context, ev domain.DragEvent) (domain.DragEvent, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO drag_events(kind, item_id, from_column_id, from_index, to_column_id, to_index, occurred_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, string(ev.Kind), ev.ItemID, ev.FromColumnID, ev.FromIndex, ev.ToColumnID, ev.ToIndex, ts(ev.OccurredAt))
	if err != nil {
		return domain.DragEvent{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.DragEvent{}, err
	}
	ev.ID = id
	ev.OccurredAt = ev.OccurredAt.UTC()
	return ev, nil
}

// ListDragEvents returns up to limit events, newest first.
func (r *Repository) ListDragEvents(ctx context.Context, limit int) ([]domain.DragEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, item_id, from_column_id, from_index, to_column_id, to_index, occurred_at
		FROM drag_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DragEvent{}
	for rows.Next() {
		ev, err := scanDragEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (domain.RowSnapshot, string, error) {
	var (
		rs         domain.RowSnapshot
		columnID   string
		labelsJSON string
	)
	if err := s.Scan(&rs.ID, &columnID, &rs.Data.Title, &rs.Data.Description, &labelsJSON); err != nil {
		return domain.RowSnapshot{}, "", err
	}
	if err := json.Unmarshal([]byte(labelsJSON), &rs.Data.Labels); err != nil {
		return domain.RowSnapshot{}, "", fmt.Errorf("decode labels of row %q: %w", rs.ID, err)
	}
	if len(rs.Data.Labels) == 0 {
		rs.Data.Labels = nil
	}
	return rs, columnID, nil
}

func scanDragEvent(s scanner) (domain.DragEvent, error) {
	var (
		ev          domain.DragEvent
		kind        string
		occurredRaw string
	)
	if err := s.Scan(&ev.ID, &kind, &ev.ItemID, &ev.FromColumnID, &ev.FromIndex, &ev.ToColumnID, &ev.ToIndex, &occurredRaw); err != nil {
		return domain.DragEvent{}, err
	}
	ev.Kind = domain.DragKind(kind)
	ev.OccurredAt = parseTS(occurredRaw)
	return ev, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
