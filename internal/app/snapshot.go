package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "dragboard.snapshot.v1"

// Format names a snapshot encoding.
type Format string

// FormatJSON and related constants name supported encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a format name.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrUnsupportedFormat)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Snapshot is the portable export of a board.
type Snapshot struct {
	Version    string           `json:"version" yaml:"version"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Columns    []SnapshotColumn `json:"columns" yaml:"columns"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	WIPLimit int           `json:"wip_limit,omitempty" yaml:"wip_limit,omitempty"`
	Rows     []SnapshotRow `json:"rows" yaml:"rows"`
}

// SnapshotRow represents snapshot row data used by this package.
type SnapshotRow struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

func snapshotFromBoard(board domain.Snapshot, now time.Time) Snapshot {
	out := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now.UTC(),
		Columns:    make([]SnapshotColumn, 0, len(board.Columns)),
	}
	for _, col := range board.Columns {
		sc := SnapshotColumn{
			ID:       col.ID,
			Name:     col.Data.Name,
			WIPLimit: col.Data.WIPLimit,
			Rows:     make([]SnapshotRow, 0, len(col.Rows)),
		}
		for _, row := range col.Rows {
			sc.Rows = append(sc.Rows, SnapshotRow{
				ID:          row.ID,
				Title:       row.Data.Title,
				Description: row.Data.Description,
				Labels:      append([]string(nil), row.Data.Labels...),
			})
		}
		out.Columns = append(out.Columns, sc)
	}
	return out
}

// Board converts the export back into board ordering.
func (s Snapshot) Board() domain.Snapshot {
	out := domain.Snapshot{Columns: make([]domain.ColumnSnapshot, 0, len(s.Columns))}
	for _, col := range s.Columns {
		cs := domain.ColumnSnapshot{
			ID:   col.ID,
			Data: domain.ColumnData{Name: col.Name, WIPLimit: col.WIPLimit},
			Rows: make([]domain.RowSnapshot, 0, len(col.Rows)),
		}
		for _, row := range col.Rows {
			cs.Rows = append(cs.Rows, domain.RowSnapshot{
				ID:   row.ID,
				Data: domain.RowData{Title: row.Title, Description: row.Description, Labels: row.Labels},
			})
		}
		out.Columns = append(out.Columns, cs)
	}
	return out
}

// Validate checks the version and the board it carries. Hand-written files may omit the version.
func (s Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%q: %w", s.Version, ErrUnsupportedSnapshotVersion)
	}
	return s.Board().Validate()
}

// EncodeSnapshot writes snap in the given format.
func EncodeSnapshot(w io.Writer, snap Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// DecodeSnapshot reads a snapshot in the given format.
func DecodeSnapshot(r io.Reader, format Format) (Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	return snap, nil
}

// ExportSnapshot returns the current board as a portable snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	err := s.do(ctx, func() error {
		out = snapshotFromBoard(s.board.Snapshot(), s.clock())
		return nil
	})
	return out, err
}

// ImportSnapshot replaces the whole board with snap and persists it.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		if err := s.board.Replace(snap.Board()); err != nil {
			return err
		}
		s.remeasure()
		s.logger.Info("board imported", "columns", s.board.ColumnCount(), "rows", s.board.RowCount())
		return s.save(ctx)
	})
}
