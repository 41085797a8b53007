// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// defaultEventLimit caps drag_events listings when callers omit a limit.
const defaultEventLimit = 50

// maxEventLimit bounds one drag_events page.
const maxEventLimit = 500

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports requests rejected because a pointer drag owns the board.
var ErrConflict = errors.New("conflict")

// ErrUnavailable reports a missing backing service.
var ErrUnavailable = errors.New("board service unavailable")

// BoardService is the board surface shared by HTTP and MCP transports.
type BoardService interface {
	Board(context.Context) (Board, error)
	AddRow(context.Context, AddRowRequest) (Row, error)
	UpdateRow(context.Context, UpdateRowRequest) (Row, error)
	DeleteRow(context.Context, string) error
	MoveRow(context.Context, MoveRowRequest) (Row, error)
	AddColumn(context.Context, AddColumnRequest) (Column, error)
	UpdateColumn(context.Context, UpdateColumnRequest) (Column, error)
	DeleteColumn(context.Context, string) error
	MoveColumn(context.Context, MoveColumnRequest) (Column, error)
	ListDragEvents(context.Context, int) ([]DragEvent, error)
}

// Board is the transport view of the whole board.
type Board struct {
	Columns         []Column `json:"columns"`
	ScrollOffset    float64  `json:"scroll_offset"`
	MaxScrollOffset float64  `json:"max_scroll_offset"`
	RowCount        int      `json:"row_count"`
}

// Column is the transport view of one column.
type Column struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Name      string `json:"name"`
	WIPLimit  int    `json:"wip_limit,omitempty"`
	OverLimit bool   `json:"over_limit,omitempty"`
	Rows      []Row  `json:"rows"`
}

// Row is the transport view of one row.
type Row struct {
	ID          string   `json:"id"`
	ColumnID    string   `json:"column_id"`
	Index       int      `json:"index"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Position is one logical board position.
type Position struct {
	ColumnID string `json:"column_id,omitempty"`
	Index    int    `json:"index"`
}

// DragEvent is one committed move.
type DragEvent struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	ItemID     string    `json:"item_id"`
	From       Position  `json:"from"`
	To         Position  `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AddRowRequest appends one row to a column.
type AddRowRequest struct {
	ColumnID    string   `json:"column_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// UpdateRowRequest patches one row. Nil fields are left alone.
type UpdateRowRequest struct {
	ID          string    `json:"-"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
}

// MoveRowRequest places a row at Index of ColumnID.
type MoveRowRequest struct {
	ID       string `json:"-"`
	ColumnID string `json:"column_id"`
	Index    int    `json:"index"`
}

// AddColumnRequest appends one column.
type AddColumnRequest struct {
	Name     string `json:"name"`
	WIPLimit int    `json:"wip_limit,omitempty"`
}

// UpdateColumnRequest patches one column. Nil fields are left alone.
type UpdateColumnRequest struct {
	ID       string  `json:"-"`
	Name     *string `json:"name,omitempty"`
	WIPLimit *int    `json:"wip_limit,omitempty"`
}

// MoveColumnRequest places a column at board position Index.
type MoveColumnRequest struct {
	ID    string `json:"-"`
	Index int    `json:"index"`
}

// NormalizeEventLimit clamps a requested drag_events page size.
func NormalizeEventLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultEventLimit
	case limit > maxEventLimit:
		return maxEventLimit
	default:
		return limit
	}
}
