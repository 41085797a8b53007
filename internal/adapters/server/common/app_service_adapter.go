package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/dragboard/internal/app"
	"github.com/evanschultz/dragboard/internal/board"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
)

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service *app.Service
}

var _ BoardService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// Board returns the ordered board with scroll state.
func (a *AppServiceAdapter) Board(ctx context.Context) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	cols, err := a.service.Columns(ctx)
	if err != nil {
		return Board{}, mapAppError("board", err)
	}
	offset, maxOffset, err := a.service.BoardScroll(ctx)
	if err != nil {
		return Board{}, mapAppError("board scroll", err)
	}
	out := Board{
		Columns:         make([]Column, 0, len(cols)),
		ScrollOffset:    offset,
		MaxScrollOffset: maxOffset,
	}
	for _, col := range cols {
		out.Columns = append(out.Columns, columnView(col))
		out.RowCount += len(col.Rows)
	}
	return out, nil
}

// AddRow appends one row.
func (a *AppServiceAdapter) AddRow(ctx context.Context, in AddRowRequest) (Row, error) {
	if err := a.ready(); err != nil {
		return Row{}, err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return Row{}, fmt.Errorf("column_id is required: %w", ErrInvalidRequest)
	}
	row, err := a.service.AddRow(ctx, app.AddRowInput{
		ColumnID:    columnID,
		Title:       in.Title,
		Description: in.Description,
		Labels:      in.Labels,
	})
	if err != nil {
		return Row{}, mapAppError("add row", err)
	}
	return rowView(row), nil
}

// UpdateRow patches one row.
func (a *AppServiceAdapter) UpdateRow(ctx context.Context, in UpdateRowRequest) (Row, error) {
	if err := a.ready(); err != nil {
		return Row{}, err
	}
	id, err := requireID("row", in.ID)
	if err != nil {
		return Row{}, err
	}
	row, err := a.service.UpdateRow(ctx, id, domain.RowPatch{
		Title:       in.Title,
		Description: in.Description,
		Labels:      in.Labels,
	})
	if err != nil {
		return Row{}, mapAppError("update row", err)
	}
	return rowView(row), nil
}

// DeleteRow removes one row.
func (a *AppServiceAdapter) DeleteRow(ctx context.Context, rowID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	id, err := requireID("row", rowID)
	if err != nil {
		return err
	}
	return mapAppError("delete row", a.service.DeleteRow(ctx, id))
}

// MoveRow places one row at a board position.
func (a *AppServiceAdapter) MoveRow(ctx context.Context, in MoveRowRequest) (Row, error) {
	if err := a.ready(); err != nil {
		return Row{}, err
	}
	id, err := requireID("row", in.ID)
	if err != nil {
		return Row{}, err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return Row{}, fmt.Errorf("column_id is required: %w", ErrInvalidRequest)
	}
	if in.Index < 0 {
		return Row{}, fmt.Errorf("index must be >= 0: %w", ErrInvalidRequest)
	}
	row, err := a.service.MoveRow(ctx, id, columnID, in.Index)
	if err != nil {
		return Row{}, mapAppError("move row", err)
	}
	return rowView(row), nil
}

// AddColumn appends one column.
func (a *AppServiceAdapter) AddColumn(ctx context.Context, in AddColumnRequest) (Column, error) {
	if err := a.ready(); err != nil {
		return Column{}, err
	}
	col, err := a.service.AddColumn(ctx, in.Name, in.WIPLimit)
	if err != nil {
		return Column{}, mapAppError("add column", err)
	}
	return columnView(col), nil
}

// UpdateColumn patches one column.
func (a *AppServiceAdapter) UpdateColumn(ctx context.Context, in UpdateColumnRequest) (Column, error) {
	if err := a.ready(); err != nil {
		return Column{}, err
	}
	id, err := requireID("column", in.ID)
	if err != nil {
		return Column{}, err
	}
	col, err := a.service.UpdateColumn(ctx, id, domain.ColumnPatch{Name: in.Name, WIPLimit: in.WIPLimit})
	if err != nil {
		return Column{}, mapAppError("update column", err)
	}
	return columnView(col), nil
}

// DeleteColumn removes one column and its rows.
func (a *AppServiceAdapter) DeleteColumn(ctx context.Context, columnID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	id, err := requireID("column", columnID)
	if err != nil {
		return err
	}
	return mapAppError("delete column", a.service.DeleteColumn(ctx, id))
}

// MoveColumn places one column at a board position.
func (a *AppServiceAdapter) MoveColumn(ctx context.Context, in MoveColumnRequest) (Column, error) {
	if err := a.ready(); err != nil {
		return Column{}, err
	}
	id, err := requireID("column", in.ID)
	if err != nil {
		return Column{}, err
	}
	if in.Index < 0 {
		return Column{}, fmt.Errorf("index must be >= 0: %w", ErrInvalidRequest)
	}
	col, err := a.service.MoveColumn(ctx, id, in.Index)
	if err != nil {
		return Column{}, mapAppError("move column", err)
	}
	return columnView(col), nil
}

// ListDragEvents returns committed moves, newest first.
func (a *AppServiceAdapter) ListDragEvents(ctx context.Context, limit int) ([]DragEvent, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	events, err := a.service.ListDragEvents(ctx, NormalizeEventLimit(limit))
	if err != nil {
		return nil, mapAppError("list drag events", err)
	}
	out := make([]DragEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, DragEvent{
			ID:         ev.ID,
			Kind:       string(ev.Kind),
			ItemID:     ev.ItemID,
			From:       Position{ColumnID: ev.FromColumnID, Index: ev.FromIndex},
			To:         Position{ColumnID: ev.ToColumnID, Index: ev.ToIndex},
			OccurredAt: ev.OccurredAt,
		})
	}
	return out, nil
}

func requireID(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s id is required: %w", kind, ErrInvalidRequest)
	}
	return id, nil
}

func columnView(col domain.Column) Column {
	out := Column{
		ID:        col.ID,
		Index:     col.Index,
		Name:      col.Data.Name,
		WIPLimit:  col.Data.WIPLimit,
		OverLimit: col.OverLimit(),
		Rows:      make([]Row, 0, len(col.Rows)),
	}
	for _, row := range col.Rows {
		out.Rows = append(out.Rows, rowView(row))
	}
	return out
}

func rowView(row domain.Row) Row {
	return Row{
		ID:          row.ID,
		ColumnID:    row.ColumnID,
		Index:       row.Index,
		Title:       row.Data.Title,
		Description: row.Data.Description,
		Labels:      append([]string(nil), row.Data.Labels...),
	}
}

// mapAppError maps app and domain errors into transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, board.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, drag.ErrDragInProgress):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidWIPLimit),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidColumnID),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, board.ErrInvalidIndex):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	case errors.Is(err, app.ErrNotStarted):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnavailable, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
