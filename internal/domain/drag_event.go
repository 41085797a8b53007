package domain

import "time"

// DragKind describes which kind of entity a drag session carries.
type DragKind string

const (
	DragRow    DragKind = "row"
	DragColumn DragKind = "column"
)

// Position is a logical board position. Column drags only use Index.
type Position struct {
	ColumnID string `json:"column_id,omitempty"`
	Index    int    `json:"index"`
}

// HoverItem is the snapshot of the entity being dragged.
type HoverItem struct {
	Kind   DragKind
	ID     string
	Layout *Rect
	Row    RowData
	Column ColumnData
	Origin Position
	Now    Position
}

// DragResult is reported once when a drag session ends.
type DragResult struct {
	Kind   DragKind
	ItemID string
	From   Position
	To     Position
	Item   HoverItem
}

// Moved reports whether the session changed the item's position.
func (r DragResult) Moved() bool {
	return r.From != r.To
}

// DragEvent is one persisted drag commit.
type DragEvent struct {
	ID           int64
	Kind         DragKind
	ItemID       string
	FromColumnID string
	FromIndex    int
	ToColumnID   string
	ToIndex      int
	OccurredAt   time.Time
}

// NewDragEvent converts a drag result into a persisted event record.
func NewDragEvent(res DragResult, now time.Time) (DragEvent, error) {
	switch res.Kind {
	case DragRow, DragColumn:
	default:
		return DragEvent{}, ErrInvalidDragKind
	}
	if res.ItemID == "" {
		return DragEvent{}, ErrInvalidID
	}
	if res.From.Index < 0 || res.To.Index < 0 {
		return DragEvent{}, ErrInvalidPosition
	}
	return DragEvent{
		Kind:         res.Kind,
		ItemID:       res.ItemID,
		FromColumnID: res.From.ColumnID,
		FromIndex:    res.From.Index,
		ToColumnID:   res.To.ColumnID,
		ToIndex:      res.To.Index,
		OccurredAt:   now.UTC(),
	}, nil
}
