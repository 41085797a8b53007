package app

import (
	"context"

	"github.com/evanschultz/dragboard/internal/domain"
)

// Repository persists the board ordering and the drag history.
type Repository interface {
	// LoadBoard returns the stored board, or an empty snapshot on first run.
	LoadBoard(context.Context) (domain.Snapshot, error)
	// SaveBoard replaces the stored board with snap.
	SaveBoard(context.Context, domain.Snapshot) error
	AppendDragEvent(context.Context, domain.DragEvent) (domain.DragEvent, error)
	// ListDragEvents returns the newest events first.
	ListDragEvents(context.Context, int) ([]domain.DragEvent, error)
}
