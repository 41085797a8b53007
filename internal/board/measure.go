package board

import (
	"context"

	"github.com/evanschultz/dragboard/internal/domain"
)

// Measurer requests fresh rectangles for entities. Implementations answer
// asynchronously by calling ApplyMeasurement on the board's own loop.
type Measurer interface {
	RequestMeasure(ctx context.Context, refs []domain.EntityRef)
}

// MeasurementTargets returns every column followed by its rows, in board order.
func (b *Board) MeasurementTargets() []domain.EntityRef {
	refs := make([]domain.EntityRef, 0, len(b.colOrder)+b.RowCount())
	for _, ch := range b.colOrder {
		col := b.columns[ch]
		refs = append(refs, domain.ColumnRef(col.id))
		for _, rh := range col.order {
			refs = append(refs, domain.RowRef(b.rows[rh].id))
		}
	}
	return refs
}

// MeasureColumnLayouts asks the measurer for every column and row rectangle.
// Results land later through ApplyMeasurement; repeated calls are harmless.
func (b *Board) MeasureColumnLayouts(ctx context.Context) {
	if b.measurer == nil {
		return
	}
	b.measurer.RequestMeasure(ctx, b.MeasurementTargets())
}

// MeasureEntity asks the measurer for one entity's rectangle.
func (b *Board) MeasureEntity(ctx context.Context, ref domain.EntityRef) {
	if b.measurer == nil {
		return
	}
	b.measurer.RequestMeasure(ctx, []domain.EntityRef{ref})
}

// ApplyMeasurement stores rect at the entity's current position. The latest
// arrival wins. Results for entities that no longer exist are dropped.
func (b *Board) ApplyMeasurement(ref domain.EntityRef, rect domain.Rect) bool {
	switch ref.Kind {
	case domain.EntityColumn:
		ch, err := b.column(ref.ID)
		if err != nil {
			return false
		}
		b.colSlots[b.columnPos(ch)] = &rect
		return true
	case domain.EntityRow:
		h, err := b.row(ref.ID)
		if err != nil {
			return false
		}
		ch, slot := b.rowPos(h)
		if slot < 0 {
			return false
		}
		b.columns[ch].slots[slot] = &rect
		return true
	default:
		return false
	}
}

// ClearLayouts forgets every rectangle, as after a full re-layout.
func (b *Board) ClearLayouts() {
	clear(b.colSlots)
	for _, ch := range b.colOrder {
		clear(b.columns[ch].slots)
	}
}
