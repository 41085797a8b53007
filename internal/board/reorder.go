package board

import (
	"fmt"
	"slices"

	"github.com/evanschultz/dragboard/internal/domain"
)

// SwitchItemsBetween walks the row at slot from to slot to inside one column,
// one adjacent swap at a time. Identities move; rectangles stay with slots.
// Every walked slot must have a rectangle, otherwise nothing changes.
func (b *Board) SwitchItemsBetween(columnID string, from, to int) error {
	ch, err := b.column(columnID)
	if err != nil {
		return err
	}
	col := &b.columns[ch]
	n := len(col.order)
	if err := b.checkPos(from, n); err != nil {
		return err
	}
	if err := b.checkPos(to, n); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := requireSlots(col.slots, from, to); err != nil {
		return fmt.Errorf("column %q: %w", col.id, err)
	}

	walk(len(col.order), from, to, func(i int) {
		col.order[i], col.order[i+1] = col.order[i+1], col.order[i]
	})
	b.logger.Debug("rows switched", "column_id", col.id, "from", from, "to", to)
	b.Notify(col.id, EventReload)
	return nil
}

// MoveToOtherColumn takes a row out of fromColumnID and appends it to toColumnID.
func (b *Board) MoveToOtherColumn(rowID, fromColumnID, toColumnID string) error {
	h, src, dst, err := b.transferTargets(rowID, fromColumnID, toColumnID)
	if err != nil {
		return err
	}
	b.transfer(h, src, dst)
	b.logger.Debug("row moved to column", "row_id", b.rows[h].id, "from", b.columns[src].id, "to", b.columns[dst].id)
	b.Notify(b.columns[src].id, EventReload)
	b.Notify(b.columns[dst].id, EventReload)
	return nil
}

func (b *Board) transferTargets(rowID, fromColumnID, toColumnID string) (rowHandle, columnHandle, columnHandle, error) {
	h, err := b.row(rowID)
	if err != nil {
		return 0, 0, 0, err
	}
	src, err := b.column(fromColumnID)
	if err != nil {
		return 0, 0, 0, err
	}
	dst, err := b.column(toColumnID)
	if err != nil {
		return 0, 0, 0, err
	}
	if b.rows[h].columnID != b.columns[src].id {
		return 0, 0, 0, fmt.Errorf("row %q is not in column %q: %w", rowID, fromColumnID, ErrNotFound)
	}
	if src == dst {
		return 0, 0, 0, ErrSameColumn
	}
	return h, src, dst, nil
}

// transfer is the only writer of a row's column id.
func (b *Board) transfer(h rowHandle, src, dst columnHandle) {
	_, slot := b.rowPos(h)
	b.detachRow(src, slot)
	b.appendRow(dst, h)
}

// SwitchColumnItemsBetween walks the column at position from to position to,
// one adjacent swap at a time. Walked positions must have rectangles.
func (b *Board) SwitchColumnItemsBetween(from, to int) error {
	n := len(b.colOrder)
	if err := b.checkPos(from, n); err != nil {
		return err
	}
	if err := b.checkPos(to, n); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := requireSlots(b.colSlots, from, to); err != nil {
		return err
	}

	walk(n, from, to, func(i int) {
		b.colOrder[i], b.colOrder[i+1] = b.colOrder[i+1], b.colOrder[i]
	})
	b.logger.Debug("columns switched", "from", from, "to", to)
	b.fireStructure()
	return nil
}

// MoveColumn moves the column at position from to position to, shifting the
// columns in between by one.
func (b *Board) MoveColumn(from, to int) error {
	n := len(b.colOrder)
	if err := b.checkPos(from, n); err != nil {
		return err
	}
	if err := b.checkPos(to, n); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	next := make([]columnHandle, n)
	for current, h := range b.colOrder {
		next[shiftIndex(current, from, to)] = h
	}
	b.colOrder = next
	b.logger.Debug("column moved", "from", from, "to", to)
	b.fireStructure()
	return nil
}

// shiftIndex returns where the column at current lands when from moves to to.
func shiftIndex(current, from, to int) int {
	switch {
	case current > from && current < to:
		return current - 1
	case current < from && current > to:
		return current + 1
	case current == to && to > from:
		return current - 1
	case current == to && to < from:
		return current + 1
	case current == from:
		return to
	default:
		return current
	}
}

// MoveRow places a row at toIndex of toColumnID, transferring it first when
// the column differs. toIndex past the end appends. No rectangles are needed.
func (b *Board) MoveRow(rowID, toColumnID string, toIndex int) error {
	h, err := b.row(rowID)
	if err != nil {
		return err
	}
	dst, err := b.column(toColumnID)
	if err != nil {
		return err
	}
	if toIndex < 0 {
		return fmt.Errorf("position %d: %w", toIndex, ErrInvalidIndex)
	}

	src, slot := b.rowPos(h)
	if src != dst {
		b.transfer(h, src, dst)
		slot = len(b.columns[dst].order) - 1
	}
	col := &b.columns[dst]
	toIndex = min(toIndex, len(col.order)-1)
	if slot != toIndex {
		col.order = slices.Delete(col.order, slot, slot+1)
		col.order = slices.Insert(col.order, toIndex, h)
	}

	if src != dst {
		b.Notify(b.columns[src].id, EventReload)
	}
	if src != dst || slot != toIndex {
		b.logger.Debug("row placed", "row_id", b.rows[h].id, "column_id", col.id, "index", toIndex)
		b.Notify(col.id, EventReload)
	}
	return nil
}

// walk calls swap(i) for each adjacent pair (i, i+1) that carries the item at
// from toward to.
func walk(n, from, to int, swap func(i int)) {
	if from > to {
		for i := from - 1; i >= to; i-- {
			swap(i)
		}
		return
	}
	for i := from; i < to && i+1 < n; i++ {
		swap(i)
	}
}

func requireSlots(slots []*domain.Rect, from, to int) error {
	lo, hi := min(from, to), max(from, to)
	for i := lo; i <= hi; i++ {
		if slots[i] == nil {
			return fmt.Errorf("position %d: %w", i, ErrMissingLayout)
		}
	}
	return nil
}
