package board

import (
	"fmt"
	"slices"

	"github.com/evanschultz/dragboard/internal/domain"
)

// AddRow appends a row to a column at the next index.
func (b *Board) AddRow(columnID string, in domain.RowInput) (domain.Row, error) {
	ch, err := b.column(columnID)
	if err != nil {
		return domain.Row{}, err
	}
	data, err := domain.NewRowData(in.Data.Title, in.Data.Description, in.Data.Labels)
	if err != nil {
		return domain.Row{}, err
	}
	id, err := b.nextID(in.ID)
	if err != nil {
		return domain.Row{}, err
	}
	b.appendRow(ch, b.newRow(id, data))
	col := b.columns[ch]
	b.logger.Debug("row added", "row_id", id, "column_id", col.id, "index", len(col.order)-1)
	b.Notify(col.id, EventReload)
	return b.rowView(ch, len(col.order)-1), nil
}

// UpdateRow applies patch to a row payload.
func (b *Board) UpdateRow(rowID string, patch domain.RowPatch) (domain.Row, error) {
	h, err := b.row(rowID)
	if err != nil {
		return domain.Row{}, err
	}
	data, err := patch.Apply(b.rows[h].data.Clone())
	if err != nil {
		return domain.Row{}, err
	}
	b.rows[h].data = data
	ch, slot := b.rowPos(h)
	b.Notify(b.columns[ch].id, EventReload)
	return b.rowView(ch, slot), nil
}

// DeleteRow removes a row; the rows after it move up one index.
func (b *Board) DeleteRow(rowID string) error {
	h, err := b.row(rowID)
	if err != nil {
		return err
	}
	ch, slot := b.rowPos(h)
	b.detachRow(ch, slot)
	b.rows[h].dead = true
	delete(b.rowByID, b.rows[h].id)
	b.logger.Debug("row deleted", "row_id", b.rows[h].id, "column_id", b.columns[ch].id)
	b.Notify(b.columns[ch].id, EventReload)
	return nil
}

// detachRow removes the row at slot from the order table. Rectangles stay with
// positions, so the last slot's rectangle is the one dropped.
func (b *Board) detachRow(ch columnHandle, slot int) {
	col := &b.columns[ch]
	col.order = slices.Delete(col.order, slot, slot+1)
	col.slots = col.slots[:len(col.slots)-1]
}

// AddColumn appends a column at the next board position.
func (b *Board) AddColumn(in domain.ColumnInput) (domain.Column, error) {
	data, err := domain.NewColumnData(in.Data.Name, in.Data.WIPLimit)
	if err != nil {
		return domain.Column{}, err
	}
	id, err := b.nextID(in.ID)
	if err != nil {
		return domain.Column{}, err
	}
	b.newColumn(id, data)
	b.logger.Debug("column added", "column_id", id, "index", len(b.colOrder)-1)
	b.fireStructure()
	return b.columnView(len(b.colOrder) - 1), nil
}

// UpdateColumn applies patch to a column payload.
func (b *Board) UpdateColumn(columnID string, patch domain.ColumnPatch) (domain.Column, error) {
	ch, err := b.column(columnID)
	if err != nil {
		return domain.Column{}, err
	}
	data, err := patch.Apply(b.columns[ch].data)
	if err != nil {
		return domain.Column{}, err
	}
	b.columns[ch].data = data
	b.fireStructure()
	return b.columnView(b.columnPos(ch)), nil
}

// DeleteColumn removes a column and every row it owns.
func (b *Board) DeleteColumn(columnID string) error {
	ch, err := b.column(columnID)
	if err != nil {
		return err
	}
	col := &b.columns[ch]
	for _, rh := range col.order {
		b.rows[rh].dead = true
		delete(b.rowByID, b.rows[rh].id)
	}
	col.order = nil
	col.slots = nil
	col.dead = true
	delete(b.colByID, col.id)

	pos := b.columnPos(ch)
	b.colOrder = slices.Delete(b.colOrder, pos, pos+1)
	b.colSlots = b.colSlots[:len(b.colSlots)-1]
	b.listeners.dropColumn(col.id)
	b.logger.Debug("column deleted", "column_id", col.id, "index", pos)
	b.fireStructure()
	return nil
}

// HideRow marks a row as the one being dragged. Any other hidden entity is shown.
func (b *Board) HideRow(rowID string) error {
	h, err := b.row(rowID)
	if err != nil {
		return err
	}
	b.ClearHidden()
	b.rows[h].hidden = true
	b.Notify(b.rows[h].columnID, EventReload)
	return nil
}

// ShowRow clears a row's hidden flag.
func (b *Board) ShowRow(rowID string) error {
	h, err := b.row(rowID)
	if err != nil {
		return err
	}
	if !b.rows[h].hidden {
		return nil
	}
	b.rows[h].hidden = false
	b.Notify(b.rows[h].columnID, EventReload)
	return nil
}

// HideColumn marks a column as the one being dragged. Any other hidden entity is shown.
func (b *Board) HideColumn(columnID string) error {
	ch, err := b.column(columnID)
	if err != nil {
		return err
	}
	b.ClearHidden()
	b.columns[ch].hidden = true
	b.fireStructure()
	return nil
}

// ShowColumn clears a column's hidden flag.
func (b *Board) ShowColumn(columnID string) error {
	ch, err := b.column(columnID)
	if err != nil {
		return err
	}
	if !b.columns[ch].hidden {
		return nil
	}
	b.columns[ch].hidden = false
	b.fireStructure()
	return nil
}

// ClearHidden shows every hidden row and column.
func (b *Board) ClearHidden() {
	for _, ch := range b.colOrder {
		col := &b.columns[ch]
		if col.hidden {
			col.hidden = false
			b.fireStructure()
		}
		for _, rh := range col.order {
			if b.rows[rh].hidden {
				b.rows[rh].hidden = false
				b.Notify(col.id, EventReload)
			}
		}
	}
}

// HiddenRef returns the hidden entity, if any.
func (b *Board) HiddenRef() (domain.EntityRef, bool) {
	for _, ch := range b.colOrder {
		col := b.columns[ch]
		if col.hidden {
			return domain.ColumnRef(col.id), true
		}
		for _, rh := range col.order {
			if b.rows[rh].hidden {
				return domain.RowRef(b.rows[rh].id), true
			}
		}
	}
	return domain.EntityRef{}, false
}

func (b *Board) checkPos(pos, n int) error {
	if pos < 0 || pos >= n {
		return fmt.Errorf("position %d of %d: %w", pos, n, ErrInvalidIndex)
	}
	return nil
}
