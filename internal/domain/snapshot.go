package domain

import "strings"

// Snapshot is the ordered, layout-free copy of a board.
type Snapshot struct {
	Columns []ColumnSnapshot `json:"columns" yaml:"columns"`
}

// ColumnSnapshot is one column of a Snapshot.
type ColumnSnapshot struct {
	ID   string        `json:"id" yaml:"id"`
	Data ColumnData    `json:"data" yaml:"data"`
	Rows []RowSnapshot `json:"rows" yaml:"rows"`
}

// RowSnapshot is one row of a Snapshot.
type RowSnapshot struct {
	ID   string  `json:"id" yaml:"id"`
	Data RowData `json:"data" yaml:"data"`
}

// RowCount returns the number of rows across all columns.
func (s Snapshot) RowCount() int {
	total := 0
	for _, col := range s.Columns {
		total += len(col.Rows)
	}
	return total
}

// Validate checks ids and payloads of the snapshot.
func (s Snapshot) Validate() error {
	seen := map[string]struct{}{}
	claim := func(id string) error {
		id = strings.TrimSpace(id)
		if id == "" {
			return ErrInvalidID
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateID
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, col := range s.Columns {
		if err := claim(col.ID); err != nil {
			return err
		}
		if _, err := NewColumnData(col.Data.Name, col.Data.WIPLimit); err != nil {
			return err
		}
		for _, row := range col.Rows {
			if err := claim(row.ID); err != nil {
				return err
			}
			if _, err := NewRowData(row.Data.Title, row.Data.Description, row.Data.Labels); err != nil {
				return err
			}
		}
	}
	return nil
}
