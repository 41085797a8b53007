package domain

import "strings"

// ColumnData is the application payload carried by a column.
type ColumnData struct {
	Name     string `json:"name" yaml:"name"`
	WIPLimit int    `json:"wip_limit,omitempty" yaml:"wip_limit,omitempty"`
}

// Column is a read-only view of one board column and its rows in order.
type Column struct {
	ID              string
	Index           int
	Data            ColumnData
	Rows            []Row
	Layout          *Rect
	ScrollOffset    float64
	MaxScrollOffset float64
	Hidden          bool
}

// ColumnInput holds values used to add a column.
type ColumnInput struct {
	ID   string
	Data ColumnData
}

// ColumnPatch holds optional column updates; nil fields are left alone.
type ColumnPatch struct {
	Name     *string
	WIPLimit *int
}

// NewColumnData validates and normalizes a column payload.
func NewColumnData(name string, wipLimit int) (ColumnData, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ColumnData{}, ErrInvalidName
	}
	if wipLimit < 0 {
		return ColumnData{}, ErrInvalidWIPLimit
	}
	return ColumnData{Name: name, WIPLimit: wipLimit}, nil
}

// Apply returns data with the patch applied.
func (p ColumnPatch) Apply(data ColumnData) (ColumnData, error) {
	if p.Name != nil {
		data.Name = *p.Name
	}
	if p.WIPLimit != nil {
		data.WIPLimit = *p.WIPLimit
	}
	return NewColumnData(data.Name, data.WIPLimit)
}

// OverLimit reports whether the column holds more rows than its WIP limit allows.
func (c Column) OverLimit() bool {
	return c.Data.WIPLimit > 0 && len(c.Rows) > c.Data.WIPLimit
}

// RowIDs returns the ids of the column rows in order.
func (c Column) RowIDs() []string {
	out := make([]string, 0, len(c.Rows))
	for _, row := range c.Rows {
		out = append(out, row.ID)
	}
	return out
}
