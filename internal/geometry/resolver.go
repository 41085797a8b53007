// Package geometry maps pointer positions to the column or row beneath them.
package geometry

import (
	"math"

	"github.com/evanschultz/dragboard/internal/domain"
)

// DefaultThreshold is the hit margin applied around column rectangles.
const DefaultThreshold = 35

// Resolver holds the hit threshold. The zero value uses no margin.
type Resolver struct {
	Threshold float64
}

// NewResolver returns a resolver with the given threshold, or DefaultThreshold when it is not positive.
func NewResolver(threshold float64) Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Resolver{Threshold: threshold}
}

// FindColumnAt returns the first column whose rectangle, grown vertically by the
// threshold, contains (x, y). Used while dragging rows.
func (r Resolver) FindColumnAt(columns []domain.Column, x, y float64) (domain.Column, bool) {
	for _, col := range columns {
		l := col.Layout
		if l == nil {
			continue
		}
		if x > l.X && x < l.Right() && y > l.Y-r.Threshold && y < l.Bottom()+r.Threshold {
			return col, true
		}
	}
	return domain.Column{}, false
}

// FindColumnAtStrict returns the first column whose rectangle, shrunk
// horizontally by the threshold, contains (x, y). Used while dragging columns.
func (r Resolver) FindColumnAtStrict(columns []domain.Column, x, y float64) (domain.Column, bool) {
	for _, col := range columns {
		l := col.Layout
		if l == nil {
			continue
		}
		if x > l.X+r.Threshold && x < l.Right()-r.Threshold && y > l.Y && y < l.Bottom() {
			return col, true
		}
	}
	return domain.Column{}, false
}

// FindRowAt returns the row under (x, y) for a drag carrying dragged.
// When nothing matches and layouts are known, the first row wins for a pointer
// at or above it and the last row for a pointer at or below its top edge.
func (r Resolver) FindRowAt(rows []domain.Row, x, y float64, dragged *domain.Rect) (domain.Row, bool) {
	for _, row := range rows {
		if selectRow(x, y, dragged, row.Layout) {
			return row, true
		}
	}
	if len(rows) == 0 {
		return domain.Row{}, false
	}
	if first := rows[0]; first.Layout != nil && y <= first.Layout.Y {
		return first, true
	}
	if last := rows[len(rows)-1]; last.Layout != nil && y >= last.Layout.Y {
		return last, true
	}
	return domain.Row{}, false
}

// selectRow biases the vertical band toward the direction of travel when the
// dragged row and the candidate differ in height.
func selectRow(x, y float64, dragged, item *domain.Rect) bool {
	if item == nil || dragged == nil {
		return false
	}
	if x <= item.X || x >= item.Right() {
		return false
	}

	diff := math.Abs(dragged.Height - item.Height)
	var up, down bool
	switch {
	case diff > item.Height:
		up = y > item.Y
		down = y < item.Bottom()
	case y < dragged.Y:
		up = y > item.Y
		down = y < item.Bottom()-diff
	default:
		up = y > item.Y+diff
		down = y < item.Bottom()
	}
	return up && down
}
