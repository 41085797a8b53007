package domain

import (
	"slices"
	"strings"
)

// RowData is the application payload carried by a row.
type RowData struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Row is a read-only view of one row.
type Row struct {
	ID       string
	Index    int
	ColumnID string
	Data     RowData
	Layout   *Rect
	Hidden   bool
}

// RowInput holds values used to add a row.
type RowInput struct {
	ID   string
	Data RowData
}

// RowPatch holds optional row updates; nil fields are left alone.
type RowPatch struct {
	Title       *string
	Description *string
	Labels      *[]string
}

// NewRowData validates and normalizes a row payload.
func NewRowData(title, description string, labels []string) (RowData, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return RowData{}, ErrInvalidTitle
	}
	return RowData{
		Title:       title,
		Description: strings.TrimSpace(description),
		Labels:      normalizeLabels(labels),
	}, nil
}

// Apply returns data with the patch applied.
func (p RowPatch) Apply(data RowData) (RowData, error) {
	if p.Title != nil {
		data.Title = *p.Title
	}
	if p.Description != nil {
		data.Description = *p.Description
	}
	if p.Labels != nil {
		data.Labels = *p.Labels
	}
	return NewRowData(data.Title, data.Description, data.Labels)
}

// Clone returns a deep copy of the payload.
func (d RowData) Clone() RowData {
	d.Labels = slices.Clone(d.Labels)
	return d
}

// Markdown renders the payload as a markdown fragment.
func (d RowData) Markdown() string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(d.Title)
	b.WriteString("\n")
	if len(d.Labels) > 0 {
		b.WriteString("\n")
		for _, label := range d.Labels {
			b.WriteString("`")
			b.WriteString(label)
			b.WriteString("` ")
		}
		b.WriteString("\n")
	}
	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(d.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func normalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}
