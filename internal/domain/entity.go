package domain

import "strings"

// EntityKind names the two kinds of board entities.
type EntityKind string

const (
	EntityColumn EntityKind = "column"
	EntityRow    EntityKind = "row"
)

// EntityRef identifies one measurable entity.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// ColumnRef builds a column reference.
func ColumnRef(id string) EntityRef {
	return EntityRef{Kind: EntityColumn, ID: id}
}

// RowRef builds a row reference.
func RowRef(id string) EntityRef {
	return EntityRef{Kind: EntityRow, ID: id}
}

// String renders the reference as kind:id.
func (r EntityRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// ParseEntityRef parses the kind:id form produced by String.
func ParseEntityRef(raw string) (EntityRef, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || strings.TrimSpace(id) == "" {
		return EntityRef{}, ErrInvalidID
	}
	switch EntityKind(kind) {
	case EntityColumn, EntityRow:
	default:
		return EntityRef{}, ErrInvalidDragKind
	}
	return EntityRef{Kind: EntityKind(kind), ID: strings.TrimSpace(id)}, nil
}

// MarshalText encodes the reference as kind:id; the zero reference encodes empty.
func (r EntityRef) MarshalText() ([]byte, error) {
	if r == (EntityRef{}) {
		return nil, nil
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes the kind:id form. Empty input yields the zero reference.
func (r *EntityRef) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*r = EntityRef{}
		return nil
	}
	ref, err := ParseEntityRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
