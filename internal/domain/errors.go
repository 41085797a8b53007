package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidWIPLimit = errors.New("invalid wip limit")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidColumnID = errors.New("invalid column id")
	ErrInvalidDragKind = errors.New("invalid drag kind")
	ErrDuplicateID     = errors.New("duplicate id")
)
