package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound                   = errors.New("not found")
	ErrNotStarted                 = errors.New("service not started")
	ErrAlreadyStarted             = errors.New("service already started")
	ErrUnsupportedFormat          = errors.New("unsupported snapshot format")
	ErrUnsupportedSnapshotVersion = errors.New("unsupported snapshot version")
)
