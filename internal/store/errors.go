package store

import "errors"

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique constraint was violated.
	ErrConflict = errors.New("conflict")
)
