package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrVersionConflict is returned when an optimistic write lost to a
	// concurrent writer. The caller re-reads and retries the whole
	// operation.
	ErrVersionConflict = errors.New("version conflict: record modified by concurrent writer")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
