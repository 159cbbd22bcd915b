package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	// For the delivery log this is the benign "already claimed" signal.
	ErrDuplicateKey = errors.New("duplicate key")
)
