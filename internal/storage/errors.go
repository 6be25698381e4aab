package storage

import "errors"

var (
	// ErrNotFound means no row matched the id or key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned by append-only stores for a key they already hold.
	ErrDuplicateKey = errors.New("record already exists")

	// ErrInvalidInput rejects nil records and records without a key.
	ErrInvalidInput = errors.New("invalid record")
)
