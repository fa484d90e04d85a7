package store

import "errors"

// Sentinel errors every store implementation must return so callers
// (internal/httpapi) can map them to the 404/409 status codes of
// spec.md §7 without depending on a concrete driver's error type.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)
