package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no ontology is stored under an IRI.
	ErrNotFound = errors.New("ontology not found")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store closed")
)
