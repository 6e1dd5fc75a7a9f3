package ontology

import "errors"

var (
	// ErrEntityExists is returned when declaring an entity that is already
	// declared with the same kind.
	ErrEntityExists = errors.New("entity already exists")

	// ErrInvalidName is returned for entity names that cannot form an IRI.
	ErrInvalidName = errors.New("invalid entity name")

	// ErrCyclicHierarchy is returned when the subclass graph has a cycle.
	ErrCyclicHierarchy = errors.New("cyclic class hierarchy")

	// ErrInvalidStatement is returned for statements with a literal or blank
	// predicate or a literal subject.
	ErrInvalidStatement = errors.New("invalid statement")
)
