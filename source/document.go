// Package source holds the parsed form of ontology documents and the errors
// raised while reading them.
package source

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/formats/rdf"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("malformed document")

// Document is the result of parsing an RDF document.
type Document struct {
	// Location is the path or URL the document was read from.
	Location string

	// MimeType is the media type of the parser that produced the document.
	MimeType string

	// BaseIRI is the base declared in the document, if any.
	BaseIRI string

	// Prefixes maps declared prefixes to namespace IRIs.
	Prefixes map[string]string

	// Statements holds the triples in document order. Terms carry no UIDs.
	Statements []*rdf.Statement
}

// OntologyIRI returns the subject of the first owl:Ontology declaration.
func (d *Document) OntologyIRI() (string, bool) {
	const typ, onto = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>", "<http://www.w3.org/2002/07/owl#Ontology>"
	for _, s := range d.Statements {
		if s.Predicate.Value == typ && s.Object.Value == onto {
			v := s.Subject.Value
			if len(v) > 2 && v[0] == '<' {
				return v[1 : len(v)-1], true
			}
		}
	}
	return "", false
}

// FormatError reports a document that could not be parsed.
type FormatError struct {
	Location string
	MimeType string
	Line     int
	Err      error
}

func (e *FormatError) Error() string {
	loc := e.Location
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s (%s) line %d: %v", loc, e.MimeType, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s (%s): %v", loc, e.MimeType, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports ErrFormat as a match.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }
