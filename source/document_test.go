package source

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

func TestDocumentOntologyIRI(t *testing.T) {
	doc := &Document{Statements: []*rdf.Statement{
		{
			Subject:   rdf.Term{Value: "<http://example.org/onto>"},
			Predicate: rdf.Term{Value: "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>"},
			Object:    rdf.Term{Value: "<http://www.w3.org/2002/07/owl#Ontology>"},
		},
	}}
	iri, ok := doc.OntologyIRI()
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/onto", iri)

	_, ok = (&Document{}).OntologyIRI()
	assert.False(t, ok)
}

func TestFormatError(t *testing.T) {
	err := error(&FormatError{Location: "a.ttl", MimeType: "text/turtle", Line: 3, Err: io.ErrUnexpectedEOF})
	assert.True(t, errors.Is(err, ErrFormat))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "parse a.ttl (text/turtle) line 3: unexpected EOF", err.Error())

	var fe *FormatError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Line)
}
