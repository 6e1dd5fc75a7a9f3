package parser

import (
	"bytes"
	"io"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/source"
	"github.com/c360studio/ontopy/term"
)

// NTriplesParser parses N-Triples and N-Quads documents. Graph labels of
// quads are dropped.
type NTriplesParser struct{}

// NewNTriplesParser creates a new N-Triples parser.
func NewNTriplesParser() *NTriplesParser {
	return &NTriplesParser{}
}

// MimeType returns the primary MIME type for this parser.
func (p *NTriplesParser) MimeType() string {
	return MimeNTriples
}

// CanParse returns true for N-Triples and N-Quads MIME types.
func (p *NTriplesParser) CanParse(mimeType string) bool {
	return mimeType == MimeNTriples || mimeType == "application/n-quads"
}

// Parse parses N-Triples content into a document.
func (p *NTriplesParser) Parse(location string, content []byte) (*source.Document, error) {
	doc := &source.Document{
		Location: location,
		MimeType: MimeNTriples,
		Prefixes: make(map[string]string),
	}
	dec := rdf.NewDecoder(bytes.NewReader(content))
	for {
		s, err := dec.Unmarshal()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &source.FormatError{Location: location, MimeType: MimeNTriples, Err: err}
		}
		doc.Statements = append(doc.Statements, term.Triple(
			term.Normalize(s.Subject),
			term.Normalize(s.Predicate),
			term.Normalize(s.Object),
		))
	}
	return doc, nil
}
