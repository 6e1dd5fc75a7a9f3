// Package export serializes ontology graphs to Turtle, N-Triples, RDF/XML and
// JSON-LD.
package export

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatRDFXML produces RDF/XML (.owl) output.
	FormatRDFXML Format = "rdfxml"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// RDFExporter collects statements and prefixes and serializes them.
// Output is deterministic for a given set of statements.
type RDFExporter struct {
	statements []*rdf.Statement
	prefixes   map[string]string
}

// NewRDFExporter creates a new RDF exporter with the standard prefixes.
func NewRDFExporter() *RDFExporter {
	return &RDFExporter{
		prefixes: owl.DefaultPrefixes(),
	}
}

// SetPrefix sets a namespace prefix.
func (e *RDFExporter) SetPrefix(prefix, iri string) {
	e.prefixes[prefix] = iri
}

// SetPrefixes sets every prefix in prefixes.
func (e *RDFExporter) SetPrefixes(prefixes map[string]string) {
	for k, v := range prefixes {
		e.prefixes[k] = v
	}
}

// AddStatements adds copies of stmts to the export.
func (e *RDFExporter) AddStatements(stmts ...*rdf.Statement) {
	for _, s := range stmts {
		e.statements = append(e.statements, term.Clone(s))
	}
}

// Len returns the number of statements added.
func (e *RDFExporter) Len() int {
	return len(e.statements)
}

// Export serializes all statements to the specified format.
func (e *RDFExporter) Export(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		w := NewTurtleWriter(e.prefixes)
		w.WritePrefixes()
		w.WriteStatements(e.statements)
		return w.String(), nil
	case FormatNTriples:
		w := NewNTriplesWriter()
		sorted := append([]*rdf.Statement(nil), e.statements...)
		term.Sort(sorted)
		for _, s := range sorted {
			w.WriteStatement(s)
		}
		return w.String(), nil
	case FormatRDFXML:
		w := NewRDFXMLWriter(e.prefixes)
		if err := w.WriteStatements(e.statements); err != nil {
			return "", err
		}
		return w.String(), nil
	case FormatJSONLD:
		w := NewJSONLDWriter(e.prefixes)
		w.WriteStatements(e.statements)
		return w.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Write serializes all statements to w.
func (e *RDFExporter) Write(w io.Writer, format Format) error {
	out, err := e.Export(format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteFile serializes all statements to path. An empty format is derived
// from the file extension.
func (e *RDFExporter) WriteFile(path string, format Format) error {
	if format == "" {
		f, ok := FormatFromExtension(path)
		if !ok {
			return fmt.Errorf("cannot infer format from %s", path)
		}
		format = f
	}
	out, err := e.Export(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
