package excelparser

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/ontology"
)

// DefaultBaseIRI is the namespace of generated ontologies whose metadata
// sheet names no ontology IRI.
const DefaultBaseIRI = "http://emmo.info/emmo/domain/onto#"

// IRIScheme decides how entity IRIs are formed.
type IRIScheme string

const (
	// SchemeLabel appends the entity name to the base IRI.
	SchemeLabel IRIScheme = "label"

	// SchemeUUID appends "EMMO_" and a random UUID, with underscores, to
	// the base IRI. The name is kept as preferred label.
	SchemeUUID IRIScheme = "uuid"
)

// Sheets names the worksheets of a workbook.
type Sheets struct {
	Concepts string `yaml:"concepts"`
	Metadata string `yaml:"metadata"`
	Imports  string `yaml:"imports"`
}

// Importer loads the ontologies listed on the imports sheet. *loader.Loader
// implements it.
type Importer interface {
	Import(ctx context.Context, iri, location string) (*ontology.Ontology, error)
}

// Options configures reading and building.
type Options struct {
	// BaseIRI is the namespace of the generated ontology. Empty means
	// DefaultBaseIRI.
	BaseIRI string

	// IgnoreMetadataIRI keeps BaseIRI even when the metadata sheet names an
	// ontology IRI.
	IgnoreMetadataIRI bool

	// Root names the parent of rows with an empty parent cell. Empty means
	// owl:Thing.
	Root string

	// Language tags preferred labels and text annotations.
	Language string

	IRIScheme IRIScheme

	// Force skips rows with unresolved parents instead of failing.
	Force bool

	// SkipAfterHeader is the number of rows after the header that hold
	// column descriptions rather than concepts.
	SkipAfterHeader int

	Sheets Sheets

	// OutputPath is the location recorded for the generated ontology in the
	// output catalog. Empty means the spreadsheet path with a .ttl
	// extension.
	OutputPath string

	// World receives the generated ontology. Nil means a new world.
	World *ontology.World

	// Importer loads imported ontologies so parents can resolve by label.
	Importer Importer

	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		BaseIRI:   DefaultBaseIRI,
		Language:  "en",
		IRIScheme: SchemeLabel,
		Sheets: Sheets{
			Concepts: "Concepts",
			Metadata: "Metadata",
			Imports:  "ImportedOntologies",
		},
	}
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Language != "" {
		if _, err := language.Parse(o.Language); err != nil {
			return fmt.Errorf("invalid language %q: %w", o.Language, err)
		}
	}
	switch o.IRIScheme {
	case SchemeLabel, SchemeUUID:
	default:
		return fmt.Errorf("unknown IRI scheme %q", o.IRIScheme)
	}
	if o.SkipAfterHeader < 0 {
		return fmt.Errorf("skip after header must not be negative")
	}
	if o.Sheets.Concepts == "" {
		return fmt.Errorf("concepts sheet name is required")
	}
	return nil
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BaseIRI == "" {
		o.BaseIRI = d.BaseIRI
	}
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.IRIScheme == "" {
		o.IRIScheme = d.IRIScheme
	}
	if o.Sheets.Concepts == "" {
		o.Sheets.Concepts = d.Sheets.Concepts
	}
	if o.Sheets.Metadata == "" {
		o.Sheets.Metadata = d.Sheets.Metadata
	}
	if o.Sheets.Imports == "" {
		o.Sheets.Imports = d.Sheets.Imports
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
