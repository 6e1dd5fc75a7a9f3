package emmo

import (
	"github.com/c360studio/ontopy/vocabulary/owl"
	"github.com/c360studio/semstreams/vocabulary"
)

// Concept predicates map columns of the concepts sheet.
const (
	// ConceptPrefLabel is the preferred label column.
	ConceptPrefLabel = "ontopy.concept.preflabel"

	// ConceptAltLabel holds alternative labels, separated by semicolons.
	ConceptAltLabel = "ontopy.concept.altlabel"

	// ConceptElucidation is the EMMO elucidation column.
	ConceptElucidation = "ontopy.concept.elucidation"

	// ConceptComment is a free text comment.
	ConceptComment = "ontopy.concept.comment"

	// ConceptExample is an illustrative example.
	ConceptExample = "ontopy.concept.example"

	// ConceptSubClassOf lists parent names, separated by semicolons.
	ConceptSubClassOf = "ontopy.concept.subclassof"
)

// Metadata predicates map keys of the metadata sheet.
const (
	MetadataTitle       = "ontopy.metadata.title"
	MetadataAbstract    = "ontopy.metadata.abstract"
	MetadataCreator     = "ontopy.metadata.creator"
	MetadataContributor = "ontopy.metadata.contributor"
	MetadataLicense     = "ontopy.metadata.license"
	MetadataPublisher   = "ontopy.metadata.publisher"
	MetadataComment     = "ontopy.metadata.comment"
	MetadataVersionInfo = "ontopy.metadata.versioninfo"
	MetadataVersionIRI  = "ontopy.metadata.versioniri"
)

// ProvenanceSource links a generated ontology to the document it was built from.
const ProvenanceSource = "ontopy.provenance.source"

func init() {
	registerConceptPredicates()
	registerMetadataPredicates()

	vocabulary.Register(ProvenanceSource,
		vocabulary.WithDescription("Document an ontology was generated from"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Source))
}

func registerConceptPredicates() {
	vocabulary.Register(ConceptPrefLabel,
		vocabulary.WithDescription("Preferred label of a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.PrefLabel))

	vocabulary.Register(ConceptAltLabel,
		vocabulary.WithDescription("Alternative label of a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.AltLabel))

	vocabulary.Register(ConceptElucidation,
		vocabulary.WithDescription("Short human readable explanation of a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Elucidation))

	vocabulary.Register(ConceptComment,
		vocabulary.WithDescription("Free text comment on a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Comment))

	vocabulary.Register(ConceptExample,
		vocabulary.WithDescription("Illustrative example of a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Example))

	vocabulary.Register(ConceptSubClassOf,
		vocabulary.WithDescription("Parent concepts by name"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.SubClassOf))
}

func registerMetadataPredicates() {
	vocabulary.Register(MetadataTitle,
		vocabulary.WithDescription("Ontology title"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Title))

	vocabulary.Register(MetadataAbstract,
		vocabulary.WithDescription("Ontology abstract"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Abstract))

	vocabulary.Register(MetadataCreator,
		vocabulary.WithDescription("Ontology creator"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Creator))

	vocabulary.Register(MetadataContributor,
		vocabulary.WithDescription("Ontology contributor"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Contributor))

	vocabulary.Register(MetadataLicense,
		vocabulary.WithDescription("License the ontology is published under"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.License))

	vocabulary.Register(MetadataPublisher,
		vocabulary.WithDescription("Ontology publisher"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Publisher))

	vocabulary.Register(MetadataComment,
		vocabulary.WithDescription("Comment on the ontology"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.Comment))

	vocabulary.Register(MetadataVersionInfo,
		vocabulary.WithDescription("Ontology version string"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(owl.VersionInfo))

	vocabulary.Register(MetadataVersionIRI,
		vocabulary.WithDescription("IRI of this version of the ontology"),
		vocabulary.WithDataType("iri"),
		vocabulary.WithIRI(owl.VersionIRI))
}

// IRIFor returns the standard IRI registered for a predicate, or "" when the
// predicate is unknown.
func IRIFor(predicate string) string {
	meta := vocabulary.GetPredicateMetadata(predicate)
	if meta == nil {
		return ""
	}
	return meta.StandardIRI
}
