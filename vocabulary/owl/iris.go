// Package owl provides the W3C namespace and term IRIs used when reading and
// writing OWL ontologies.
package owl

import "github.com/c360studio/semstreams/vocabulary"

// Namespaces of the standard vocabularies.
const (
	RDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	OWL     = "http://www.w3.org/2002/07/owl#"
	XSD     = "http://www.w3.org/2001/XMLSchema#"
	SKOS    = "http://www.w3.org/2004/02/skos/core#"
	DCTerms = "http://purl.org/dc/terms/"
	PROV    = "http://www.w3.org/ns/prov#"
	XMLNS   = "http://www.w3.org/XML/1998/namespace"
)

// RDF terms.
const (
	Type        = RDF + "type"
	First       = RDF + "first"
	Rest        = RDF + "rest"
	Nil         = RDF + "nil"
	LangString  = RDF + "langString"
	XMLLiteral  = RDF + "XMLLiteral"
	Description = RDF + "Description"
)

// RDFS terms.
const (
	SubClassOf    = RDFS + "subClassOf"
	SubPropertyOf = RDFS + "subPropertyOf"
	Label         = RDFS + "label"
	Comment       = RDFS + "comment"
	SeeAlso       = RDFS + "seeAlso"
	Domain        = RDFS + "domain"
	Range         = RDFS + "range"
)

// OWL terms.
const (
	Ontology                = OWL + "Ontology"
	Imports                 = OWL + "imports"
	VersionIRI              = OWL + "versionIRI"
	VersionInfo             = OWL + "versionInfo"
	Class                   = OWL + "Class"
	Thing                   = OWL + "Thing"
	Nothing                 = OWL + "Nothing"
	ObjectProperty          = OWL + "ObjectProperty"
	DatatypeProperty        = OWL + "DatatypeProperty"
	AnnotationProperty      = OWL + "AnnotationProperty"
	NamedIndividual         = OWL + "NamedIndividual"
	Restriction             = OWL + "Restriction"
	OnProperty              = OWL + "onProperty"
	OnClass                 = OWL + "onClass"
	SomeValuesFrom          = OWL + "someValuesFrom"
	AllValuesFrom           = OWL + "allValuesFrom"
	HasValue                = OWL + "hasValue"
	MinQualifiedCardinality = OWL + "minQualifiedCardinality"
	MaxQualifiedCardinality = OWL + "maxQualifiedCardinality"
	QualifiedCardinality    = OWL + "qualifiedCardinality"
	EquivalentClass         = OWL + "equivalentClass"
	DisjointWith            = OWL + "disjointWith"
)

// XSD datatypes.
const (
	String             = XSD + "string"
	Integer            = XSD + "integer"
	Decimal            = XSD + "decimal"
	Double             = XSD + "double"
	Boolean            = XSD + "boolean"
	NonNegativeInteger = XSD + "nonNegativeInteger"
)

// SKOS and Dublin Core terms. The shared ones come from the semstreams
// vocabulary so that both projects agree on them.
const (
	PrefLabel = vocabulary.SkosPrefLabel
	AltLabel  = vocabulary.SkosAltLabel
	Title     = vocabulary.DcTitle
	Source    = vocabulary.DcSource

	Abstract    = DCTerms + "abstract"
	Creator     = DCTerms + "creator"
	Contributor = DCTerms + "contributor"
	License     = DCTerms + "license"
	Publisher   = DCTerms + "publisher"
)

// DefaultPrefixes returns the prefix table used when nothing else is known
// about a document.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":     RDF,
		"rdfs":    RDFS,
		"owl":     OWL,
		"xsd":     XSD,
		"skos":    SKOS,
		"dcterms": DCTerms,
	}
}
