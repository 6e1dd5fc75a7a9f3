// Package emmo provides the vocabulary of the European Materials & Modelling
// Ontology (EMMO) and the spreadsheet predicates used by the Excel builder.
//
// Spreadsheet columns and metadata keys are registered as dotted predicates
// in the semstreams vocabulary registry, each carrying the standard IRI that
// the builder writes into the generated ontology:
//
//	ontopy.concept.preflabel     -> skos:prefLabel
//	ontopy.concept.elucidation   -> emmo:EMMO_967080e5_2f42_4eb2_a3a9_c58143e835f9
//	ontopy.metadata.title        -> dcterms:title
//
// Import this package to register the predicates:
//
//	import _ "github.com/c360studio/ontopy/vocabulary/emmo"
package emmo
