package emmo

import (
	"testing"

	"github.com/c360studio/ontopy/vocabulary/owl"
	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	tests := []struct {
		predicate   string
		expectedIRI string
	}{
		{ConceptPrefLabel, owl.PrefLabel},
		{ConceptAltLabel, owl.AltLabel},
		{ConceptElucidation, Elucidation},
		{ConceptComment, owl.Comment},
		{ConceptExample, Example},
		{ConceptSubClassOf, owl.SubClassOf},
		{MetadataTitle, owl.Title},
		{MetadataCreator, owl.Creator},
		{MetadataVersionIRI, owl.VersionIRI},
		{ProvenanceSource, owl.Source},
	}

	for _, tt := range tests {
		t.Run(tt.predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(tt.predicate)
			if meta == nil || meta.Description == "" {
				t.Fatalf("predicate %s not registered or missing description", tt.predicate)
			}
			if meta.StandardIRI != tt.expectedIRI {
				t.Errorf("predicate %s: expected IRI %s, got %s", tt.predicate, tt.expectedIRI, meta.StandardIRI)
			}
			if got := IRIFor(tt.predicate); got != tt.expectedIRI {
				t.Errorf("IRIFor(%s) = %s, want %s", tt.predicate, got, tt.expectedIRI)
			}
		})
	}
}

func TestIRIForUnknownPredicate(t *testing.T) {
	if got := IRIFor("ontopy.concept.unknown"); got != "" {
		t.Errorf("IRIFor(unknown) = %q, want empty", got)
	}
}

func TestResolveAlias(t *testing.T) {
	if got := ResolveAlias("emmo"); got != Aliases["emmo"] {
		t.Errorf("ResolveAlias(emmo) = %q", got)
	}
	if got := ResolveAlias("https://example.org/onto.ttl"); got != "https://example.org/onto.ttl" {
		t.Errorf("non-alias identifier changed: %q", got)
	}
}
