package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

func TestWorldOntologyIsGetOrCreate(t *testing.T) {
	w := NewWorld()
	a := w.Ontology("http://example.org/onto#")
	b := w.Ontology("http://example.org/onto")
	c := w.Ontology("http://example.org/onto/")

	assert.Same(t, a, b)
	assert.Same(t, a, c)
	assert.Equal(t, "http://example.org/onto", a.IRI())
	assert.Equal(t, "http://example.org/onto#", a.Base())
	assert.Len(t, w.Ontologies(), 1)
}

func TestWorldLookupAndAlias(t *testing.T) {
	w := NewWorld()
	o := w.Ontology("http://example.org/onto")
	w.Alias("onto.ttl", o)

	got, ok := w.Lookup("http://example.org/onto#")
	require.True(t, ok)
	assert.Same(t, o, got)

	got, ok = w.Lookup("onto.ttl")
	require.True(t, ok)
	assert.Same(t, o, got)

	_, ok = w.Lookup("missing")
	assert.False(t, ok)

	w.Remove("http://example.org/onto")
	_, ok = w.Lookup("onto.ttl")
	assert.False(t, ok)
	assert.Empty(t, w.Ontologies())
}

func TestWorldRekey(t *testing.T) {
	w := NewWorld()
	o := w.Ontology("file:///tmp/onto.ttl")
	w.Rekey(o, "http://example.org/onto/")

	assert.Equal(t, "http://example.org/onto", o.IRI())
	assert.Equal(t, "http://example.org/onto/", o.Base())

	got, ok := w.Lookup("http://example.org/onto")
	require.True(t, ok)
	assert.Same(t, o, got)

	got, ok = w.Lookup("file:///tmp/onto.ttl")
	require.True(t, ok, "the old IRI stays an alias")
	assert.Same(t, o, got)
	assert.Len(t, w.Ontologies(), 1)
}

func TestWorldByLabel(t *testing.T) {
	w := NewWorld()
	a := w.Ontology("http://example.org/a")
	b := w.Ontology("http://example.org/b")

	atom, err := a.NewClass("Atom")
	require.NoError(t, err)
	require.NoError(t, a.Annotate(atom.IRI(), owl.PrefLabel, term.LangLiteral("Atom", "en")))

	other, err := b.NewClass("EMMO_1234")
	require.NoError(t, err)
	require.NoError(t, b.Annotate(other.IRI(), owl.Label, term.Literal("Atom")))

	found := w.ByLabel("Atom")
	require.Len(t, found, 2)
	assert.Equal(t, atom.IRI(), found[0].IRI())
	assert.Equal(t, other.IRI(), found[1].IRI())
}

func TestWithLabelAnnotations(t *testing.T) {
	w := NewWorld(WithLabelAnnotations(owl.AltLabel))
	o := w.Ontology("http://example.org/a")
	c, err := o.NewClass("C")
	require.NoError(t, err)
	require.NoError(t, o.Annotate(c.IRI(), owl.PrefLabel, term.Literal("Pref")))
	require.NoError(t, o.Annotate(c.IRI(), owl.AltLabel, term.Literal("Alt")))

	assert.Equal(t, []string{owl.AltLabel}, w.LabelAnnotations())
	assert.Equal(t, "Alt", c.PreferredLabel())
	assert.Empty(t, o.ByLabel("Pref"))
}
