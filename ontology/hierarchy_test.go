package ontology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// chain builds Matter <- Atom <- Hydrogen and Matter <- Molecule.
func chain(t *testing.T) (*Ontology, map[string]*Entity) {
	t.Helper()
	o := NewWorld().Ontology("http://example.org/chem#")
	ents := make(map[string]*Entity)
	add := func(name string, parents ...*Entity) {
		e, err := o.NewClass(name, parents...)
		require.NoError(t, err)
		ents[name] = e
	}
	add("Matter")
	add("Atom", ents["Matter"])
	add("Hydrogen", ents["Atom"])
	add("Molecule", ents["Matter"])
	return o, ents
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestHierarchySorted(t *testing.T) {
	o, ents := chain(t)
	h := o.Hierarchy()

	assert.Equal(t, 5, h.Len(), "four classes plus owl:Thing")
	assert.True(t, h.Has(ents["Atom"].IRI()))
	assert.False(t, h.Has("http://example.org/chem#Proton"))

	sorted, err := h.Sorted()
	require.NoError(t, err)
	require.Len(t, sorted, 5)
	assert.Less(t, indexOf(sorted, owl.Thing), indexOf(sorted, ents["Matter"].IRI()))
	assert.Less(t, indexOf(sorted, ents["Matter"].IRI()), indexOf(sorted, ents["Atom"].IRI()))
	assert.Less(t, indexOf(sorted, ents["Atom"].IRI()), indexOf(sorted, ents["Hydrogen"].IRI()))
	assert.Less(t, indexOf(sorted, ents["Matter"].IRI()), indexOf(sorted, ents["Molecule"].IRI()))
}

func TestHierarchyNavigation(t *testing.T) {
	o, ents := chain(t)
	h := o.Hierarchy()

	assert.Equal(t, []string{owl.Thing}, h.Roots())
	assert.Equal(t, []string{ents["Matter"].IRI()}, h.Parents(ents["Atom"].IRI()))
	assert.Equal(t, []string{ents["Atom"].IRI(), ents["Molecule"].IRI()}, h.Children(ents["Matter"].IRI()))
	assert.Nil(t, h.Parents("http://example.org/chem#Proton"))

	assert.Equal(t,
		[]string{ents["Atom"].IRI(), ents["Matter"].IRI(), owl.Thing},
		h.Ancestors(ents["Hydrogen"].IRI()))
	assert.ElementsMatch(t,
		[]string{ents["Atom"].IRI(), ents["Molecule"].IRI(), ents["Hydrogen"].IRI()},
		h.Descendants(ents["Matter"].IRI()))
	assert.Equal(t, ents["Hydrogen"].IRI(), h.Descendants(ents["Matter"].IRI())[2], "breadth first")

	assert.Equal(t, 3, h.Depth(ents["Hydrogen"].IRI()))
	assert.Equal(t, 0, h.Depth(owl.Thing))

	anc := ents["Hydrogen"].Ancestors()
	require.Len(t, anc, 3)
	assert.Equal(t, ents["Atom"].IRI(), anc[0].IRI())
	assert.Len(t, ents["Matter"].Descendants(), 3)
}

func TestHierarchySpansImports(t *testing.T) {
	w := NewWorld()
	base := w.Ontology("http://example.org/base#")
	top := w.Ontology("http://example.org/top#")
	top.AddImport(base)

	matter, err := base.NewClass("Matter")
	require.NoError(t, err)
	atom, err := top.NewClass("Atom", matter)
	require.NoError(t, err)

	h := top.Hierarchy()
	assert.Equal(t, []string{matter.IRI(), owl.Thing}, h.Ancestors(atom.IRI()))
	assert.Empty(t, base.Hierarchy().Descendants(matter.IRI()), "imports are one-way")
}

func TestHierarchyCycle(t *testing.T) {
	o, ents := chain(t)
	require.NoError(t, o.Add(ents["Matter"].Term(), term.IRI(owl.SubClassOf), ents["Hydrogen"].Term()))

	_, err := o.Hierarchy().Sorted()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicHierarchy))
	assert.Contains(t, err.Error(), "Atom, Hydrogen, Matter")
}
