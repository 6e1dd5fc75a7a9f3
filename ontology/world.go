// Package ontology holds loaded and authored OWL ontologies in memory.
//
// A World is the session every ontology belongs to. Ontologies store their
// statements in a gonum rdf.Graph and expose the queries the loader and the
// spreadsheet builder need: labels, class hierarchy, imports, restrictions.
package ontology

import (
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/ontopy/vocabulary/owl"
)

// World is a registry of ontologies keyed by IRI, plus aliases such as the
// identifier a document was loaded under.
type World struct {
	mu               sync.RWMutex
	ontologies       map[string]*Ontology
	aliases          map[string]*Ontology
	labelAnnotations []string
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLabelAnnotations sets the annotation properties that count as labels,
// in order of preference.
func WithLabelAnnotations(iris ...string) WorldOption {
	return func(w *World) {
		w.labelAnnotations = append([]string(nil), iris...)
	}
}

// NewWorld creates an empty world.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		ontologies:       make(map[string]*Ontology),
		aliases:          make(map[string]*Ontology),
		labelAnnotations: []string{owl.PrefLabel, owl.Label},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NormalizeIRI drops trailing '#' and '/' so that both spellings of an
// ontology IRI name the same ontology.
func NormalizeIRI(iri string) string {
	return strings.TrimRight(strings.TrimSpace(iri), "#/")
}

// Ontology returns the ontology with the given IRI, creating an empty one
// if the world holds none.
func (w *World) Ontology(iri string) *Ontology {
	key := NormalizeIRI(iri)

	w.mu.Lock()
	defer w.mu.Unlock()

	if o, ok := w.ontologies[key]; ok {
		return o
	}
	o := newOntology(w, iri)
	w.ontologies[key] = o
	return o
}

// Lookup returns the ontology registered under an IRI or alias.
func (w *World) Lookup(key string) (*Ontology, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if o, ok := w.ontologies[NormalizeIRI(key)]; ok {
		return o, true
	}
	o, ok := w.aliases[key]
	return o, ok
}

// Alias registers key as another name of o.
func (w *World) Alias(key string, o *Ontology) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.aliases[key] = o
}

// Rekey moves o to the registry slot of iri. It is used when a document
// declares an ontology IRI different from the identifier it was loaded
// under. An ontology already registered under iri is replaced.
func (w *World) Rekey(o *Ontology, iri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old := NormalizeIRI(o.iri)
	if w.ontologies[old] == o {
		delete(w.ontologies, old)
		w.aliases[o.iri] = o
	}
	o.setIRI(iri)
	w.ontologies[NormalizeIRI(iri)] = o
}

// Ontologies returns every registered ontology ordered by IRI.
func (w *World) Ontologies() []*Ontology {
	w.mu.RLock()
	defer w.mu.RUnlock()

	list := make([]*Ontology, 0, len(w.ontologies))
	for _, o := range w.ontologies {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].iri < list[j].iri })
	return list
}

// Remove drops the ontology with the given IRI and its aliases.
func (w *World) Remove(iri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := NormalizeIRI(iri)
	o, ok := w.ontologies[key]
	if !ok {
		return
	}
	delete(w.ontologies, key)
	for k, v := range w.aliases {
		if v == o {
			delete(w.aliases, k)
		}
	}
}

// LabelAnnotations returns the label annotation IRIs in order of preference.
func (w *World) LabelAnnotations() []string {
	return append([]string(nil), w.labelAnnotations...)
}

// ByLabel returns the entities labelled label in any ontology of the world.
func (w *World) ByLabel(label string) []*Entity {
	var found []*Entity
	seen := make(map[string]bool)
	for _, o := range w.Ontologies() {
		for _, iri := range o.ownByLabel(label) {
			if !seen[iri] {
				seen[iri] = true
				found = append(found, o.Entity(iri))
			}
		}
	}
	return found
}
