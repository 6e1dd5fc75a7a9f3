package ontology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// Kind classifies an entity by its declared rdf:type.
type Kind int

const (
	KindUnknown Kind = iota
	KindClass
	KindObjectProperty
	KindDataProperty
	KindAnnotationProperty
	KindIndividual
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindClass:              "class",
	KindObjectProperty:     "object property",
	KindDataProperty:       "data property",
	KindAnnotationProperty: "annotation property",
	KindIndividual:         "individual",
}

func (k Kind) String() string { return kindNames[k] }

var kindByType = map[string]Kind{
	owl.Class:              KindClass,
	owl.ObjectProperty:     KindObjectProperty,
	owl.DatatypeProperty:   KindDataProperty,
	owl.AnnotationProperty: KindAnnotationProperty,
	owl.NamedIndividual:    KindIndividual,
}

// Entity is a named resource of an ontology. Queries on an entity look at
// the import closure of the ontology it was obtained from.
type Entity struct {
	onto *Ontology
	iri  string
}

// IRI returns the entity IRI.
func (e *Entity) IRI() string { return e.iri }

// Name returns the local part of the IRI.
func (e *Entity) Name() string {
	if i := strings.LastIndexAny(e.iri, "#/"); i >= 0 {
		return e.iri[i+1:]
	}
	return e.iri
}

// Term returns the entity as an RDF term.
func (e *Entity) Term() rdf.Term { return term.IRI(e.iri) }

// Ontology returns the ontology the entity was obtained from.
func (e *Entity) Ontology() *Ontology { return e.onto }

func (e *Entity) String() string { return e.PreferredLabel() }

// Kind returns the first OWL entity kind the entity is declared as.
func (e *Entity) Kind() Kind {
	for _, t := range e.objects(owl.Type) {
		iri, _ := term.IRIOf(t)
		if k, ok := kindByType[iri]; ok {
			return k
		}
	}
	if e.iri == owl.Thing || e.iri == owl.Nothing {
		return KindClass
	}
	return KindUnknown
}

// objects collects the objects of predicate over the import closure.
func (e *Entity) objects(predicate string) []rdf.Term {
	var out []rdf.Term
	seen := make(map[string]bool)
	for _, o := range e.onto.ImportClosure() {
		for _, t := range o.Objects(e.Term(), term.IRI(predicate)) {
			if !seen[t.Value] {
				seen[t.Value] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// PreferredLabel returns the first label in the configured order of label
// annotations, preferring English and untagged literals. The name is
// returned when the entity has no label.
func (e *Entity) PreferredLabel() string {
	for _, p := range e.onto.labelPredicates() {
		var fallback string
		for _, t := range e.objects(p) {
			text, lang, ok := term.LiteralText(t)
			if !ok {
				continue
			}
			if lang == "en" || strings.HasPrefix(lang, "en-") {
				return text
			}
			if fallback == "" || lang == "" {
				fallback = text
			}
		}
		if fallback != "" {
			return fallback
		}
	}
	return e.Name()
}

// Labels returns every label of the entity, in label annotation order.
func (e *Entity) Labels() []string {
	var labels []string
	seen := make(map[string]bool)
	for _, p := range e.onto.labelPredicates() {
		for _, t := range e.objects(p) {
			if text, _, ok := term.LiteralText(t); ok && !seen[text] {
				seen[text] = true
				labels = append(labels, text)
			}
		}
	}
	return labels
}

// Annotations maps annotation predicate IRIs to the literal values the
// entity carries.
func (e *Entity) Annotations() map[string][]string {
	ann := make(map[string][]string)
	for _, o := range e.onto.ImportClosure() {
		sub, ok := o.graph.TermFor(e.Term().Value)
		if !ok {
			continue
		}
		it := o.graph.From(sub.ID())
		for it.Next() {
			obj := it.Node().(rdf.Term)
			lines := o.graph.Lines(sub.ID(), obj.ID())
			for lines.Next() {
				s := lines.Line().(*rdf.Statement)
				text, _, ok := term.LiteralText(s.Object)
				if !ok {
					continue
				}
				p, _ := term.IRIOf(s.Predicate)
				ann[p] = append(ann[p], text)
			}
		}
	}
	for _, v := range ann {
		sort.Strings(v)
	}
	return ann
}

// parentPredicate is rdfs:subPropertyOf for properties and rdfs:subClassOf
// otherwise.
func (e *Entity) parentPredicate() string {
	switch e.Kind() {
	case KindObjectProperty, KindDataProperty, KindAnnotationProperty:
		return owl.SubPropertyOf
	}
	return owl.SubClassOf
}

// Parents returns the named direct superclasses (or superproperties).
func (e *Entity) Parents() []*Entity {
	var parents []*Entity
	for _, t := range e.objects(e.parentPredicate()) {
		if iri, ok := term.IRIOf(t); ok {
			parents = append(parents, e.onto.Entity(iri))
		}
	}
	return parents
}

// Ancestors returns every named superclass, nearest first.
func (e *Entity) Ancestors() []*Entity {
	return e.entities(e.onto.Hierarchy().Ancestors(e.iri))
}

// Descendants returns every named subclass, nearest first.
func (e *Entity) Descendants() []*Entity {
	return e.entities(e.onto.Hierarchy().Descendants(e.iri))
}

func (e *Entity) entities(iris []string) []*Entity {
	ents := make([]*Entity, len(iris))
	for i, iri := range iris {
		ents[i] = e.onto.Entity(iri)
	}
	return ents
}

// AddParent declares p as a direct parent in the entity's ontology. The
// implicit owl:Thing parent of a class is dropped.
func (e *Entity) AddParent(p *Entity) error {
	if p.iri == e.iri {
		return fmt.Errorf("%w: %s cannot be its own parent", ErrCyclicHierarchy, e.iri)
	}
	pred := term.IRI(e.parentPredicate())
	if p.iri != owl.Thing {
		e.onto.Remove(e.Term(), pred, term.IRI(owl.Thing))
	}
	e.onto.put(e.Term(), pred, p.Term())
	return nil
}

// RestrictionKind is the quantifier of a class restriction.
type RestrictionKind string

const (
	Some    RestrictionKind = "some"
	Only    RestrictionKind = "only"
	Value   RestrictionKind = "value"
	Min     RestrictionKind = "min"
	Max     RestrictionKind = "max"
	Exactly RestrictionKind = "exactly"
)

// ParseRestrictionKind returns the kind named s.
func ParseRestrictionKind(s string) (RestrictionKind, bool) {
	switch k := RestrictionKind(strings.ToLower(s)); k {
	case Some, Only, Value, Min, Max, Exactly:
		return k, true
	}
	return "", false
}

// Cardinal reports whether the kind takes a cardinality.
func (k RestrictionKind) Cardinal() bool {
	return k == Min || k == Max || k == Exactly
}

var cardinalityPredicate = map[RestrictionKind]string{
	Min:     owl.MinQualifiedCardinality,
	Max:     owl.MaxQualifiedCardinality,
	Exactly: owl.QualifiedCardinality,
}

// Restriction is an anonymous superclass of the form
// "property kind [cardinality] target".
type Restriction struct {
	Property    string
	Kind        RestrictionKind
	Cardinality int
	Target      string
}

func (r Restriction) String() string {
	if r.Kind.Cardinal() {
		return fmt.Sprintf("%s %s %d %s", localName(r.Property), r.Kind, r.Cardinality, localName(r.Target))
	}
	return fmt.Sprintf("%s %s %s", localName(r.Property), r.Kind, localName(r.Target))
}

func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// AddRestriction declares the restriction "prop kind [cardinality] target"
// as a superclass of the entity.
func (e *Entity) AddRestriction(prop *Entity, kind RestrictionKind, cardinality int, target *Entity) error {
	if _, ok := ParseRestrictionKind(string(kind)); !ok {
		return fmt.Errorf("unknown restriction kind %q", kind)
	}
	if kind.Cardinal() && cardinality < 0 {
		return fmt.Errorf("negative cardinality %d", cardinality)
	}

	o := e.onto
	r := o.freshBlank("restriction")
	o.put(e.Term(), term.IRI(owl.SubClassOf), r)
	o.put(r, term.IRI(owl.Type), term.IRI(owl.Restriction))
	o.put(r, term.IRI(owl.OnProperty), prop.Term())
	switch kind {
	case Some:
		o.put(r, term.IRI(owl.SomeValuesFrom), target.Term())
	case Only:
		o.put(r, term.IRI(owl.AllValuesFrom), target.Term())
	case Value:
		o.put(r, term.IRI(owl.HasValue), target.Term())
	default:
		o.put(r, term.IRI(cardinalityPredicate[kind]), term.TypedLiteral(strconv.Itoa(cardinality), owl.NonNegativeInteger))
		o.put(r, term.IRI(owl.OnClass), target.Term())
	}
	return nil
}

// Restrictions returns the restrictions among the entity's superclasses.
func (e *Entity) Restrictions() []Restriction {
	var rs []Restriction
	for _, o := range e.onto.ImportClosure() {
		for _, node := range o.Objects(e.Term(), term.IRI(owl.SubClassOf)) {
			if !term.IsBlank(node) || !o.Has(node, term.IRI(owl.Type), term.IRI(owl.Restriction)) {
				continue
			}
			if r, ok := o.restriction(node); ok {
				rs = append(rs, r)
			}
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].String() < rs[j].String() })
	return rs
}

func (o *Ontology) restriction(node rdf.Term) (Restriction, bool) {
	first := func(pred string) (rdf.Term, bool) {
		objs := o.Objects(node, term.IRI(pred))
		if len(objs) == 0 {
			return rdf.Term{}, false
		}
		return objs[0], true
	}
	iriOf := func(pred string) (string, bool) {
		t, ok := first(pred)
		if !ok {
			return "", false
		}
		return term.IRIOf(t)
	}

	var r Restriction
	prop, ok := iriOf(owl.OnProperty)
	if !ok {
		return r, false
	}
	r.Property = prop

	for kind, pred := range map[RestrictionKind]string{Some: owl.SomeValuesFrom, Only: owl.AllValuesFrom, Value: owl.HasValue} {
		if t, ok := iriOf(pred); ok {
			r.Kind, r.Target = kind, t
			return r, true
		}
	}
	for kind, pred := range cardinalityPredicate {
		t, ok := first(pred)
		if !ok {
			continue
		}
		text, _, _ := term.LiteralText(t)
		n, err := strconv.Atoi(text)
		if err != nil {
			return r, false
		}
		target, ok := iriOf(owl.OnClass)
		if !ok {
			target = owl.Thing
		}
		r.Kind, r.Cardinality, r.Target = kind, n, target
		return r, true
	}
	return r, false
}
