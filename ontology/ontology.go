package ontology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// Ontology is a named graph owned by a World.
type Ontology struct {
	world     *World
	iri       string
	base      string
	graph     *rdf.Graph
	prefixes  map[string]string
	imports   []*Ontology
	location  string
	mimeType  string
	loaded    bool
	emmoBased bool
	blanks    int

	// labels maps label text to entity IRIs. nil means stale.
	labels map[string][]string
}

func newOntology(w *World, iri string) *Ontology {
	o := &Ontology{
		world:     w,
		graph:     rdf.NewGraph(),
		prefixes:  make(map[string]string),
		emmoBased: true,
	}
	o.setIRI(iri)
	return o
}

func (o *Ontology) setIRI(iri string) {
	o.iri = NormalizeIRI(iri)
	switch {
	case strings.HasSuffix(iri, "#"), strings.HasSuffix(iri, "/"):
		o.base = iri
	default:
		o.base = iri + "#"
	}
}

// IRI returns the ontology IRI without a trailing separator.
func (o *Ontology) IRI() string { return o.iri }

// Base returns the namespace new entities are created in.
func (o *Ontology) Base() string { return o.base }

// World returns the world o belongs to.
func (o *Ontology) World() *World { return o.world }

// Location returns the path or URL o was loaded from.
func (o *Ontology) Location() string { return o.location }

// MimeType returns the media type o was parsed from.
func (o *Ontology) MimeType() string { return o.mimeType }

// Loaded reports whether o was filled from a document.
func (o *Ontology) Loaded() bool { return o.loaded }

// MarkLoaded records where o was loaded from.
func (o *Ontology) MarkLoaded(location, mimeType string) {
	o.location = location
	o.mimeType = mimeType
	o.loaded = true
}

// EMMOBased reports whether o follows EMMO conventions, in which entities
// carry a skos:prefLabel.
func (o *Ontology) EMMOBased() bool { return o.emmoBased }

// SetEMMOBased sets whether o follows EMMO conventions.
func (o *Ontology) SetEMMOBased(v bool) {
	o.emmoBased = v
	o.labels = nil
}

// Reset drops every statement, prefix and import of o.
func (o *Ontology) Reset() {
	o.graph = rdf.NewGraph()
	o.prefixes = make(map[string]string)
	o.imports = nil
	o.location, o.mimeType = "", ""
	o.loaded = false
	o.labels = nil
}

// Add adds the statement (s, p, o).
func (o *Ontology) Add(s, p, obj rdf.Term) error {
	if term.IsLiteral(s) || !isIRI(p) {
		return fmt.Errorf("%w: %s %s %s", ErrInvalidStatement, s.Value, p.Value, obj.Value)
	}
	o.put(s, p, obj)
	return nil
}

// AddStatements adds every statement in stmts.
func (o *Ontology) AddStatements(stmts []*rdf.Statement) error {
	for _, s := range stmts {
		if err := o.Add(s.Subject, s.Predicate, s.Object); err != nil {
			return err
		}
	}
	return nil
}

func (o *Ontology) put(s, p, obj rdf.Term) {
	if o.Has(s, p, obj) {
		return
	}
	o.graph.AddStatement(term.Triple(s, p, obj))
	o.labels = nil
}

// Remove removes the statement (s, p, o) if present.
//
// rdf.Graph indexes statements by the predicate UID they carry when added,
// which is unassigned for every statement put here, so RemoveStatement
// cannot find them. The graph is rebuilt without the statement instead.
func (o *Ontology) Remove(s, p, obj rdf.Term) {
	if !o.Has(s, p, obj) {
		return
	}
	g := rdf.NewGraph()
	it := o.graph.AllStatements()
	for it.Next() {
		st := it.Statement()
		if st.Subject.Value == s.Value && st.Predicate.Value == p.Value && st.Object.Value == obj.Value {
			continue
		}
		g.AddStatement(term.Clone(st))
	}
	o.graph = g
	o.labels = nil
}

// Has reports whether o holds the statement (s, p, o).
func (o *Ontology) Has(s, p, obj rdf.Term) bool {
	_, ok := o.find(s, p, obj)
	return ok
}

func (o *Ontology) find(s, p, obj rdf.Term) (*rdf.Statement, bool) {
	sub, ok := o.graph.TermFor(s.Value)
	if !ok {
		return nil, false
	}
	ob, ok := o.graph.TermFor(obj.Value)
	if !ok {
		return nil, false
	}
	lines := o.graph.Lines(sub.ID(), ob.ID())
	for lines.Next() {
		st := lines.Line().(*rdf.Statement)
		if st.Predicate.Value == p.Value {
			return st, true
		}
	}
	return nil, false
}

// Statements returns copies of all statements in N-Triples order.
func (o *Ontology) Statements() []*rdf.Statement {
	var stmts []*rdf.Statement
	it := o.graph.AllStatements()
	for it.Next() {
		stmts = append(stmts, term.Clone(it.Statement()))
	}
	term.Sort(stmts)
	return stmts
}

// Len returns the number of statements.
func (o *Ontology) Len() int {
	n := 0
	for it := o.graph.AllStatements(); it.Next(); {
		n++
	}
	return n
}

// Objects returns the objects of statements with the given subject and
// predicate, sorted.
func (o *Ontology) Objects(subject, predicate rdf.Term) []rdf.Term {
	t, ok := o.graph.TermFor(subject.Value)
	if !ok {
		return nil
	}
	return clean(o.graph.Query(t).Out(func(s *rdf.Statement) bool {
		return s.Predicate.Value == predicate.Value
	}).Unique().Result())
}

// Subjects returns the subjects of statements with the given predicate and
// object, sorted.
func (o *Ontology) Subjects(predicate, object rdf.Term) []rdf.Term {
	t, ok := o.graph.TermFor(object.Value)
	if !ok {
		return nil
	}
	return clean(o.graph.Query(t).In(func(s *rdf.Statement) bool {
		return s.Predicate.Value == predicate.Value
	}).Unique().Result())
}

// hasSubject reports whether iri is the subject of any statement.
func (o *Ontology) hasSubject(t rdf.Term) bool {
	g, ok := o.graph.TermFor(t.Value)
	if !ok {
		return false
	}
	return o.graph.From(g.ID()).Len() > 0
}

// clean strips graph UIDs and sorts terms.
func clean(terms []rdf.Term) []rdf.Term {
	out := make([]rdf.Term, len(terms))
	for i, t := range terms {
		out[i] = rdf.Term{Value: t.Value}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Prefixes returns a copy of the prefix table.
func (o *Ontology) Prefixes() map[string]string {
	p := make(map[string]string, len(o.prefixes))
	for k, v := range o.prefixes {
		p[k] = v
	}
	return p
}

// SetPrefix records a namespace prefix used when serializing o.
func (o *Ontology) SetPrefix(prefix, iri string) {
	o.prefixes[prefix] = iri
}

// Imports returns the directly imported ontologies.
func (o *Ontology) Imports() []*Ontology {
	return append([]*Ontology(nil), o.imports...)
}

// ImportIRIs returns the objects of owl:imports declarations of o.
func (o *Ontology) ImportIRIs() []string {
	var iris []string
	for _, t := range o.Objects(term.IRI(o.iri), term.IRI(owl.Imports)) {
		if iri, ok := term.IRIOf(t); ok {
			iris = append(iris, iri)
		}
	}
	if o.base != o.iri {
		for _, t := range o.Objects(term.IRI(o.base), term.IRI(owl.Imports)) {
			if iri, ok := term.IRIOf(t); ok {
				iris = append(iris, iri)
			}
		}
	}
	return iris
}

// AddImport makes imp an import of o and declares it with owl:imports.
func (o *Ontology) AddImport(imp *Ontology) {
	if imp == o {
		return
	}
	for _, existing := range o.imports {
		if existing == imp {
			return
		}
	}
	o.imports = append(o.imports, imp)

	declared := false
	for _, iri := range o.ImportIRIs() {
		if NormalizeIRI(iri) == imp.iri {
			declared = true
			break
		}
	}
	if !declared {
		o.put(term.IRI(o.iri), term.IRI(owl.Imports), term.IRI(imp.iri))
	}
	o.labels = nil
}

// ImportClosure returns o followed by every ontology it imports directly or
// indirectly, breadth first. Import cycles are tolerated.
func (o *Ontology) ImportClosure() []*Ontology {
	seen := map[*Ontology]bool{o: true}
	closure := []*Ontology{o}
	for i := 0; i < len(closure); i++ {
		for _, imp := range closure[i].imports {
			if !seen[imp] {
				seen[imp] = true
				closure = append(closure, imp)
			}
		}
	}
	return closure
}

// Entity returns the entity with the given IRI in o.
func (o *Ontology) Entity(iri string) *Entity {
	return &Entity{onto: o, iri: iri}
}

// Get returns an entity by preferred label, label or name, searching o and
// its imports.
func (o *Ontology) Get(nameOrLabel string) (*Entity, bool) {
	if found := o.ByLabel(nameOrLabel); len(found) > 0 {
		return found[0], true
	}
	for _, onto := range o.ImportClosure() {
		iri := onto.base + nameOrLabel
		if onto.hasSubject(term.IRI(iri)) {
			return onto.Entity(iri), true
		}
	}
	if strings.Contains(nameOrLabel, ":") {
		for _, onto := range o.ImportClosure() {
			if onto.hasSubject(term.IRI(nameOrLabel)) {
				return onto.Entity(nameOrLabel), true
			}
		}
	}
	return nil, false
}

// ByLabel returns the entities labelled label in o, then in its imports.
func (o *Ontology) ByLabel(label string) []*Entity {
	var found []*Entity
	seen := make(map[string]bool)
	for _, onto := range o.ImportClosure() {
		for _, iri := range onto.ownByLabel(label) {
			if !seen[iri] {
				seen[iri] = true
				found = append(found, onto.Entity(iri))
			}
		}
	}
	return found
}

// labelPredicates returns the label annotations honoured by o.
func (o *Ontology) labelPredicates() []string {
	if !o.emmoBased {
		return []string{owl.Label}
	}
	return o.world.LabelAnnotations()
}

func (o *Ontology) ownByLabel(label string) []string {
	if o.labels == nil {
		o.indexLabels()
	}
	return o.labels[label]
}

func (o *Ontology) indexLabels() {
	o.labels = make(map[string][]string)
	preds := make(map[string]bool)
	for _, p := range o.labelPredicates() {
		preds["<"+p+">"] = true
	}
	it := o.graph.AllStatements()
	for it.Next() {
		s := it.Statement()
		if !preds[s.Predicate.Value] {
			continue
		}
		iri, ok := term.IRIOf(s.Subject)
		if !ok {
			continue
		}
		text, _, ok := term.LiteralText(s.Object)
		if !ok {
			continue
		}
		o.labels[text] = append(o.labels[text], iri)
	}
	for k, v := range o.labels {
		sort.Strings(v)
		o.labels[k] = v
	}
}

// NewClass declares a class named name in o's namespace. A class without
// parents is a subclass of owl:Thing.
func (o *Ontology) NewClass(name string, parents ...*Entity) (*Entity, error) {
	e, err := o.declare(name, owl.Class)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		o.put(e.Term(), term.IRI(owl.SubClassOf), term.IRI(owl.Thing))
	}
	for _, p := range parents {
		o.put(e.Term(), term.IRI(owl.SubClassOf), p.Term())
	}
	return e, nil
}

// NewObjectProperty declares an object property named name.
func (o *Ontology) NewObjectProperty(name string, parents ...*Entity) (*Entity, error) {
	e, err := o.declare(name, owl.ObjectProperty)
	if err != nil {
		return nil, err
	}
	for _, p := range parents {
		o.put(e.Term(), term.IRI(owl.SubPropertyOf), p.Term())
	}
	return e, nil
}

// NewAnnotationProperty declares an annotation property named name.
func (o *Ontology) NewAnnotationProperty(name string) (*Entity, error) {
	return o.declare(name, owl.AnnotationProperty)
}

// NewDataProperty declares a datatype property named name.
func (o *Ontology) NewDataProperty(name string) (*Entity, error) {
	return o.declare(name, owl.DatatypeProperty)
}

// NewIndividual declares a named individual that is a member of classes.
func (o *Ontology) NewIndividual(name string, classes ...*Entity) (*Entity, error) {
	e, err := o.declare(name, owl.NamedIndividual)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		o.put(e.Term(), term.IRI(owl.Type), c.Term())
	}
	return e, nil
}

func (o *Ontology) declare(name, kind string) (*Entity, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	e := o.Entity(o.base + name)
	if o.Has(e.Term(), term.IRI(owl.Type), term.IRI(kind)) {
		return nil, fmt.Errorf("%w: %s", ErrEntityExists, e.iri)
	}
	o.put(e.Term(), term.IRI(owl.Type), term.IRI(kind))
	return e, nil
}

// ValidateName checks that name can be appended to a namespace to form an
// entity IRI.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "<>\"{}|^`\\#") {
		return fmt.Errorf("%w: %q contains characters not allowed in IRIs", ErrInvalidName, name)
	}
	return nil
}

// Classes returns the named classes declared in o.
func (o *Ontology) Classes() []*Entity { return o.ofType(owl.Class) }

// ObjectProperties returns the object properties declared in o.
func (o *Ontology) ObjectProperties() []*Entity { return o.ofType(owl.ObjectProperty) }

// DataProperties returns the datatype properties declared in o.
func (o *Ontology) DataProperties() []*Entity { return o.ofType(owl.DatatypeProperty) }

// AnnotationProperties returns the annotation properties declared in o.
func (o *Ontology) AnnotationProperties() []*Entity { return o.ofType(owl.AnnotationProperty) }

// Individuals returns the named individuals declared in o.
func (o *Ontology) Individuals() []*Entity { return o.ofType(owl.NamedIndividual) }

func (o *Ontology) ofType(kind string) []*Entity {
	var ents []*Entity
	for _, t := range o.Subjects(term.IRI(owl.Type), term.IRI(kind)) {
		if iri, ok := term.IRIOf(t); ok {
			ents = append(ents, o.Entity(iri))
		}
	}
	return ents
}

// Annotate adds an annotation to subject, which may be an entity IRI or the
// ontology IRI itself.
func (o *Ontology) Annotate(subject, predicate string, value rdf.Term) error {
	return o.Add(term.IRI(subject), term.IRI(predicate), value)
}

// Canonical returns the statements of o in URDNA2015 canonical form.
func (o *Ontology) Canonical() ([]*rdf.Statement, error) {
	return rdf.URDNA2015(nil, o.Statements())
}

// Isomorphic reports whether o and other hold the same graph up to blank
// node relabelling.
func (o *Ontology) Isomorphic(other *Ontology) (bool, error) {
	a, err := o.Canonical()
	if err != nil {
		return false, err
	}
	b, err := other.Canonical()
	if err != nil {
		return false, err
	}
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false, nil
		}
	}
	return true, nil
}

// freshBlank returns a blank node label not used in o.
func (o *Ontology) freshBlank(prefix string) rdf.Term {
	for {
		o.blanks++
		t := term.Blank(prefix + strconv.Itoa(o.blanks))
		if _, ok := o.graph.TermFor(t.Value); !ok {
			return t
		}
	}
}

func isIRI(t rdf.Term) bool {
	_, ok := term.IRIOf(t)
	return ok
}
