package excelparser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/catalog"
	"github.com/c360studio/ontopy/export"
	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/ontology"
	"github.com/c360studio/ontopy/source/weburl"
	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/emmo"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// thingName is how rows without a parent refer to owl:Thing.
const thingName = "owl:Thing"

// Result is a generated ontology with its catalog.
type Result struct {
	Ontology *ontology.Ontology

	// Catalog maps the ontology IRI to the output path and the imports to
	// their locations, and records the spreadsheet as provenance of every
	// generated entity.
	Catalog *catalog.Catalog

	// Skipped lists the rows dropped because their parents did not resolve.
	// It is only filled when Force is set.
	Skipped []UnresolvedRow
}

// Builder turns workbooks into ontologies.
type Builder struct {
	opts  Options
	world *ontology.World
	newID func() string
}

// NewBuilder creates a builder.
func NewBuilder(opts Options) (*Builder, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	world := opts.World
	if world == nil {
		world = ontology.NewWorld()
	}
	return &Builder{opts: opts, world: world, newID: uuid.NewString}, nil
}

// World returns the world generated ontologies are created in.
func (b *Builder) World() *ontology.World { return b.world }

// CreateOntologyFromExcel reads the spreadsheet at path and builds an
// ontology and its catalog from it.
func CreateOntologyFromExcel(ctx context.Context, path string, opts Options) (*ontology.Ontology, *catalog.Catalog, error) {
	b, err := NewBuilder(opts)
	if err != nil {
		return nil, nil, err
	}
	wb, err := ReadWorkbook(path, b.opts)
	if err != nil {
		return nil, nil, err
	}
	res, err := b.Build(ctx, wb)
	if err != nil {
		return nil, nil, err
	}
	return res.Ontology, res.Catalog, nil
}

// build holds the state of one Build call.
type build struct {
	*Builder
	wb     *Workbook
	source string
	onto   *ontology.Ontology
	cat    *catalog.Catalog

	// imports are the loaded imported ontologies, in sheet order.
	imports []*ontology.Ontology

	// declared maps row names and preferred labels to generated classes.
	declared   map[string]*ontology.Entity
	properties map[string]*ontology.Entity
}

// Build generates the ontology described by wb. Rows are declared in passes
// until every row is declared or a pass makes no progress.
func (b *Builder) Build(ctx context.Context, wb *Workbook) (*Result, error) {
	start := time.Now()
	source, err := filepath.Abs(wb.Path)
	if err != nil {
		source = wb.Path
	}
	s := &build{
		Builder:    b,
		wb:         wb,
		source:     source,
		cat:        catalog.New(),
		declared:   make(map[string]*ontology.Entity),
		properties: make(map[string]*ontology.Entity),
	}

	if err := s.loadImports(ctx); err != nil {
		return nil, err
	}
	if err := validate(wb, b.opts.Sheets.Concepts, b.opts.IRIScheme, s.known, s.importedProperty); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered, skipped := s.plan()
	if len(skipped) > 0 && !b.opts.Force {
		for range skipped {
			b.opts.Metrics.Row(metric.RowUnresolved)
		}
		return nil, &UnresolvedParentError{Path: wb.Path, Rows: skipped}
	}

	// The target ontology is untouched until here.
	s.createOntology()
	if err := s.declareRows(ordered); err != nil {
		return nil, err
	}
	s.skip(skipped)
	if err := s.addRelations(); err != nil {
		return nil, err
	}

	s.cat.Set(s.onto.IRI(), s.outputPath())
	s.cat.AddProvenance(s.onto.IRI(), s.source)
	s.onto.MarkLoaded(s.outputPath(), mimeType(s.outputPath()))

	b.opts.Metrics.Built(time.Since(start))
	b.opts.Logger.Info("Built ontology from spreadsheet",
		"path", wb.Path,
		"iri", s.onto.IRI(),
		"classes", len(s.onto.Classes()),
		"skipped", len(skipped),
		"duration", time.Since(start))
	return &Result{Ontology: s.onto, Catalog: s.cat, Skipped: skipped}, nil
}

func (s *build) outputPath() string {
	if s.opts.OutputPath != "" {
		return s.opts.OutputPath
	}
	return strings.TrimSuffix(s.source, filepath.Ext(s.source)) + ".ttl"
}

// mimeType returns the media type of the serialization written to path.
func mimeType(path string) string {
	if f, ok := export.FormatFromExtension(path); ok {
		if info, ok := export.GetFormatInfo(f); ok {
			return info.MIMEType
		}
	}
	return "text/turtle"
}

// createOntology creates or empties the generated ontology and writes its
// metadata.
func (s *build) createOntology() {
	base := s.opts.BaseIRI
	if !s.opts.IgnoreMetadataIRI && s.wb.OntologyIRI != "" {
		base = s.wb.OntologyIRI
	}
	s.onto = s.world.Ontology(base)
	s.onto.Reset()
	s.onto.SetEMMOBased(true)
	for p, ns := range owl.DefaultPrefixes() {
		s.onto.SetPrefix(p, ns)
	}
	s.onto.SetPrefix("", s.onto.Base())

	iri := s.onto.IRI()
	s.put(iri, owl.Type, term.IRI(owl.Ontology))
	for _, pred := range sortedKeys(s.wb.Metadata) {
		for _, v := range s.wb.Metadata[pred] {
			s.put(iri, emmo.IRIFor(pred), s.metadataValue(pred, v))
		}
	}
	s.put(iri, emmo.IRIFor(emmo.ProvenanceSource), term.Literal(filepath.Base(s.wb.Path)))

	for _, imp := range s.wb.Imports {
		s.put(iri, owl.Imports, term.IRI(imp.IRI))
	}
	for _, imp := range s.imports {
		s.onto.AddImport(imp)
	}
}

func (s *build) metadataValue(pred, v string) rdf.Term {
	switch pred {
	case emmo.MetadataVersionIRI:
		return term.IRI(v)
	case emmo.MetadataLicense:
		if weburl.IsURL(v) {
			return term.IRI(v)
		}
		return term.Literal(v)
	case emmo.MetadataTitle, emmo.MetadataAbstract, emmo.MetadataComment:
		return term.LangLiteral(v, s.opts.Language)
	default:
		return term.Literal(v)
	}
}

// put adds an annotation. Subjects and predicates are IRIs here, which
// Annotate always accepts.
func (s *build) put(subject, predicate string, value rdf.Term) {
	_ = s.onto.Annotate(subject, predicate, value)
}

// loadImports records the import locations in the catalog and loads the
// imports through the importer.
func (s *build) loadImports(ctx context.Context) error {
	dir := filepath.Dir(s.source)
	for _, imp := range s.wb.Imports {
		location := catalog.Resolve(dir, imp.Location)
		if location != "" {
			s.cat.Set(imp.IRI, location)
		}
		if s.opts.Importer == nil {
			continue
		}
		loaded, err := s.opts.Importer.Import(ctx, imp.IRI, location)
		if err != nil {
			return fmt.Errorf("import %s (row %d): %w", imp.IRI, imp.Row, err)
		}
		s.imports = append(s.imports, loaded)
		s.opts.Logger.Debug("Imported ontology", "iri", imp.IRI, "location", loaded.Location())
	}
	return nil
}

// external resolves a name that no row declares: owl:Thing, a label or
// name in an imported ontology, or an absolute IRI.
func (s *build) external(name string) (*ontology.Entity, bool) {
	switch {
	case isThing(name):
		return s.onto.Entity(owl.Thing), true
	case strings.Contains(name, "://"):
		return s.onto.Entity(name), true
	}
	for _, imp := range s.imports {
		if e, ok := imp.Get(name); ok {
			return e, true
		}
	}
	return nil, false
}

func isThing(name string) bool {
	switch name {
	case thingName, "Thing", owl.Thing:
		return true
	}
	return false
}

// isExternal reports whether external resolves name. It does not need the
// generated ontology.
func (s *build) isExternal(name string) bool {
	if isThing(name) || strings.Contains(name, "://") {
		return true
	}
	for _, imp := range s.imports {
		if _, ok := imp.Get(name); ok {
			return true
		}
	}
	return false
}

func (s *build) known(name string) bool {
	return name == s.opts.Root || s.isExternal(name)
}

func (s *build) lookup(name string) (*ontology.Entity, bool) {
	if e, ok := s.declared[name]; ok {
		return e, true
	}
	return s.external(name)
}

// parentsOf returns the parent names of r. An empty parent cell means the
// root, and the root itself hangs below owl:Thing.
func (s *build) parentsOf(r Row) []string {
	if len(r.Parents) > 0 {
		return r.Parents
	}
	if s.opts.Root == "" || r.Name == s.opts.Root {
		return []string{thingName}
	}
	return []string{s.opts.Root}
}

// plan orders the rows the way they are declared: each row after the rows
// its parents name, in passes until a pass makes no progress. Rows whose
// parents never resolve are returned as unresolved.
func (s *build) plan() ([]Row, []UnresolvedRow) {
	declared := make(map[string]bool)
	if root := s.opts.Root; root != "" && !s.rowProvides(root) {
		declared[root] = true
	}
	missing := func(r Row) []string {
		var names []string
		for _, name := range s.parentsOf(r) {
			if !declared[name] && !s.isExternal(name) {
				names = append(names, name)
			}
		}
		return names
	}

	var ordered []Row
	pending := s.wb.Rows
	for pass := 1; len(pending) > 0; pass++ {
		var next []Row
		for _, r := range pending {
			if len(missing(r)) > 0 {
				next = append(next, r)
				continue
			}
			ordered = append(ordered, r)
			declared[r.Name] = true
			declared[r.PrefLabel] = true
		}
		s.opts.Logger.Debug("Planned spreadsheet rows",
			"pass", pass,
			"declared", len(pending)-len(next),
			"pending", len(next))
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	if len(ordered) == len(s.wb.Rows) {
		return ordered, nil
	}

	var unresolved []UnresolvedRow
	for _, r := range pending {
		unresolved = append(unresolved, UnresolvedRow{Row: r.Number, Name: r.Name, Missing: missing(r)})
	}
	return ordered, unresolved
}

func (s *build) rowProvides(name string) bool {
	for _, r := range s.wb.Rows {
		if r.Name == name || r.PrefLabel == name {
			return true
		}
	}
	return false
}

// declareRows declares the planned rows in order.
func (s *build) declareRows(rows []Row) error {
	if err := s.declareRoot(); err != nil {
		return err
	}
	for _, r := range rows {
		parents, missing := s.resolveParents(r)
		if len(missing) > 0 {
			return fmt.Errorf("declare %q (row %d): unresolved parents %v", r.Name, r.Number, missing)
		}
		if err := s.declare(r, parents); err != nil {
			return err
		}
	}
	return nil
}

// skip logs the rows dropped under Force.
func (s *build) skip(rows []UnresolvedRow) {
	for _, u := range rows {
		s.opts.Metrics.Row(metric.RowSkipped)
		s.opts.Logger.Warn("Skipping row with unresolved parents",
			"path", s.wb.Path,
			"row", u.Row,
			"name", u.Name,
			"missing", u.Missing)
	}
}

// declareRoot declares the designated root when neither a row nor an
// imported ontology provides it.
func (s *build) declareRoot() error {
	root := s.opts.Root
	if root == "" || s.rowProvides(root) || s.isExternal(root) {
		return nil
	}
	return s.declare(Row{Name: root, PrefLabel: root}, []*ontology.Entity{s.onto.Entity(owl.Thing)})
}

func (s *build) resolveParents(r Row) ([]*ontology.Entity, []string) {
	var parents []*ontology.Entity
	var missing []string
	for _, name := range s.parentsOf(r) {
		if e, ok := s.lookup(name); ok {
			parents = append(parents, e)
			continue
		}
		missing = append(missing, name)
	}
	return parents, missing
}

// localName returns the IRI fragment of a new entity named name.
func (s *build) localName(name string) string {
	if s.opts.IRIScheme == SchemeUUID {
		return emmo.EntityPrefix + strings.ReplaceAll(s.newID(), "-", "_")
	}
	return name
}

func (s *build) declare(r Row, parents []*ontology.Entity) error {
	e, err := s.onto.NewClass(s.localName(r.Name), parents...)
	if err != nil {
		return fmt.Errorf("declare %q (row %d): %w", r.Name, r.Number, err)
	}
	s.annotate(e, emmo.ConceptPrefLabel, r.PrefLabel)
	s.annotate(e, emmo.ConceptAltLabel, r.AltLabels...)
	if r.Elucidation != "" {
		s.annotate(e, emmo.ConceptElucidation, r.Elucidation)
	}
	s.annotate(e, emmo.ConceptComment, r.Comments...)
	s.annotate(e, emmo.ConceptExample, r.Examples...)

	s.declared[r.Name] = e
	if _, taken := s.declared[r.PrefLabel]; !taken {
		s.declared[r.PrefLabel] = e
	}
	s.cat.AddProvenance(e.IRI(), s.source)
	if r.Number > 0 {
		s.opts.Metrics.Row(metric.RowDeclared)
	}
	return nil
}

func (s *build) annotate(e *ontology.Entity, column string, values ...string) {
	lang := s.wb.Language(column, s.opts.Language)
	for _, v := range values {
		s.put(e.IRI(), emmo.IRIFor(column), term.LangLiteral(v, lang))
	}
}

// addRelations turns the Relations cells of declared rows into
// restrictions. Unknown properties become object properties of the
// generated ontology.
func (s *build) addRelations() error {
	for _, r := range s.wb.Rows {
		e, ok := s.declared[r.Name]
		if !ok || len(r.Relations) == 0 {
			continue
		}
		for _, text := range r.Relations {
			rel, err := ParseRelation(text)
			if err != nil {
				return err
			}
			target, ok := s.lookup(rel.Target)
			if !ok {
				s.opts.Logger.Warn("Skipping relation to a skipped row",
					"row", r.Number,
					"relation", text)
				continue
			}
			prop, err := s.property(rel.Property)
			if err != nil {
				return fmt.Errorf("relation %q (row %d): %w", text, r.Number, err)
			}
			if err := e.AddRestriction(prop, rel.Kind, rel.Cardinality, target); err != nil {
				return fmt.Errorf("relation %q (row %d): %w", text, r.Number, err)
			}
		}
	}
	return nil
}

func (s *build) property(name string) (*ontology.Entity, error) {
	if p, ok := s.properties[name]; ok {
		return p, nil
	}
	if p, ok := s.imported(name); ok {
		s.properties[name] = p
		return p, nil
	}
	p, err := s.onto.NewObjectProperty(s.localName(name))
	if err != nil {
		return nil, err
	}
	s.annotate(p, emmo.ConceptPrefLabel, name)
	s.cat.AddProvenance(p.IRI(), s.source)
	s.properties[name] = p
	s.opts.Logger.Debug("Declared object property", "name", name, "iri", p.IRI())
	return p, nil
}

// imported returns the object property of an imported ontology named name.
func (s *build) imported(name string) (*ontology.Entity, bool) {
	for _, imp := range s.imports {
		if p, ok := imp.Get(name); ok && p.Kind() == ontology.KindObjectProperty {
			return p, true
		}
	}
	return nil, false
}

func (s *build) importedProperty(name string) bool {
	_, ok := s.imported(name)
	return ok
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
