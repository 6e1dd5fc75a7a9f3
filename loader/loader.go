// Package loader resolves ontology identifiers (names, paths and URLs) to
// documents and loads them, with their imports, into a World.
//
// An identifier is looked up in the catalogs first, then among local files,
// and finally fetched when it is an http or https URL. The EMMO shortcuts
// "emmo", "emmo-inferred" and "emmo-development" name the published EMMO
// documents.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/ontopy/catalog"
	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/ontology"
	"github.com/c360studio/ontopy/source"
	"github.com/c360studio/ontopy/source/parser"
	"github.com/c360studio/ontopy/source/weburl"
	"github.com/c360studio/ontopy/storage"
	"github.com/c360studio/ontopy/vocabulary/emmo"
)

const defaultFetchCache = 32 << 20

// Resolution is the outcome of resolving an identifier.
type Resolution struct {
	// Identifier is the identifier after alias expansion.
	Identifier string

	// Location is the file path or URL of the document.
	Location string

	// Source names the step that produced Location, one of the
	// metric.Source constants.
	Source string

	// Tried lists the locations rejected before Location.
	Tried []string
}

// Loader loads ontologies into a World.
type Loader struct {
	world           *ontology.World
	parsers         *parser.Registry
	catalog         *catalog.Catalog
	searchPaths     []string
	httpClient      *http.Client
	fetcher         Fetcher
	fetchCacheBytes int
	cacheDir        string
	cacheCatalog    *catalog.Catalog
	store           *storage.Store
	metrics         *metric.Metrics
	logger          *slog.Logger
	onlyLocal       bool
}

// New creates a loader for world. A nil world gets a fresh one.
func New(world *ontology.World, opts ...Option) (*Loader, error) {
	l := &Loader{
		world:           world,
		parsers:         parser.DefaultRegistry,
		logger:          slog.Default(),
		fetchCacheBytes: defaultFetchCache,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("configure loader: %w", err)
		}
	}
	if l.world == nil {
		l.world = ontology.NewWorld()
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(l.httpClient, l.fetchCacheBytes, l.metrics)
	}
	if l.cacheDir != "" {
		if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		l.cacheCatalog = catalog.New()
		if path := filepath.Join(l.cacheDir, catalog.FileName); isFile(path) {
			c, err := catalog.Read(path)
			if err != nil {
				return nil, fmt.Errorf("read cache catalog: %w", err)
			}
			l.cacheCatalog = c
		}
	}
	return l, nil
}

// World returns the world ontologies are loaded into.
func (l *Loader) World() *ontology.World { return l.world }

// Catalog returns the loader catalog, or nil.
func (l *Loader) Catalog() *catalog.Catalog { return l.catalog }

// CacheCatalog returns the catalog of the download cache, or nil.
func (l *Loader) CacheCatalog() *catalog.Catalog { return l.cacheCatalog }

// Resolve finds the document for id without loading it.
func (l *Loader) Resolve(ctx context.Context, id string, opts ...LoadOption) (Resolution, error) {
	o := newLoadOptions(opts)
	return l.resolve(ctx, emmo.ResolveAlias(strings.TrimSpace(id)), l.catalogs(o.catalog))
}

// catalogs returns the catalogs to consult, most specific first.
func (l *Loader) catalogs(extra ...*catalog.Catalog) []*catalog.Catalog {
	var cats []*catalog.Catalog
	for _, c := range append(extra, l.catalog, l.cacheCatalog) {
		if c != nil {
			cats = append(cats, c)
		}
	}
	return cats
}

func (l *Loader) resolve(ctx context.Context, id string, cats []*catalog.Catalog) (Resolution, error) {
	res := Resolution{Identifier: id}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for _, c := range cats {
		loc, ok := c.Lookup(id)
		if !ok {
			continue
		}
		l.logger.Debug("Catalog entry found", "id", id, "location", loc, "catalog", c.Source())
		switch {
		case weburl.IsURL(loc) && !l.onlyLocal, isFile(loc):
			res.Location, res.Source = loc, metric.SourceCatalog
			return res, nil
		}
		res.Tried = append(res.Tried, loc)
	}

	if path, ok := localPath(id); ok {
		if isFile(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			res.Location, res.Source = abs, metric.SourceLocal
			return res, nil
		}
		res.Tried = append(res.Tried, path)
	}

	if name := lastSegment(id); name != "" {
		for _, pattern := range l.searchPaths {
			dirs, err := resolvePattern(pattern)
			if err != nil {
				l.logger.Debug("Skipping search path", "pattern", pattern, "error", err)
				continue
			}
			for _, dir := range dirs {
				for _, candidate := range fileCandidates(dir, name, parser.Extensions()) {
					if isFile(candidate) {
						res.Location, res.Source = candidate, metric.SourceLocal
						return res, nil
					}
					res.Tried = append(res.Tried, candidate)
				}
			}
		}
	}

	if weburl.IsURL(id) && !l.onlyLocal {
		res.Location, res.Source = id, metric.SourceRemote
		return res, nil
	}
	return res, &ResolutionError{Identifier: id, Tried: res.Tried, Err: errNoDocument}
}

// localPath interprets id as a file path. URLs other than file URLs are not
// paths.
func localPath(id string) (string, bool) {
	if strings.HasPrefix(id, "file:") {
		u, err := url.Parse(id)
		if err != nil {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	if weburl.IsURL(id) {
		return "", false
	}
	return id, true
}

// lastSegment returns the last path segment of a URL or file path.
func lastSegment(id string) string {
	if weburl.IsURL(id) {
		u, err := url.Parse(id)
		if err != nil {
			return ""
		}
		p := strings.Trim(u.Path, "/")
		if i := strings.LastIndex(p, "/"); i >= 0 {
			p = p[i+1:]
		}
		return p
	}
	base := filepath.Base(strings.TrimRight(id, "#"))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// session carries the options of one Load call through its imports.
type session struct {
	opts    loadOptions
	visited map[*ontology.Ontology]bool
}

// Load resolves id and loads the document, and by default its imports,
// into the world. Loading an identifier that is already loaded returns the
// same ontology unless Reload is set.
func (l *Loader) Load(ctx context.Context, id string, opts ...LoadOption) (*ontology.Ontology, error) {
	s := &session{opts: newLoadOptions(opts), visited: make(map[*ontology.Ontology]bool)}
	return l.load(ctx, strings.TrimSpace(id), s, l.catalogs(s.opts.catalog))
}

// Import loads iri as an import declared by a generated ontology. A non
// empty location overrides the resolution of iri.
func (l *Loader) Import(ctx context.Context, iri, location string) (*ontology.Ontology, error) {
	var opts []LoadOption
	if location != "" {
		c := catalog.New()
		c.Set(iri, location)
		opts = append(opts, WithLoadCatalog(c))
	}
	return l.Load(ctx, iri, opts...)
}

func (l *Loader) load(ctx context.Context, given string, s *session, cats []*catalog.Catalog) (*ontology.Ontology, error) {
	id := emmo.ResolveAlias(given)

	if onto, ok := l.world.Lookup(id); ok && onto.Loaded() && (s.visited[onto] || !s.opts.reload) {
		l.logger.Debug("Ontology already loaded", "id", id, "iri", onto.IRI())
		return onto, nil
	}

	if l.store != nil && !s.opts.reload && l.store.Has(ctx, id) {
		onto, err := l.store.Load(ctx, l.world, id)
		if err != nil {
			l.metrics.Failed(metric.FailureStore)
			return nil, fmt.Errorf("load %s from store: %w", id, err)
		}
		l.metrics.Resolved(metric.SourceStore)
		l.logger.Info("Loaded ontology from store", "id", id, "iri", onto.IRI(), "triples", onto.Len())
		s.visited[onto] = true
		l.alias(onto, given, id)
		if s.opts.followImports {
			if err := l.loadImports(ctx, onto, s, cats); err != nil {
				return nil, err
			}
		}
		return onto, nil
	}

	res, err := l.resolve(ctx, id, cats)
	if err != nil {
		l.metrics.Failed(metric.FailureUnresolved)
		return nil, err
	}
	l.logger.Debug("Resolved ontology", "id", id, "location", res.Location, "source", res.Source)

	doc, sibling, err := l.read(ctx, res)
	if err != nil {
		return nil, err
	}
	l.metrics.Resolved(res.Source)

	onto, err := l.install(id, res, doc, s)
	if err != nil {
		return nil, err
	}
	l.alias(onto, given, id, res.Location)
	l.logger.Info("Loaded ontology",
		"id", id,
		"iri", onto.IRI(),
		"location", res.Location,
		"source", res.Source,
		"triples", onto.Len())

	if s.opts.followImports {
		importCats := cats
		if sibling != nil {
			importCats = append([]*catalog.Catalog{sibling}, cats...)
		}
		if err := l.loadImports(ctx, onto, s, importCats); err != nil {
			return nil, err
		}
	}
	return onto, nil
}

func (l *Loader) alias(onto *ontology.Ontology, keys ...string) {
	for _, k := range keys {
		if k != "" && ontology.NormalizeIRI(k) != onto.IRI() {
			l.world.Alias(k, onto)
		}
	}
}

// read fetches or reads the document at res.Location and parses it. The
// catalog published next to the document, if any, is returned with it.
func (l *Loader) read(ctx context.Context, res Resolution) (*source.Document, *catalog.Catalog, error) {
	if weburl.IsURL(res.Location) {
		resp, err := l.fetcher.Fetch(ctx, res.Location)
		if err != nil {
			l.metrics.Failed(metric.FailureFetch)
			return nil, nil, &ResolutionError{
				Identifier: res.Identifier,
				Tried:      append(append([]string(nil), res.Tried...), res.Location),
				Err:        err,
			}
		}
		doc, err := l.parsers.Parse(resp.URL, resp.Body, resp.ContentType)
		if err != nil {
			l.metrics.Failed(metric.FailureParse)
			return nil, nil, err
		}
		l.cacheDocument(res, resp, doc)
		return doc, l.remoteCatalog(ctx, resp.URL), nil
	}

	content, err := os.ReadFile(res.Location)
	if err != nil {
		l.metrics.Failed(metric.FailureUnresolved)
		return nil, nil, &ResolutionError{Identifier: res.Identifier, Tried: res.Tried, Err: err}
	}
	doc, err := l.parsers.Parse(res.Location, content, "")
	if err != nil {
		l.metrics.Failed(metric.FailureParse)
		return nil, nil, err
	}
	return doc, l.localCatalog(res.Location), nil
}

func (l *Loader) localCatalog(path string) *catalog.Catalog {
	catPath := filepath.Join(filepath.Dir(path), catalog.FileName)
	if !isFile(catPath) {
		return nil
	}
	c, err := catalog.ReadRecursive(catPath)
	if err != nil {
		l.logger.Warn("Ignoring unreadable catalog", "path", catPath, "error", err)
		return nil
	}
	l.logger.Debug("Using sibling catalog", "path", catPath, "entries", c.Len())
	return c
}

func (l *Loader) remoteCatalog(ctx context.Context, docURL string) *catalog.Catalog {
	if l.onlyLocal {
		return nil
	}
	dir, err := weburl.Dir(docURL)
	if err != nil {
		return nil
	}
	catURL, err := weburl.Join(dir, catalog.FileName)
	if err != nil {
		return nil
	}
	resp, err := l.fetcher.Fetch(ctx, catURL)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.NotFound() {
			l.logger.Debug("No remote catalog", "url", catURL)
		} else {
			l.logger.Warn("Ignoring remote catalog", "url", catURL, "error", err)
		}
		return nil
	}
	c, err := catalog.Parse(bytes.NewReader(resp.Body), dir)
	if err != nil {
		l.logger.Warn("Ignoring malformed remote catalog", "url", catURL, "error", err)
		return nil
	}
	l.logger.Debug("Using remote catalog", "url", catURL, "entries", c.Len())
	return c
}

// cacheDocument stores a fetched document in the download cache and maps
// the identifier to it.
func (l *Loader) cacheDocument(res Resolution, resp *Response, doc *source.Document) {
	if l.cacheDir == "" {
		return
	}
	name := weburl.FileName(res.Location, parser.ExtensionFromMimeType(doc.MimeType))
	path, err := filepath.Abs(filepath.Join(l.cacheDir, name))
	if err != nil {
		l.logger.Warn("Failed to cache document", "url", res.Location, "error", err)
		return
	}
	if err := os.WriteFile(path, resp.Body, 0644); err != nil {
		l.logger.Warn("Failed to cache document", "url", res.Location, "error", err)
		return
	}
	l.cacheCatalog.Set(res.Identifier, path)
	if iri, ok := doc.OntologyIRI(); ok {
		l.cacheCatalog.Set(iri, path)
	}
	if err := l.cacheCatalog.WriteFile(filepath.Join(l.cacheDir, catalog.FileName), true); err != nil {
		l.logger.Warn("Failed to write cache catalog", "dir", l.cacheDir, "error", err)
		return
	}
	l.logger.Debug("Cached document", "url", res.Location, "path", path)
}

// install fills the ontology declared by doc.
func (l *Loader) install(id string, res Resolution, doc *source.Document, s *session) (*ontology.Ontology, error) {
	iri, ok := doc.OntologyIRI()
	if !ok {
		iri = id
		if !weburl.IsURL(id) {
			iri = fileIRI(res.Location)
		}
	}

	onto, exists := l.world.Lookup(iri)
	if exists && onto.Loaded() && (!s.opts.reload || s.visited[onto]) {
		return onto, nil
	}
	if !exists {
		if placeholder, ok := l.world.Lookup(id); ok && !placeholder.Loaded() {
			l.world.Rekey(placeholder, iri)
			onto = placeholder
		} else {
			onto = l.world.Ontology(iri)
		}
	}

	onto.Reset()
	if err := onto.AddStatements(doc.Statements); err != nil {
		return nil, fmt.Errorf("load %s: %w", res.Location, err)
	}
	for p, ns := range doc.Prefixes {
		onto.SetPrefix(p, ns)
	}
	onto.SetEMMOBased(s.opts.emmoBased)
	onto.MarkLoaded(res.Location, doc.MimeType)
	s.visited[onto] = true
	return onto, nil
}

func fileIRI(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// loadImports loads the owl:imports of onto that are not attached yet.
func (l *Loader) loadImports(ctx context.Context, onto *ontology.Ontology, s *session, cats []*catalog.Catalog) error {
	attached := make(map[string]bool)
	for _, imp := range onto.Imports() {
		attached[imp.IRI()] = true
	}
	for _, iri := range onto.ImportIRIs() {
		if attached[ontology.NormalizeIRI(iri)] {
			continue
		}
		imp, err := l.load(ctx, iri, s, cats)
		if err != nil {
			return fmt.Errorf("import %s into %s: %w", iri, onto.IRI(), err)
		}
		onto.AddImport(imp)
		attached[imp.IRI()] = true
	}
	return nil
}
