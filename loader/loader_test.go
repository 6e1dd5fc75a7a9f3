package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontopy/catalog"
	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/ontology"
	"github.com/c360studio/ontopy/source"
	"github.com/c360studio/ontopy/storage"
)

const testontoTTL = `@prefix : <http://example.org/testonto#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .

<http://example.org/testonto> a owl:Ontology ;
    owl:imports <http://example.org/models> .

:TestClass a owl:Class ;
    rdfs:subClassOf <http://example.org/models#Model> ;
    skos:prefLabel "TestClass"@en .
`

const modelsTTL = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .

<http://example.org/models> a owl:Ontology .

<http://example.org/models#Model> a owl:Class ;
    skos:prefLabel "Model"@en .
`

const modelsCatalog = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<catalog prefer="public" xmlns="urn:oasis:names:tc:entity:xmlns:xml:catalog">
    <uri name="http://example.org/models" uri="models.ttl"/>
</catalog>
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testontoDir writes testonto.ttl, models.ttl and a catalog mapping the
// import to models.ttl.
func testontoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "testonto.ttl", testontoTTL)
	writeFile(t, dir, "models.ttl", modelsTTL)
	writeFile(t, dir, catalog.FileName, modelsCatalog)
	return dir
}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	l, err := New(nil, opts...)
	require.NoError(t, err)
	return l
}

func TestLoad_LocalWithSiblingCatalog(t *testing.T) {
	dir := testontoDir(t)
	m, err := metric.New()
	require.NoError(t, err)
	l := newTestLoader(t, WithMetrics(m))

	path := filepath.Join(dir, "testonto.ttl")
	onto, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/testonto", onto.IRI())
	assert.Equal(t, path, onto.Location())
	assert.True(t, onto.Loaded())
	assert.True(t, onto.EMMOBased())

	imports := onto.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, "http://example.org/models", imports[0].IRI())
	assert.Equal(t, filepath.Join(dir, "models.ttl"), imports[0].Location())

	model, ok := onto.Get("Model")
	require.True(t, ok, "Model should be found through the import")
	assert.Equal(t, "http://example.org/models#Model", model.IRI())
	assert.Equal(t, "Model", model.Name())

	tc, ok := onto.Get("TestClass")
	require.True(t, ok)
	parents := tc.Parents()
	require.Len(t, parents, 1)
	assert.Equal(t, "Model", parents[0].PreferredLabel())

	byPath, ok := l.World().Lookup(path)
	require.True(t, ok)
	assert.Same(t, onto, byPath)

	expected := `
# HELP ontopy_loader_resolutions_total Ontology identifiers resolved, by resolution source
# TYPE ontopy_loader_resolutions_total counter
ontopy_loader_resolutions_total{source="catalog"} 1
ontopy_loader_resolutions_total{source="local"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected),
		"ontopy_loader_resolutions_total"))
}

func TestLoad_Idempotent(t *testing.T) {
	dir := testontoDir(t)
	l := newTestLoader(t)
	ctx := context.Background()
	path := filepath.Join(dir, "testonto.ttl")

	first, err := l.Load(ctx, path)
	require.NoError(t, err)
	second, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	byIRI, err := l.Load(ctx, "http://example.org/testonto")
	require.NoError(t, err)
	assert.Same(t, first, byIRI)
	assert.Len(t, l.World().Ontologies(), 2)
}

func TestLoad_Reload(t *testing.T) {
	dir := testontoDir(t)
	l := newTestLoader(t)
	ctx := context.Background()
	path := filepath.Join(dir, "testonto.ttl")

	onto, err := l.Load(ctx, path)
	require.NoError(t, err)
	before := ontology.NewWorld().Ontology("http://example.org/snapshot")
	require.NoError(t, before.AddStatements(onto.Statements()))

	extra := strings.Replace(testontoTTL, `"TestClass"@en .`,
		"\"TestClass\"@en .\n\n:Other a owl:Class .\n", 1)
	writeFile(t, dir, "testonto.ttl", extra)

	reloaded, err := l.Load(ctx, path, Reload(true))
	require.NoError(t, err)
	assert.Same(t, onto, reloaded)
	assert.Equal(t, before.Len()+1, reloaded.Len())
	_, ok := reloaded.Get("Other")
	assert.True(t, ok)
	require.Len(t, reloaded.Imports(), 1)

	writeFile(t, dir, "testonto.ttl", testontoTTL)
	again, err := l.Load(ctx, path, Reload(true))
	require.NoError(t, err)
	iso, err := before.Isomorphic(again)
	require.NoError(t, err)
	assert.True(t, iso)
}

func TestLoad_NotEMMOBased(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.ttl", `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .

<http://example.org/plain> a owl:Ontology .
<http://example.org/plain#A> a owl:Class ; rdfs:label "Alpha" .
<http://example.org/plain#B> a owl:Class ; skos:prefLabel "Beta" .
`)
	l := newTestLoader(t)

	onto, err := l.Load(context.Background(), path, EMMOBased(false))
	require.NoError(t, err)
	assert.False(t, onto.EMMOBased())

	_, ok := onto.Get("Alpha")
	assert.True(t, ok)
	_, ok = onto.Get("Beta")
	assert.False(t, ok, "skos:prefLabel is not a label of non-EMMO ontologies")
}

func TestLoad_NoFollowImports(t *testing.T) {
	dir := testontoDir(t)
	l := newTestLoader(t)

	onto, err := l.Load(context.Background(), filepath.Join(dir, "testonto.ttl"), FollowImports(false))
	require.NoError(t, err)
	assert.Empty(t, onto.Imports())
	assert.Equal(t, []string{"http://example.org/models"}, onto.ImportIRIs())
}

func TestLoad_ImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ttl", `@prefix owl: <http://www.w3.org/2002/07/owl#> .
<http://example.org/a> a owl:Ontology ; owl:imports <http://example.org/b> .
`)
	writeFile(t, dir, "b.ttl", `@prefix owl: <http://www.w3.org/2002/07/owl#> .
<http://example.org/b> a owl:Ontology ; owl:imports <http://example.org/a> .
`)
	writeFile(t, dir, catalog.FileName, `<catalog xmlns="urn:oasis:names:tc:entity:xmlns:xml:catalog">
    <uri name="http://example.org/a" uri="a.ttl"/>
    <uri name="http://example.org/b" uri="b.ttl"/>
</catalog>
`)
	l := newTestLoader(t)

	a, err := l.Load(context.Background(), filepath.Join(dir, "a.ttl"))
	require.NoError(t, err)
	require.Len(t, a.Imports(), 1)
	b := a.Imports()[0]
	assert.Equal(t, "http://example.org/b", b.IRI())
	require.Len(t, b.Imports(), 1)
	assert.Same(t, a, b.Imports()[0])
	assert.Len(t, a.ImportClosure(), 2)
}

func TestLoad_DocumentWithoutOntologyIRI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bare.nt",
		"<http://example.org/x#A> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .\n")
	l := newTestLoader(t)

	onto, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(onto.IRI(), "file:///"), onto.IRI())
	assert.Equal(t, 1, onto.Len())
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.ttl", "@prefix : <http://example.org/> .\n:a :b .\n")
	m, err := metric.New()
	require.NoError(t, err)
	l := newTestLoader(t, WithMetrics(m))

	_, err = l.Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFormat)
	var fe *source.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, path, fe.Location)

	expected := `
# HELP ontopy_loader_failures_total Failed ontology loads, by failure kind
# TYPE ontopy_loader_failures_total counter
ontopy_loader_failures_total{kind="parse"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected),
		"ontopy_loader_failures_total"))
}

func TestLoad_Unresolved(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, WithSearchPaths(dir))

	_, err := l.Load(context.Background(), "missing.ttl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "missing.ttl", re.Identifier)
	assert.Contains(t, re.Tried, "missing.ttl")
	assert.Contains(t, re.Tried, filepath.Join(dir, "missing.ttl"))
	assert.Contains(t, err.Error(), `resolve ontology "missing.ttl"`)
}

func TestLoad_ImportUnresolved(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "testonto.ttl", testontoTTL)
	l := newTestLoader(t, WithOnlyLocal(true))

	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Contains(t, err.Error(), "import http://example.org/models")
}

func TestLoad_ImportOverride(t *testing.T) {
	dir := testontoDir(t)
	other := t.TempDir()
	writeFile(t, other, "models-v2.ttl", strings.Replace(modelsTTL, `"Model"@en`, `"Model"@en, "ModelV2"@en`, 1))
	override := catalog.New()
	override.Set("http://example.org/models", filepath.Join(other, "models-v2.ttl"))
	l := newTestLoader(t)

	onto, err := l.Load(context.Background(), filepath.Join(dir, "testonto.ttl"), WithLoadCatalog(override))
	require.NoError(t, err)
	require.Len(t, onto.Imports(), 1)
	assert.Equal(t, filepath.Join(dir, "models.ttl"), onto.Imports()[0].Location(),
		"the sibling catalog of a document wins for its own imports")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	emmoPath := writeFile(t, dir, "cache/emmo.ttl", "")
	nested := writeFile(t, dir, "ontologies/chem/chemistry.ttl", "")
	local := writeFile(t, dir, "local.owl", "")

	cat := catalog.New()
	cat.Set("https://emmo-repo.github.io/latest-stable/emmo.ttl", emmoPath)
	cat.Set("http://example.org/gone", filepath.Join(dir, "gone.ttl"))

	l := newTestLoader(t,
		WithCatalog(cat),
		WithSearchPaths(filepath.Join(dir, "ontologies", "**")))
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		location string
		source   string
	}{
		{"alias through catalog", "emmo", emmoPath, metric.SourceCatalog},
		{"local path", local, local, metric.SourceLocal},
		{"file URL", "file://" + filepath.ToSlash(local), local, metric.SourceLocal},
		{"search path glob", "http://example.org/chemistry", nested, metric.SourceLocal},
		{"remote", "http://example.org/remote.ttl", "http://example.org/remote.ttl", metric.SourceRemote},
		{"stale catalog entry falls through", "http://example.org/gone", "http://example.org/gone", metric.SourceRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := l.Resolve(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.location, res.Location)
			assert.Equal(t, tt.source, res.Source)
		})
	}

	res, err := l.Resolve(ctx, "http://example.org/gone")
	require.NoError(t, err)
	require.NotEmpty(t, res.Tried)
	assert.Equal(t, filepath.Join(dir, "gone.ttl"), res.Tried[0])
}

func TestResolve_OnlyLocal(t *testing.T) {
	l := newTestLoader(t, WithOnlyLocal(true))

	_, err := l.Resolve(context.Background(), "http://example.org/remote.ttl")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolve_CancelledContext(t *testing.T) {
	l := newTestLoader(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Resolve(ctx, "http://example.org/remote.ttl")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLastSegment(t *testing.T) {
	tests := map[string]string{
		"http://example.org/onto/chemistry":  "chemistry",
		"http://example.org/onto/chemistry/": "chemistry",
		"http://example.org":                 "",
		"dir/file.ttl":                       "file.ttl",
		"/":                                  "",
	}
	for id, want := range tests {
		assert.Equal(t, want, lastSegment(id), id)
	}
}

// ontologyServer serves battinfo.ttl, which imports electro, and a catalog
// mapping electro to a relative location.
type ontologyServer struct {
	*httptest.Server

	mu      sync.Mutex
	hits    map[string]int
	accepts []string
}

const battinfoTTL = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .

<http://example.org/battinfo> a owl:Ontology ;
    owl:imports <http://example.org/electro> .

<http://example.org/battinfo#Battery> a owl:Class ;
    skos:prefLabel "Battery"@en .
`

const electroTTL = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .

<http://example.org/electro> a owl:Ontology .

<http://example.org/electro#Electrode> a owl:Class ;
    skos:prefLabel "Electrode"@en .
`

func newOntologyServer(t *testing.T, withCatalog bool) *ontologyServer {
	t.Helper()
	s := &ontologyServer{hits: make(map[string]int)}
	mux := http.NewServeMux()
	serve := func(path, contentType, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.hits[r.URL.Path]++
			s.accepts = append(s.accepts, r.Header.Get("Accept"))
			s.mu.Unlock()
			w.Header().Set("Content-Type", contentType)
			_, _ = io.WriteString(w, body)
		})
	}
	serve("/onto/battinfo.ttl", "text/turtle; charset=utf-8", battinfoTTL)
	serve("/onto/electro.ttl", "text/turtle", electroTTL)
	if withCatalog {
		serve("/onto/"+catalog.FileName, "application/xml", `<catalog xmlns="urn:oasis:names:tc:entity:xmlns:xml:catalog">
    <uri name="http://example.org/electro" uri="electro.ttl"/>
</catalog>
`)
	}
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *ontologyServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func TestLoad_Remote(t *testing.T) {
	srv := newOntologyServer(t, true)
	m, err := metric.New()
	require.NoError(t, err)
	l := newTestLoader(t, WithMetrics(m))

	onto, err := l.Load(context.Background(), srv.URL+"/onto/battinfo.ttl")
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/battinfo", onto.IRI())
	assert.Equal(t, "text/turtle", onto.MimeType())
	require.Len(t, onto.Imports(), 1)
	electro := onto.Imports()[0]
	assert.Equal(t, "http://example.org/electro", electro.IRI())
	assert.Equal(t, srv.URL+"/onto/electro.ttl", electro.Location())

	_, ok := onto.Get("Electrode")
	assert.True(t, ok)

	srv.mu.Lock()
	for _, accept := range srv.accepts {
		assert.Equal(t, AcceptHeader, accept)
	}
	srv.mu.Unlock()
	assert.Equal(t, 1, srv.hitCount("/onto/"+catalog.FileName), "catalog is cached in memory")

	expected := `
# HELP ontopy_loader_resolutions_total Ontology identifiers resolved, by resolution source
# TYPE ontopy_loader_resolutions_total counter
ontopy_loader_resolutions_total{source="catalog"} 1
ontopy_loader_resolutions_total{source="remote"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected),
		"ontopy_loader_resolutions_total"))
	n, err := testutil.GatherAndCount(m.Gatherer(), "ontopy_loader_fetch_bytes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoad_RemoteWithoutCatalog(t *testing.T) {
	srv := newOntologyServer(t, false)
	cat := catalog.New()
	cat.Set("http://example.org/electro", srv.URL+"/onto/electro.ttl")
	l := newTestLoader(t, WithCatalog(cat))

	onto, err := l.Load(context.Background(), srv.URL+"/onto/battinfo.ttl")
	require.NoError(t, err)
	require.Len(t, onto.Imports(), 1)
	assert.Equal(t, "http://example.org/electro", onto.Imports()[0].IRI())
}

func TestLoad_RemoteFailure(t *testing.T) {
	srv := newOntologyServer(t, false)
	l := newTestLoader(t)

	_, err := l.Load(context.Background(), srv.URL+"/broken/onto.ttl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.False(t, httpErr.NotFound())

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{srv.URL + "/broken/onto.ttl"}, re.Tried)
}

func TestLoad_CacheDir(t *testing.T) {
	srv := newOntologyServer(t, true)
	cacheDir := t.TempDir()
	ctx := context.Background()
	docURL := srv.URL + "/onto/battinfo.ttl"

	online := newTestLoader(t, WithCacheDir(cacheDir))
	_, err := online.Load(ctx, docURL)
	require.NoError(t, err)

	catPath := filepath.Join(cacheDir, catalog.FileName)
	require.FileExists(t, catPath)
	cached, err := catalog.Read(catPath)
	require.NoError(t, err)
	for _, name := range []string{docURL, "http://example.org/battinfo", "http://example.org/electro"} {
		loc, ok := cached.Lookup(name)
		require.True(t, ok, name)
		assert.FileExists(t, loc)
	}

	srv.Close()
	offline := newTestLoader(t, WithCacheDir(cacheDir), WithOnlyLocal(true))
	onto, err := offline.Load(ctx, docURL)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/battinfo", onto.IRI())
	require.Len(t, onto.Imports(), 1)
	assert.Equal(t, "http://example.org/electro", onto.Imports()[0].IRI())
}

func TestLoad_Store(t *testing.T) {
	dir := testontoDir(t)
	ctx := context.Background()

	store, err := storage.Open(filepath.Join(t.TempDir(), "ontologies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	first := newTestLoader(t)
	onto, err := first.Load(ctx, filepath.Join(dir, "testonto.ttl"))
	require.NoError(t, err)
	require.NoError(t, store.SaveClosure(ctx, onto))

	m, err := metric.New()
	require.NoError(t, err)
	second := newTestLoader(t, WithStore(store), WithMetrics(m), WithOnlyLocal(true))
	restored, err := second.Load(ctx, "http://example.org/testonto")
	require.NoError(t, err)

	iso, err := onto.Isomorphic(restored)
	require.NoError(t, err)
	assert.True(t, iso)
	require.Len(t, restored.Imports(), 1)
	_, ok := restored.Get("Model")
	assert.True(t, ok)

	expected := `
# HELP ontopy_loader_resolutions_total Ontology identifiers resolved, by resolution source
# TYPE ontopy_loader_resolutions_total counter
ontopy_loader_resolutions_total{source="store"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected),
		"ontopy_loader_resolutions_total"))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "somewhere/models.ttl", modelsTTL)
	l := newTestLoader(t, WithOnlyLocal(true))
	ctx := context.Background()

	onto, err := l.Import(ctx, "http://example.org/models", path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/models", onto.IRI())
	assert.Equal(t, path, onto.Location())

	again, err := l.Import(ctx, "http://example.org/models", "")
	require.NoError(t, err)
	assert.Same(t, onto, again)

	_, err = l.Import(ctx, "http://example.org/other", "")
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestNew_BadCatalogFile(t *testing.T) {
	_, err := New(nil, WithCatalogFile(filepath.Join(t.TempDir(), "missing.xml")))
	assert.Error(t, err)
}
