package loader

import (
	"log/slog"
	"net/http"

	"github.com/c360studio/ontopy/catalog"
	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/source/parser"
	"github.com/c360studio/ontopy/storage"
)

// Option configures a Loader.
type Option func(*Loader) error

// WithSearchPaths sets the directories scanned for local documents.
// Patterns may use doublestar globs such as "ontologies/**".
func WithSearchPaths(patterns ...string) Option {
	return func(l *Loader) error {
		l.searchPaths = append(l.searchPaths, patterns...)
		return nil
	}
}

// WithCatalog sets the catalog consulted for every load.
func WithCatalog(c *catalog.Catalog) Option {
	return func(l *Loader) error {
		l.catalog = c
		return nil
	}
}

// WithCatalogFile reads the catalog at path, following nextCatalog
// references.
func WithCatalogFile(path string) Option {
	return func(l *Loader) error {
		c, err := catalog.ReadRecursive(path)
		if err != nil {
			return err
		}
		l.catalog = c
		return nil
	}
}

// WithHTTPClient sets the client of the default fetcher.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) error {
		l.httpClient = c
		return nil
	}
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) error {
		l.fetcher = f
		return nil
	}
}

// WithFetchCache sets the size in bytes of the in-memory cache of fetched
// documents. Zero disables it.
func WithFetchCache(bytes int) Option {
	return func(l *Loader) error {
		l.fetchCacheBytes = bytes
		return nil
	}
}

// WithCacheDir stores fetched documents in dir and records them in the
// catalog kept there, so later loads work offline.
func WithCacheDir(dir string) Option {
	return func(l *Loader) error {
		l.cacheDir = dir
		return nil
	}
}

// WithStore rebuilds ontologies found in the store instead of resolving
// them.
func WithStore(s *storage.Store) Option {
	return func(l *Loader) error {
		l.store = s
		return nil
	}
}

// WithMetrics records resolutions and failures.
func WithMetrics(m *metric.Metrics) Option {
	return func(l *Loader) error {
		l.metrics = m
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger != nil {
			l.logger = logger
		}
		return nil
	}
}

// WithParsers sets the parser registry.
func WithParsers(r *parser.Registry) Option {
	return func(l *Loader) error {
		l.parsers = r
		return nil
	}
}

// WithOnlyLocal disables remote fetches.
func WithOnlyLocal(v bool) Option {
	return func(l *Loader) error {
		l.onlyLocal = v
		return nil
	}
}

// LoadOption configures a single Resolve or Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	catalog       *catalog.Catalog
	emmoBased     bool
	reload        bool
	followImports bool
}

func newLoadOptions(opts []LoadOption) loadOptions {
	o := loadOptions{emmoBased: true, followImports: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLoadCatalog adds a catalog consulted before the loader's own.
func WithLoadCatalog(c *catalog.Catalog) LoadOption {
	return func(o *loadOptions) {
		o.catalog = c
	}
}

// EMMOBased marks the loaded ontologies as following EMMO conventions or
// not. Non-EMMO ontologies are labelled with rdfs:label only.
func EMMOBased(v bool) LoadOption {
	return func(o *loadOptions) {
		o.emmoBased = v
	}
}

// Reload parses the document again even if the ontology is loaded.
func Reload(v bool) LoadOption {
	return func(o *loadOptions) {
		o.reload = v
	}
}

// FollowImports sets whether owl:imports are loaded too.
func FollowImports(v bool) LoadOption {
	return func(o *loadOptions) {
		o.followImports = v
	}
}
