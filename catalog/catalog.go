// Package catalog reads and writes OASIS XML catalogs that map ontology
// IRIs to the files or URLs holding them.
//
// Catalogs follow the catalog-v001.xml layout written by Protégé. Besides the
// uri entries a catalog may carry a group with id "provenance" recording the
// document each generated entity was derived from.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileName is the conventional name of a catalog file.
const FileName = "catalog-v001.xml"

// ErrDuplicateEntry is returned when a name is added twice with different
// locations.
var ErrDuplicateEntry = errors.New("duplicate catalog entry")

// Entry maps a logical name to a location.
type Entry struct {
	Name     string
	Location string
}

// Catalog maps ontology names to locations.
type Catalog struct {
	mu         sync.RWMutex
	entries    map[string]string
	provenance map[string]string
	next       []string
	source     string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries:    make(map[string]string),
		provenance: make(map[string]string),
	}
}

// Source returns the file the catalog was read from, if any.
func (c *Catalog) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Add maps name to location. Adding the same pair again is a no-op; adding
// a name with a different location fails with ErrDuplicateEntry.
func (c *Catalog) Add(name, location string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[name]; ok {
		if existing == location {
			return nil
		}
		return fmt.Errorf("%w: %s maps to %s, not %s", ErrDuplicateEntry, name, existing, location)
	}
	c.entries[name] = location
	return nil
}

// Set maps name to location, replacing any previous mapping.
func (c *Catalog) Set(name, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = location
}

// Lookup returns the location of name. Ontology IRIs are also tried with a
// trailing '#' or '/' removed or added.
func (c *Catalog) Lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range variants(name) {
		if loc, ok := c.entries[key]; ok {
			return loc, true
		}
	}
	return "", false
}

func variants(name string) []string {
	trimmed := strings.TrimRight(name, "#/")
	if trimmed == "" {
		return []string{name}
	}
	return []string{name, trimmed, trimmed + "#", trimmed + "/"}
}

// Names returns the sorted entry names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the entries sorted by name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedEntries(c.entries)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Next returns the locations of nextCatalog references.
func (c *Catalog) Next() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.next...)
}

// Merge adds every entry and provenance record of other. Conflicting
// entries are skipped and reported together as ErrDuplicateEntry.
func (c *Catalog) Merge(other *Catalog) error {
	if other == nil || other == c {
		return nil
	}
	var errs []error
	for _, e := range other.Entries() {
		if err := c.Add(e.Name, e.Location); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range other.ProvenanceEntries() {
		c.AddProvenance(e.Name, e.Location)
	}
	return errors.Join(errs...)
}

// fill adds the entries of other that c does not name yet.
func (c *Catalog) fill(other *Catalog) {
	for _, e := range other.Entries() {
		if _, ok := c.Lookup(e.Name); !ok {
			c.Set(e.Name, e.Location)
		}
	}
	for _, e := range other.ProvenanceEntries() {
		if _, ok := c.Provenance(e.Name); !ok {
			c.AddProvenance(e.Name, e.Location)
		}
	}
}

// AddProvenance records source as the document entity iri was generated
// from.
func (c *Catalog) AddProvenance(iri, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provenance[iri] = source
}

// Provenance returns the source document recorded for iri.
func (c *Catalog) Provenance(iri string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.provenance[iri]
	return src, ok
}

// ProvenanceEntries returns the provenance records sorted by entity IRI.
func (c *Catalog) ProvenanceEntries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedEntries(c.provenance)
}

func sortedEntries(m map[string]string) []Entry {
	entries := make([]Entry, 0, len(m))
	for name, loc := range m {
		entries = append(entries, Entry{Name: name, Location: loc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// IsURL reports whether location is an absolute URL rather than a file path.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) < 2 {
		// One letter schemes are Windows drive letters.
		return false
	}
	return u.Scheme != "file"
}

// Resolve interprets location relative to base, a directory path or URL.
func Resolve(base, location string) string {
	if location == "" || IsURL(location) {
		return location
	}
	if strings.HasPrefix(location, "file:") {
		if u, err := url.Parse(location); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	if IsURL(base) {
		b, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
		if err != nil {
			return location
		}
		ref, err := url.Parse(filepath.ToSlash(location))
		if err != nil {
			return location
		}
		return b.ResolveReference(ref).String()
	}
	if filepath.IsAbs(location) || base == "" {
		return filepath.Clean(location)
	}
	return filepath.Join(base, filepath.FromSlash(location))
}
