package parser

import (
	"net/url"
	"path/filepath"
	"strings"
)

// resolveIRI resolves ref against base. Absolute references and references
// that cannot be parsed are returned unchanged.
func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// documentBase returns the IRI a document read from location is based on
// when it declares none.
func documentBase(location string) string {
	if location == "" {
		return ""
	}
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return location
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(abs)
}

// localName returns the part of an IRI after the last '#' or '/'.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
