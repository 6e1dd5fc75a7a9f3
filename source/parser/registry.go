package parser

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/ontopy/source"
)

// MIME types of the supported RDF serializations.
const (
	MimeTurtle   = "text/turtle"
	MimeNTriples = "application/n-triples"
	MimeRDFXML   = "application/rdf+xml"
)

// Parser defines the interface for RDF document parsers.
type Parser interface {
	// Parse parses a document read from location.
	Parse(location string, content []byte) (*source.Document, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// Registry manages document parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser // keyed by primary MIME type
}

// DefaultRegistry is the global parser registry with default parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new parser registry with default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	r.Register(NewTurtleParser())
	r.Register(NewNTriplesParser())
	r.Register(NewRDFXMLParser())

	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns a parser for the given MIME type. Media type
// parameters such as charset are ignored.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[mimeType]; ok {
		return p
	}
	for _, p := range r.parsers {
		if p.CanParse(mimeType) {
			return p
		}
	}
	return nil
}

// GetByExtension returns a parser for a file or URL based on its extension.
func (r *Registry) GetByExtension(location string) Parser {
	return r.GetByMimeType(MimeTypeFromExtension(extensionOf(location)))
}

// Parse parses a document. The parser is chosen by mimeHint when it names a
// registered type, then by the location's extension, then by sniffing the
// content.
func (r *Registry) Parse(location string, content []byte, mimeHint string) (*source.Document, error) {
	var p Parser
	if mimeHint != "" {
		p = r.GetByMimeType(mimeHint)
	}
	if p == nil {
		p = r.GetByExtension(location)
	}
	if p == nil {
		p = r.GetByMimeType(Sniff(content))
	}
	if p == nil {
		return nil, &source.FormatError{
			Location: location,
			MimeType: mimeHint,
			Err:      fmt.Errorf("no parser for %q", extensionOf(location)),
		}
	}
	return p.Parse(location, content)
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Extensions lists the file extensions tried when resolving an identifier
// without one, in order of preference.
func Extensions() []string {
	return []string{".ttl", ".owl", ".rdf", ".xml", ".nt"}
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".ttl", ".turtle":
		return MimeTurtle
	case ".nt", ".ntriples":
		return MimeNTriples
	case ".rdf", ".owl", ".xml", ".rdfxml":
		return MimeRDFXML
	default:
		return "application/octet-stream"
	}
}

// ExtensionFromMimeType returns a typical file extension for a MIME type.
func ExtensionFromMimeType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	switch mimeType {
	case MimeTurtle, "application/x-turtle":
		return ".ttl"
	case MimeNTriples, "text/plain":
		return ".nt"
	case MimeRDFXML, "application/xml", "text/xml", "application/owl+xml":
		return ".rdf"
	default:
		return ""
	}
}

// Sniff guesses the MIME type of an RDF document from its first bytes.
func Sniff(content []byte) string {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.Contains(head, []byte("<rdf:RDF")):
		return MimeRDFXML
	case bytes.Contains(head, []byte("@prefix")), bytes.Contains(head, []byte("@base")),
		bytes.Contains(bytes.ToUpper(head), []byte("PREFIX ")):
		return MimeTurtle
	case bytes.HasPrefix(trimmed, []byte("<")), bytes.HasPrefix(trimmed, []byte("_:")):
		return MimeNTriples
	default:
		return MimeTurtle
	}
}

// extensionOf returns the extension of a path or of a URL's path.
func extensionOf(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return path.Ext(u.Path)
	}
	return filepath.Ext(location)
}
