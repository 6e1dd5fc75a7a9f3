package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatRDFXML: {
		Name:        FormatRDFXML,
		MIMEType:    "application/rdf+xml",
		Extension:   ".owl",
		Description: "RDF/XML - the serialization of most OWL files",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// FormatFromExtension returns the format written to files with the
// extension of path.
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return FormatTurtle, true
	case ".nt", ".ntriples":
		return FormatNTriples, true
	case ".owl", ".rdf", ".xml":
		return FormatRDFXML, true
	case ".jsonld", ".json":
		return FormatJSONLD, true
	}
	return "", false
}

// ParseFormat returns the format named by s. Common aliases are accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	case "rdfxml", "rdf/xml", "xml", "owl", "rdf":
		return FormatRDFXML, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

var pnLocal = regexp.MustCompile(`^[\pL\pN_](?:[\pL\pN_.\-]*[\pL\pN_\-])?$`)

// prefixTable compacts IRIs to prefixed names.
type prefixTable map[string]string

// compact returns prefix:local for iri when a prefix covers it.
func (t prefixTable) compact(iri string) (string, bool) {
	best, bestNS := "", ""
	for prefix, ns := range t {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return "", false
	}
	local := iri[len(bestNS):]
	if local != "" && !pnLocal.MatchString(local) {
		return "", false
	}
	return best + ":" + local, true
}

func (t prefixTable) sortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// subjectGroup holds the statements of one subject in predicate order.
type subjectGroup struct {
	subject rdf.Term
	stmts   []*rdf.Statement
}

// groupBySubject groups statements by subject. Named subjects come first,
// then blank nodes, each in lexical order.
func groupBySubject(stmts []*rdf.Statement) []*subjectGroup {
	sorted := make([]*rdf.Statement, len(stmts))
	copy(sorted, stmts)
	term.Sort(sorted)

	index := make(map[string]*subjectGroup)
	var groups []*subjectGroup
	for _, s := range sorted {
		g, ok := index[s.Subject.Value]
		if !ok {
			g = &subjectGroup{subject: s.Subject}
			index[s.Subject.Value] = g
			groups = append(groups, g)
		}
		g.stmts = append(g.stmts, s)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		bi, bj := term.IsBlank(groups[i].subject), term.IsBlank(groups[j].subject)
		if bi != bj {
			return !bi
		}
		return groups[i].subject.Value < groups[j].subject.Value
	})
	for _, g := range groups {
		sort.SliceStable(g.stmts, func(i, j int) bool {
			ti := g.stmts[i].Predicate.Value == "<"+owl.Type+">"
			tj := g.stmts[j].Predicate.Value == "<"+owl.Type+">"
			return ti && !tj
		})
	}
	return groups
}

// TurtleWriter writes RDF in Turtle format. Blank nodes used exactly once as
// an object are written inline.
type TurtleWriter struct {
	prefixes prefixTable
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	w := &TurtleWriter{prefixes: make(prefixTable)}
	for k, v := range prefixes {
		w.prefixes[k] = v
	}
	return w
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	for _, prefix := range w.prefixes.sortedKeys() {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", prefix, w.prefixes[prefix])
	}
	w.sb.WriteString("\n")
}

// WriteStatements writes the statements grouped by subject.
func (w *TurtleWriter) WriteStatements(stmts []*rdf.Statement) {
	groups := groupBySubject(stmts)
	bySubject := make(map[string]*subjectGroup, len(groups))
	for _, g := range groups {
		bySubject[g.subject.Value] = g
	}
	refs := make(map[string]int)
	for _, s := range stmts {
		if term.IsBlank(s.Object) {
			refs[s.Object.Value]++
		}
	}

	tw := &turtleWalk{w: w, bySubject: bySubject, refs: refs, written: make(map[string]bool)}
	for _, pass := range []bool{false, true} {
		for _, g := range groups {
			if tw.written[g.subject.Value] {
				continue
			}
			// Inlinable blank nodes are left to their referrer on the
			// first pass; the second pass picks up cycles.
			if !pass && term.IsBlank(g.subject) && refs[g.subject.Value] == 1 {
				continue
			}
			tw.written[g.subject.Value] = true
			w.sb.WriteString(w.term(g.subject))
			tw.predicates(g, 1)
			w.sb.WriteString(" .\n\n")
		}
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

type turtleWalk struct {
	w         *TurtleWriter
	bySubject map[string]*subjectGroup
	refs      map[string]int
	written   map[string]bool
}

func (tw *turtleWalk) predicates(g *subjectGroup, depth int) {
	sb := &tw.w.sb
	indent := strings.Repeat("    ", depth)
	var last string
	for i, s := range g.stmts {
		if s.Predicate.Value == last {
			sb.WriteString(" ,\n" + indent + "    ")
		} else {
			if i > 0 {
				sb.WriteString(" ;")
			}
			sb.WriteString("\n" + indent)
			if s.Predicate.Value == "<"+owl.Type+">" {
				sb.WriteString("a ")
			} else {
				sb.WriteString(tw.w.term(s.Predicate) + " ")
			}
			last = s.Predicate.Value
		}
		tw.object(s.Object, depth)
	}
}

func (tw *turtleWalk) object(o rdf.Term, depth int) {
	sb := &tw.w.sb
	g, ok := tw.bySubject[o.Value]
	if !term.IsBlank(o) || tw.refs[o.Value] != 1 || tw.written[o.Value] {
		sb.WriteString(tw.w.term(o))
		return
	}
	tw.written[o.Value] = true
	if !ok {
		sb.WriteString("[]")
		return
	}
	sb.WriteString("[")
	tw.predicates(g, depth+1)
	sb.WriteString("\n" + strings.Repeat("    ", depth) + "]")
}

// term formats a term for Turtle output.
func (w *TurtleWriter) term(t rdf.Term) string {
	p, err := term.Parse(t)
	if err != nil {
		return t.Value
	}
	switch p.Kind {
	case rdf.IRI:
		if pn, ok := w.prefixes.compact(p.Value); ok {
			return pn
		}
		return t.Value
	case rdf.Literal:
		lit := `"` + term.Escape(p.Value) + `"`
		switch {
		case p.Lang != "":
			return lit + "@" + p.Lang
		case p.Datatype == owl.Integer && isInteger(p.Value):
			return p.Value
		case p.Datatype == owl.Boolean && (p.Value == "true" || p.Value == "false"):
			return p.Value
		case p.Datatype != "":
			if pn, ok := w.prefixes.compact(p.Datatype); ok {
				return lit + "^^" + pn
			}
			return lit + "^^<" + p.Datatype + ">"
		}
		return lit
	}
	return t.Value
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil && !strings.HasPrefix(s, "+")
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteStatement writes a single triple.
func (w *NTriplesWriter) WriteStatement(s *rdf.Statement) {
	w.sb.WriteString(term.Line(s))
	w.sb.WriteString("\n")
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

// RDFXMLWriter writes RDF in RDF/XML format with one rdf:Description per
// subject.
type RDFXMLWriter struct {
	prefixes prefixTable
	body     strings.Builder
	extra    int
}

// NewRDFXMLWriter creates a new RDF/XML writer with the given prefixes.
func NewRDFXMLWriter(prefixes map[string]string) *RDFXMLWriter {
	w := &RDFXMLWriter{prefixes: prefixTable{"rdf": owl.RDF}}
	for k, v := range prefixes {
		if k != "" {
			w.prefixes[k] = v
		}
	}
	return w
}

// WriteStatements writes the statements grouped by subject.
func (w *RDFXMLWriter) WriteStatements(stmts []*rdf.Statement) error {
	for _, g := range groupBySubject(stmts) {
		p, err := term.Parse(g.subject)
		if err != nil {
			return err
		}
		if p.Kind == rdf.Blank {
			fmt.Fprintf(&w.body, "  <rdf:Description rdf:nodeID=\"%s\">\n", xmlEscape(p.Value))
		} else {
			fmt.Fprintf(&w.body, "  <rdf:Description rdf:about=\"%s\">\n", xmlEscape(p.Value))
		}
		for _, s := range g.stmts {
			if err := w.property(s); err != nil {
				return err
			}
		}
		w.body.WriteString("  </rdf:Description>\n")
	}
	return nil
}

func (w *RDFXMLWriter) property(s *rdf.Statement) error {
	pred, _ := term.IRIOf(s.Predicate)
	qname, err := w.qname(pred)
	if err != nil {
		return err
	}
	o, err := term.Parse(s.Object)
	if err != nil {
		return err
	}
	switch {
	case o.Kind == rdf.IRI:
		fmt.Fprintf(&w.body, "    <%s rdf:resource=\"%s\"/>\n", qname, xmlEscape(o.Value))
	case o.Kind == rdf.Blank:
		fmt.Fprintf(&w.body, "    <%s rdf:nodeID=\"%s\"/>\n", qname, xmlEscape(o.Value))
	case o.Datatype == owl.XMLLiteral:
		fmt.Fprintf(&w.body, "    <%s rdf:parseType=\"Literal\">%s</%s>\n", qname, o.Value, qname)
	case o.Lang != "":
		fmt.Fprintf(&w.body, "    <%s xml:lang=\"%s\">%s</%s>\n", qname, xmlEscape(o.Lang), xmlEscape(o.Value), qname)
	case o.Datatype != "":
		fmt.Fprintf(&w.body, "    <%s rdf:datatype=\"%s\">%s</%s>\n", qname, xmlEscape(o.Datatype), xmlEscape(o.Value), qname)
	default:
		fmt.Fprintf(&w.body, "    <%s>%s</%s>\n", qname, xmlEscape(o.Value), qname)
	}
	return nil
}

var ncName = regexp.MustCompile(`^[\pL_][\pL\pN_.\-]*$`)

// qname splits a predicate IRI into a declared prefix and an XML name,
// declaring a new prefix when none fits.
func (w *RDFXMLWriter) qname(iri string) (string, error) {
	if pn, ok := w.prefixes.compact(iri); ok {
		prefix, local, _ := strings.Cut(pn, ":")
		if ncName.MatchString(local) {
			return prefix + ":" + local, nil
		}
	}
	i := strings.LastIndexAny(iri, "/#:?=&") + 1
	for i < len(iri) && !ncName.MatchString(iri[i:]) {
		i++
	}
	if i == len(iri) || i == 0 {
		return "", fmt.Errorf("predicate %s cannot be written as an XML name", iri)
	}
	ns, local := iri[:i], iri[i:]
	for prefix, v := range w.prefixes {
		if v == ns {
			return prefix + ":" + local, nil
		}
	}
	w.extra++
	prefix := "ns" + strconv.Itoa(w.extra)
	w.prefixes[prefix] = ns
	return prefix + ":" + local, nil
}

// String returns the complete RDF/XML document.
func (w *RDFXMLWriter) String() string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<rdf:RDF")
	for _, prefix := range w.prefixes.sortedKeys() {
		fmt.Fprintf(&sb, "\n    xmlns:%s=\"%s\"", prefix, xmlEscape(w.prefixes[prefix]))
	}
	sb.WriteString(">\n")
	sb.WriteString(w.body.String())
	sb.WriteString("</rdf:RDF>\n")
	return sb.String()
}

func xmlEscape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string         `json:"@id"`
	Type       []string       `json:"@type,omitempty"`
	Properties map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// JSONLDWriter writes RDF in JSON-LD format.
type JSONLDWriter struct {
	prefixes prefixTable
	doc      JSONLDDocument
}

// NewJSONLDWriter creates a new JSON-LD writer whose context holds the given
// prefixes.
func NewJSONLDWriter(prefixes map[string]string) *JSONLDWriter {
	w := &JSONLDWriter{
		prefixes: make(prefixTable),
		doc: JSONLDDocument{
			Context: make(map[string]any),
			Graph:   make([]JSONLDNode, 0),
		},
	}
	for k, v := range prefixes {
		if k == "" {
			continue
		}
		w.prefixes[k] = v
		w.doc.Context[k] = v
	}
	return w
}

// WriteStatements adds one node per subject.
func (w *JSONLDWriter) WriteStatements(stmts []*rdf.Statement) {
	for _, g := range groupBySubject(stmts) {
		node := JSONLDNode{ID: w.id(g.subject), Properties: make(map[string]any)}
		for _, s := range g.stmts {
			if s.Predicate.Value == "<"+owl.Type+">" && !term.IsLiteral(s.Object) {
				node.Type = append(node.Type, w.id(s.Object))
				continue
			}
			key := w.id(s.Predicate)
			vals, _ := node.Properties[key].([]any)
			node.Properties[key] = append(vals, w.value(s.Object))
		}
		w.doc.Graph = append(w.doc.Graph, node)
	}
}

func (w *JSONLDWriter) id(t rdf.Term) string {
	if iri, ok := term.IRIOf(t); ok {
		if pn, ok := w.prefixes.compact(iri); ok {
			return pn
		}
		return iri
	}
	return t.Value
}

func (w *JSONLDWriter) value(t rdf.Term) any {
	p, err := term.Parse(t)
	if err != nil || p.Kind != rdf.Literal {
		return map[string]any{"@id": w.id(t)}
	}
	v := map[string]any{"@value": p.Value}
	switch {
	case p.Lang != "":
		v["@language"] = p.Lang
	case p.Datatype != "":
		v["@type"] = w.id(term.IRI(p.Datatype))
	}
	return v
}

// String returns the JSON-LD output.
func (w *JSONLDWriter) String() string {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data) + "\n"
}
