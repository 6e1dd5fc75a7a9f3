package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/source"
	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_][\w.\-]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// RDFXMLParser parses RDF/XML documents, the serialization used by most
// .owl files.
type RDFXMLParser struct{}

// NewRDFXMLParser creates a new RDF/XML parser.
func NewRDFXMLParser() *RDFXMLParser {
	return &RDFXMLParser{}
}

// MimeType returns the primary MIME type for this parser.
func (p *RDFXMLParser) MimeType() string {
	return MimeRDFXML
}

// CanParse returns true for RDF/XML and generic XML MIME types.
func (p *RDFXMLParser) CanParse(mimeType string) bool {
	switch mimeType {
	case MimeRDFXML, "application/xml", "text/xml", "application/owl+xml":
		return true
	}
	return false
}

// Parse parses RDF/XML content into a document.
func (p *RDFXMLParser) Parse(location string, content []byte) (*source.Document, error) {
	root, prefixes, err := readXMLTree(content)
	if err != nil {
		return nil, formatError(location, err)
	}
	if root == nil {
		return nil, &source.FormatError{Location: location, MimeType: MimeRDFXML, Err: errors.New("no root element")}
	}

	b := &rdfxmlBuilder{doc: &source.Document{
		Location: location,
		MimeType: MimeRDFXML,
		Prefixes: prefixes,
	}}
	base := documentBase(location)
	if v, ok := root.attr(owl.XMLNS, "base"); ok {
		base = resolveIRI(base, v)
		b.doc.BaseIRI = base
	}

	if root.is(owl.RDF, "RDF") {
		lang, _ := root.attr(owl.XMLNS, "lang")
		for _, el := range root.elements() {
			if _, err := b.nodeElement(el, base, lang); err != nil {
				return nil, formatError(location, err)
			}
		}
	} else if _, err := b.nodeElement(root, base, ""); err != nil {
		return nil, formatError(location, err)
	}
	return b.doc, nil
}

// xmlElem is an element of the parsed XML tree. Content holds *xmlElem and
// string items in document order.
type xmlElem struct {
	name    xml.Name
	attrs   []xml.Attr
	content []any
	line    int
}

func (e *xmlElem) is(space, local string) bool {
	return e.name.Space == space && e.name.Local == local
}

func (e *xmlElem) attr(space, local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (e *xmlElem) elements() []*xmlElem {
	var els []*xmlElem
	for _, c := range e.content {
		if el, ok := c.(*xmlElem); ok {
			els = append(els, el)
		}
	}
	return els
}

func (e *xmlElem) text() string {
	var sb strings.Builder
	for _, c := range e.content {
		if s, ok := c.(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// lineError carries the input line an error was found on.
type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string { return e.err.Error() }
func (e *lineError) Unwrap() error { return e.err }

func formatError(location string, err error) error {
	fe := &source.FormatError{Location: location, MimeType: MimeRDFXML, Err: err}
	var le *lineError
	if errors.As(err, &le) {
		fe.Line = le.line
		fe.Err = le.err
	}
	return fe
}

// readXMLTree decodes content into an element tree. Entities declared in the
// DOCTYPE are expanded and namespace declarations are collected as prefixes.
func readXMLTree(content []byte) (*xmlElem, map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = make(map[string]string)

	prefixes := make(map[string]string)
	var root *xmlElem
	var stack []*xmlElem
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, nil, &lineError{line: line, err: err}
		}
		switch t := tok.(type) {
		case xml.Directive:
			for _, m := range entityDecl.FindAllSubmatch(t, -1) {
				value := string(m[2])
				if len(m[3]) > 0 {
					value = string(m[3])
				}
				dec.Entity[string(m[1])] = value
			}
		case xml.StartElement:
			line, _ := dec.InputPos()
			el := &xmlElem{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...), line: line}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					prefixes[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					prefixes[""] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, nil, &lineError{line: line, err: errors.New("multiple root elements")}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, string(t))
			}
		}
	}
	return root, prefixes, nil
}

type rdfxmlBuilder struct {
	doc    *source.Document
	blanks int
}

func (b *rdfxmlBuilder) nodeElement(el *xmlElem, base, lang string) (rdf.Term, error) {
	base, lang = scope(el, base, lang)

	var subj rdf.Term
	if v, ok := el.attr(owl.RDF, "about"); ok {
		subj = term.IRI(resolveIRI(base, v))
	} else if v, ok := el.attr(owl.RDF, "ID"); ok {
		subj = term.IRI(resolveIRI(base, "#"+v))
	} else if v, ok := el.attr(owl.RDF, "nodeID"); ok {
		subj = term.Blank(v)
	} else {
		subj = b.fresh()
	}

	if el.name.Space == "" {
		return rdf.Term{}, &lineError{line: el.line, err: fmt.Errorf("node element %q has no namespace", el.name.Local)}
	}
	if !el.is(owl.RDF, "Description") {
		b.emit(subj, term.IRI(owl.Type), term.IRI(el.name.Space+el.name.Local))
	}

	for _, a := range el.attrs {
		if skipAttr(a.Name) {
			continue
		}
		if a.Name.Space == owl.RDF {
			switch a.Name.Local {
			case "about", "ID", "nodeID":
				continue
			case "type":
				b.emit(subj, term.IRI(owl.Type), term.IRI(resolveIRI(base, a.Value)))
				continue
			}
		}
		b.emit(subj, term.IRI(a.Name.Space+a.Name.Local), term.LangLiteral(a.Value, lang))
	}

	li := 0
	for _, child := range el.elements() {
		if err := b.propertyElement(subj, child, base, lang, &li); err != nil {
			return rdf.Term{}, err
		}
	}
	return subj, nil
}

func (b *rdfxmlBuilder) propertyElement(subj rdf.Term, el *xmlElem, base, lang string, li *int) error {
	base, lang = scope(el, base, lang)
	if el.name.Space == "" {
		return &lineError{line: el.line, err: fmt.Errorf("property element %q has no namespace", el.name.Local)}
	}

	predIRI := el.name.Space + el.name.Local
	if el.is(owl.RDF, "li") {
		*li++
		predIRI = owl.RDF + "_" + strconv.Itoa(*li)
	}
	pred := term.IRI(predIRI)

	parseType, _ := el.attr(owl.RDF, "parseType")
	switch parseType {
	case "":
	case "Resource":
		obj := b.fresh()
		b.emit(subj, pred, obj)
		n := 0
		for _, child := range el.elements() {
			if err := b.propertyElement(obj, child, base, lang, &n); err != nil {
				return err
			}
		}
		return nil
	case "Collection":
		var items []rdf.Term
		for _, child := range el.elements() {
			item, err := b.nodeElement(child, base, lang)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		b.emit(subj, pred, b.list(items))
		return nil
	default:
		lit, err := innerXML(el)
		if err != nil {
			return &lineError{line: el.line, err: err}
		}
		b.emit(subj, pred, term.TypedLiteral(lit, owl.XMLLiteral))
		return nil
	}

	var obj rdf.Term
	children := el.elements()
	switch {
	case hasAttr(el, owl.RDF, "resource"):
		v, _ := el.attr(owl.RDF, "resource")
		obj = term.IRI(resolveIRI(base, v))
	case hasAttr(el, owl.RDF, "nodeID"):
		v, _ := el.attr(owl.RDF, "nodeID")
		obj = term.Blank(v)
	case len(children) == 1:
		var err error
		if obj, err = b.nodeElement(children[0], base, lang); err != nil {
			return err
		}
	case len(children) > 1:
		return &lineError{line: el.line, err: fmt.Errorf("property %s has %d node elements", predIRI, len(children))}
	case len(propertyAttrs(el)) > 0:
		obj = b.fresh()
	default:
		text := el.text()
		if dt, ok := el.attr(owl.RDF, "datatype"); ok {
			obj = term.TypedLiteral(text, resolveIRI(base, dt))
		} else {
			obj = term.LangLiteral(text, lang)
		}
	}
	b.emit(subj, pred, obj)

	for _, a := range propertyAttrs(el) {
		b.emit(obj, term.IRI(a.Name.Space+a.Name.Local), term.LangLiteral(a.Value, lang))
	}
	return nil
}

func (b *rdfxmlBuilder) list(items []rdf.Term) rdf.Term {
	head := term.IRI(owl.Nil)
	for i := len(items) - 1; i >= 0; i-- {
		cell := b.fresh()
		b.emit(cell, term.IRI(owl.First), items[i])
		b.emit(cell, term.IRI(owl.Rest), head)
		head = cell
	}
	return head
}

func (b *rdfxmlBuilder) fresh() rdf.Term {
	b.blanks++
	return term.Blank("node" + strconv.Itoa(b.blanks))
}

func (b *rdfxmlBuilder) emit(s, p, o rdf.Term) {
	b.doc.Statements = append(b.doc.Statements, term.Triple(s, p, o))
}

// scope applies the xml:base and xml:lang of el to the inherited values.
func scope(el *xmlElem, base, lang string) (string, string) {
	if v, ok := el.attr(owl.XMLNS, "base"); ok {
		base = resolveIRI(base, v)
	}
	if v, ok := el.attr(owl.XMLNS, "lang"); ok {
		lang = strings.ToLower(v)
	}
	return base, lang
}

func hasAttr(el *xmlElem, space, local string) bool {
	_, ok := el.attr(space, local)
	return ok
}

// propertyAttrs returns the attributes of a property element that denote
// further properties of its object.
func propertyAttrs(el *xmlElem) []xml.Attr {
	var attrs []xml.Attr
	for _, a := range el.attrs {
		if skipAttr(a.Name) || a.Name.Space == owl.RDF {
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func skipAttr(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns") || n.Space == owl.XMLNS || n.Space == ""
}

// innerXML serializes the content of el for rdf:parseType="Literal".
func innerXML(el *xmlElem) (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := encodeContent(enc, el.content); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encodeContent(enc *xml.Encoder, content []any) error {
	for _, c := range content {
		switch c := c.(type) {
		case string:
			if err := enc.EncodeToken(xml.CharData(c)); err != nil {
				return err
			}
		case *xmlElem:
			start := xml.StartElement{Name: c.name}
			for _, a := range c.attrs {
				if a.Name.Space != "xmlns" && a.Name.Local != "xmlns" {
					start.Attr = append(start.Attr, a)
				}
			}
			if err := enc.EncodeToken(start); err != nil {
				return err
			}
			if err := encodeContent(enc, c.content); err != nil {
				return err
			}
			if err := enc.EncodeToken(start.End()); err != nil {
				return err
			}
		}
	}
	return nil
}
