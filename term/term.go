// Package term builds and decomposes RDF terms in their N-Triples textual
// form, the representation used by gonum's rdf package.
package term

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/vocabulary/owl"
)

// ErrInvalidTerm is returned when a term value is not valid N-Triples text.
var ErrInvalidTerm = errors.New("invalid term")

// Parts is the decomposed form of a term.
type Parts struct {
	Kind rdf.Kind

	// Value is the IRI, the blank node label without "_:", or the unescaped
	// lexical form of a literal.
	Value string

	// Lang is the language tag of a literal, without "@".
	Lang string

	// Datatype is the datatype IRI of a typed literal.
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) rdf.Term {
	return rdf.Term{Value: "<" + escapeIRI(iri) + ">"}
}

// Blank returns a blank node term with the given label.
func Blank(label string) rdf.Term {
	return rdf.Term{Value: "_:" + label}
}

// Literal returns a plain string literal.
func Literal(text string) rdf.Term {
	return rdf.Term{Value: `"` + Escape(text) + `"`}
}

// LangLiteral returns a language tagged literal. An empty language gives a
// plain literal.
func LangLiteral(text, lang string) rdf.Term {
	if lang == "" {
		return Literal(text)
	}
	return rdf.Term{Value: `"` + Escape(text) + `"@` + lang}
}

// TypedLiteral returns a literal with a datatype. xsd:string literals are
// written without the datatype since both forms denote the same value.
func TypedLiteral(text, datatype string) rdf.Term {
	if datatype == "" || datatype == owl.String {
		return Literal(text)
	}
	return rdf.Term{Value: `"` + Escape(text) + `"^^<` + escapeIRI(datatype) + ">"}
}

// FromParts rebuilds a term from its parts.
func FromParts(p Parts) (rdf.Term, error) {
	switch p.Kind {
	case rdf.IRI:
		return IRI(p.Value), nil
	case rdf.Blank:
		return Blank(p.Value), nil
	case rdf.Literal:
		if p.Lang != "" {
			return LangLiteral(p.Value, p.Lang), nil
		}
		return TypedLiteral(p.Value, p.Datatype), nil
	default:
		return rdf.Term{}, fmt.Errorf("%w: kind %v", ErrInvalidTerm, p.Kind)
	}
}

// Parse decomposes a term.
func Parse(t rdf.Term) (Parts, error) {
	v := t.Value
	switch {
	case strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">"):
		return Parts{Kind: rdf.IRI, Value: v[1 : len(v)-1]}, nil
	case strings.HasPrefix(v, "_:"):
		if len(v) == 2 {
			return Parts{}, fmt.Errorf("%w: empty blank node label", ErrInvalidTerm)
		}
		return Parts{Kind: rdf.Blank, Value: v[2:]}, nil
	case strings.HasPrefix(v, `"`):
		return parseLiteral(v)
	default:
		return Parts{}, fmt.Errorf("%w: %q", ErrInvalidTerm, v)
	}
}

func parseLiteral(v string) (Parts, error) {
	end := -1
	for i := 1; i < len(v); i++ {
		if v[i] == '\\' {
			i++
			continue
		}
		if v[i] == '"' {
			end = i
			break
		}
	}
	if end < 0 {
		return Parts{}, fmt.Errorf("%w: unterminated literal %q", ErrInvalidTerm, v)
	}
	text, err := Unescape(v[1:end])
	if err != nil {
		return Parts{}, err
	}
	p := Parts{Kind: rdf.Literal, Value: text}
	rest := v[end+1:]
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "@"):
		p.Lang = rest[1:]
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		p.Datatype = rest[3 : len(rest)-1]
		if p.Datatype == owl.String {
			p.Datatype = ""
		}
	default:
		return Parts{}, fmt.Errorf("%w: bad literal suffix %q", ErrInvalidTerm, rest)
	}
	return p, nil
}

// IRIOf returns the IRI of an IRI term.
func IRIOf(t rdf.Term) (string, bool) {
	v := t.Value
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return v[1 : len(v)-1], true
	}
	return "", false
}

// IsBlank reports whether t is a blank node.
func IsBlank(t rdf.Term) bool { return strings.HasPrefix(t.Value, "_:") }

// IsLiteral reports whether t is a literal.
func IsLiteral(t rdf.Term) bool { return strings.HasPrefix(t.Value, `"`) }

// LiteralText returns the lexical form and language of a literal term.
func LiteralText(t rdf.Term) (text, lang string, ok bool) {
	if !IsLiteral(t) {
		return "", "", false
	}
	p, err := Parse(t)
	if err != nil {
		return "", "", false
	}
	return p.Value, p.Lang, true
}

// Triple returns a statement holding copies of the terms with their UIDs
// cleared, ready to be added to any graph.
func Triple(s, p, o rdf.Term) *rdf.Statement {
	return &rdf.Statement{
		Subject:   rdf.Term{Value: s.Value},
		Predicate: rdf.Term{Value: p.Value},
		Object:    rdf.Term{Value: o.Value},
	}
}

// Clone returns a copy of s with UIDs cleared.
func Clone(s *rdf.Statement) *rdf.Statement {
	return Triple(s.Subject, s.Predicate, s.Object)
}

// Line returns the N-Triples line of s, without a trailing newline.
func Line(s *rdf.Statement) string {
	return s.Subject.Value + " " + s.Predicate.Value + " " + s.Object.Value + " ."
}

// Sort orders statements by their N-Triples line.
func Sort(stmts []*rdf.Statement) {
	sort.Slice(stmts, func(i, j int) bool {
		return Line(stmts[i]) < Line(stmts[j])
	})
}

// Escape escapes text for use inside a double quoted literal.
func Escape(text string) string {
	if !strings.ContainsAny(text, "\\\"\n\r\t") {
		return text
	}
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Unescape resolves string escapes (ECHAR and UCHAR) in s.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrInvalidTerm)
		}
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'f':
			sb.WriteByte('\f')
		case '"', '\'', '\\':
			sb.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+n >= len(s) {
				return "", fmt.Errorf("%w: short unicode escape", ErrInvalidTerm)
			}
			code, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: bad unicode escape: %v", ErrInvalidTerm, err)
			}
			r := rune(code)
			if !utf8.ValidRune(r) {
				return "", fmt.Errorf("%w: invalid code point %U", ErrInvalidTerm, r)
			}
			sb.WriteRune(r)
			i += n
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c", ErrInvalidTerm, s[i])
		}
	}
	return sb.String(), nil
}

// escapeIRI percent-encodes the characters N-Triples forbids inside IRIs.
func escapeIRI(iri string) string {
	if !strings.ContainsAny(iri, " <>\"{}|^`\\") {
		return iri
	}
	var sb strings.Builder
	for i := 0; i < len(iri); i++ {
		c := iri[i]
		switch c {
		case ' ', '<', '>', '"', '{', '}', '|', '^', '`', '\\':
			fmt.Fprintf(&sb, "%%%02X", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Normalize rewrites t into the canonical spelling produced by this package:
// escapes are minimal and xsd:string datatypes are dropped. Invalid terms are
// returned unchanged.
func Normalize(t rdf.Term) rdf.Term {
	p, err := Parse(t)
	if err != nil {
		return rdf.Term{Value: t.Value}
	}
	n, err := FromParts(p)
	if err != nil {
		return rdf.Term{Value: t.Value}
	}
	return n
}
