package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/c360studio/ontopy/source"
	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

const (
	pnChars   = `[\pL\pN_\-]`
	pnPrefix  = `[\pL](?:[\pL\pN_.\-]*[\pL\pN_\-])?`
	plx       = `%[0-9A-Fa-f]{2}|\\[\-_~.!$&'()*+,;=/?#@%]`
	pnLocal   = `(?:[\pL\pN_:]|` + plx + `)(?:(?:` + pnChars + `|[:.]|` + plx + `)*(?:` + pnChars + `|:|` + plx + `))?`
	iriChars  = `[^<>"{}|^\x60\\\x00-\x20]|\\u[0-9A-Fa-f]{4}|\\U[0-9A-Fa-f]{8}`
	echar     = `\\.`
	numberExp = `[eE][+-]?\d+`
)

var turtleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\r\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "IRIRef", Pattern: `<(?:` + iriChars + `)*>`},
	{Name: "LongString", Pattern: `"""(?:(?:"|"")?(?:[^"\\]|` + echar + `))*"""|'''(?:(?:'|'')?(?:[^'\\]|` + echar + `))*'''`},
	{Name: "String", Pattern: `"(?:[^"\\\r\n]|` + echar + `)*"|'(?:[^'\\\r\n]|` + echar + `)*'`},
	{Name: "AtPrefix", Pattern: `@prefix\b`},
	{Name: "AtBase", Pattern: `@base\b`},
	{Name: "LangTag", Pattern: `@[a-zA-Z]+(?:-[a-zA-Z0-9]+)*`},
	{Name: "DatatypeMark", Pattern: `\^\^`},
	{Name: "Number", Pattern: `[+-]?(?:\d+\.\d*` + numberExp + `|\.\d+` + numberExp + `|\d+` + numberExp + `|\d*\.\d+|\d+)`},
	{Name: "BlankLabel", Pattern: `_:[\pL\pN_](?:[\pL\pN_.\-]*[\pL\pN_\-])?`},
	{Name: "PName", Pattern: `(?:` + pnPrefix + `)?:(?:` + pnLocal + `)?`},
	{Name: "SparqlPrefix", Pattern: `(?i:PREFIX)\b`},
	{Name: "SparqlBase", Pattern: `(?i:BASE)\b`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.;,\[\]()]`},
})

var turtleGrammar = participle.MustBuild[turtleDoc](
	participle.Lexer(turtleLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

type turtleDoc struct {
	Statements []*turtleStatement `parser:"@@*"`
}

type turtleStatement struct {
	Pos lexer.Position

	Prefix  *prefixDirective `parser:"  @@"`
	Base    *baseDirective   `parser:"| @@"`
	Triples *triplesBlock    `parser:"| @@ '.'"`
}

type prefixDirective struct {
	Keyword string `parser:"@( AtPrefix | SparqlPrefix )"`
	Name    string `parser:"@PName"`
	IRI     string `parser:"@IRIRef"`
	Dot     bool   `parser:"@'.'?"`
}

type baseDirective struct {
	Keyword string `parser:"@( AtBase | SparqlBase )"`
	IRI     string `parser:"@IRIRef"`
	Dot     bool   `parser:"@'.'?"`
}

type triplesBlock struct {
	Pos lexer.Position

	Subject    *turtleSubject `parser:"@@"`
	Predicates *predicateList `parser:"@@?"`
}

type turtleSubject struct {
	IRI   *turtleIRI  `parser:"  @@"`
	Blank string      `parser:"| @BlankLabel"`
	Anon  *anonNode   `parser:"| @@"`
	List  *collection `parser:"| @@"`
}

type predicateList struct {
	Items []*predicateObjects `parser:"@@ ( ';' @@? )*"`
}

type predicateObjects struct {
	Verb    *turtleVerb   `parser:"@@"`
	Objects []*turtleTerm `parser:"@@ ( ',' @@ )*"`
}

type turtleVerb struct {
	A   bool       `parser:"  @'a'"`
	IRI *turtleIRI `parser:"| @@"`
}

type turtleIRI struct {
	Ref   string `parser:"  @IRIRef"`
	PName string `parser:"| @PName"`
}

type turtleTerm struct {
	IRI     *turtleIRI     `parser:"  @@"`
	Blank   string         `parser:"| @BlankLabel"`
	Anon    *anonNode      `parser:"| @@"`
	List    *collection    `parser:"| @@"`
	Literal *turtleLiteral `parser:"| @@"`
}

type anonNode struct {
	Predicates *predicateList `parser:"'[' @@? ']'"`
}

type collection struct {
	Items []*turtleTerm `parser:"'(' @@* ')'"`
}

type turtleLiteral struct {
	String  *turtleString `parser:"  @@"`
	Number  string        `parser:"| @Number"`
	Boolean string        `parser:"| @( 'true' | 'false' )"`
}

type turtleString struct {
	Lexical string         `parser:"@( LongString | String )"`
	Suffix  *literalSuffix `parser:"@@?"`
}

type literalSuffix struct {
	Lang     string     `parser:"  @LangTag"`
	Datatype *turtleIRI `parser:"| DatatypeMark @@"`
}

var integerPattern = regexp.MustCompile(`^[+-]?\d+$`)

// TurtleParser parses Turtle documents.
type TurtleParser struct{}

// NewTurtleParser creates a new Turtle parser.
func NewTurtleParser() *TurtleParser {
	return &TurtleParser{}
}

// MimeType returns the primary MIME type for this parser.
func (p *TurtleParser) MimeType() string {
	return MimeTurtle
}

// CanParse returns true for Turtle MIME types.
func (p *TurtleParser) CanParse(mimeType string) bool {
	return mimeType == MimeTurtle || mimeType == "application/x-turtle"
}

// Parse parses Turtle content into a document.
func (p *TurtleParser) Parse(location string, content []byte) (*source.Document, error) {
	ast, err := turtleGrammar.ParseBytes(location, content)
	if err != nil {
		fe := &source.FormatError{Location: location, MimeType: MimeTurtle, Err: err}
		var perr participle.Error
		if errors.As(err, &perr) {
			fe.Line = perr.Position().Line
			fe.Err = errors.New(perr.Message())
		}
		return nil, fe
	}

	b := &turtleBuilder{
		doc: &source.Document{
			Location: location,
			MimeType: MimeTurtle,
			Prefixes: make(map[string]string),
		},
		base: documentBase(location),
	}
	for _, st := range ast.Statements {
		if err := b.statement(st); err != nil {
			return nil, &source.FormatError{
				Location: location,
				MimeType: MimeTurtle,
				Line:     st.Pos.Line,
				Err:      err,
			}
		}
	}
	return b.doc, nil
}

// turtleBuilder turns the syntax tree into statements.
type turtleBuilder struct {
	doc    *source.Document
	base   string
	blanks int
}

func (b *turtleBuilder) statement(st *turtleStatement) error {
	switch {
	case st.Prefix != nil:
		iri, err := b.iriRef(st.Prefix.IRI)
		if err != nil {
			return err
		}
		b.doc.Prefixes[strings.TrimSuffix(st.Prefix.Name, ":")] = iri
		return nil
	case st.Base != nil:
		iri, err := b.iriRef(st.Base.IRI)
		if err != nil {
			return err
		}
		b.base = iri
		b.doc.BaseIRI = iri
		return nil
	case st.Triples != nil:
		return b.triples(st.Triples)
	}
	return nil
}

func (b *turtleBuilder) triples(tb *triplesBlock) error {
	subj, err := b.subject(tb.Subject)
	if err != nil {
		return err
	}
	if tb.Predicates == nil {
		if tb.Subject.Anon == nil {
			return fmt.Errorf("subject %s has no predicates", subj.Value)
		}
		return nil
	}
	return b.predicates(subj, tb.Predicates)
}

func (b *turtleBuilder) subject(s *turtleSubject) (rdf.Term, error) {
	switch {
	case s.IRI != nil:
		return b.iri(s.IRI)
	case s.Blank != "":
		return term.Blank(s.Blank[2:]), nil
	case s.Anon != nil:
		return b.anon(s.Anon)
	case s.List != nil:
		return b.collection(s.List)
	}
	return rdf.Term{}, errors.New("empty subject")
}

func (b *turtleBuilder) predicates(subj rdf.Term, pl *predicateList) error {
	for _, po := range pl.Items {
		var pred rdf.Term
		if po.Verb.A {
			pred = term.IRI(owl.Type)
		} else {
			var err error
			if pred, err = b.iri(po.Verb.IRI); err != nil {
				return err
			}
		}
		for _, o := range po.Objects {
			obj, err := b.object(o)
			if err != nil {
				return err
			}
			b.emit(subj, pred, obj)
		}
	}
	return nil
}

func (b *turtleBuilder) object(o *turtleTerm) (rdf.Term, error) {
	switch {
	case o.IRI != nil:
		return b.iri(o.IRI)
	case o.Blank != "":
		return term.Blank(o.Blank[2:]), nil
	case o.Anon != nil:
		return b.anon(o.Anon)
	case o.List != nil:
		return b.collection(o.List)
	case o.Literal != nil:
		return b.literal(o.Literal)
	}
	return rdf.Term{}, errors.New("empty object")
}

func (b *turtleBuilder) anon(a *anonNode) (rdf.Term, error) {
	node := b.fresh()
	if a.Predicates != nil {
		if err := b.predicates(node, a.Predicates); err != nil {
			return rdf.Term{}, err
		}
	}
	return node, nil
}

func (b *turtleBuilder) collection(c *collection) (rdf.Term, error) {
	if len(c.Items) == 0 {
		return term.IRI(owl.Nil), nil
	}
	head := b.fresh()
	cur := head
	for i, item := range c.Items {
		obj, err := b.object(item)
		if err != nil {
			return rdf.Term{}, err
		}
		b.emit(cur, term.IRI(owl.First), obj)
		next := term.IRI(owl.Nil)
		if i < len(c.Items)-1 {
			next = b.fresh()
		}
		b.emit(cur, term.IRI(owl.Rest), next)
		cur = next
	}
	return head, nil
}

func (b *turtleBuilder) literal(l *turtleLiteral) (rdf.Term, error) {
	switch {
	case l.String != nil:
		text, err := unquote(l.String.Lexical)
		if err != nil {
			return rdf.Term{}, err
		}
		if l.String.Suffix == nil {
			return term.Literal(text), nil
		}
		if l.String.Suffix.Lang != "" {
			return term.LangLiteral(text, strings.ToLower(l.String.Suffix.Lang[1:])), nil
		}
		dt, err := b.iri(l.String.Suffix.Datatype)
		if err != nil {
			return rdf.Term{}, err
		}
		dtIRI, _ := term.IRIOf(dt)
		return term.TypedLiteral(text, dtIRI), nil
	case l.Number != "":
		switch {
		case integerPattern.MatchString(l.Number):
			return term.TypedLiteral(l.Number, owl.Integer), nil
		case strings.ContainsAny(l.Number, "eE"):
			return term.TypedLiteral(l.Number, owl.Double), nil
		default:
			return term.TypedLiteral(l.Number, owl.Decimal), nil
		}
	case l.Boolean != "":
		return term.TypedLiteral(l.Boolean, owl.Boolean), nil
	}
	return rdf.Term{}, errors.New("empty literal")
}

func (b *turtleBuilder) iri(i *turtleIRI) (rdf.Term, error) {
	if i.Ref != "" {
		iri, err := b.iriRef(i.Ref)
		if err != nil {
			return rdf.Term{}, err
		}
		return term.IRI(iri), nil
	}
	prefix, local, _ := strings.Cut(i.PName, ":")
	ns, ok := b.doc.Prefixes[prefix]
	if !ok {
		return rdf.Term{}, fmt.Errorf("undefined prefix %q", prefix)
	}
	return term.IRI(ns + unescapeLocal(local)), nil
}

// iriRef strips the angle brackets of an IRIREF token, resolves escapes and
// resolves it against the current base.
func (b *turtleBuilder) iriRef(tok string) (string, error) {
	iri, err := term.Unescape(tok[1 : len(tok)-1])
	if err != nil {
		return "", err
	}
	return resolveIRI(b.base, iri), nil
}

func (b *turtleBuilder) fresh() rdf.Term {
	b.blanks++
	return term.Blank("anon" + strconv.Itoa(b.blanks))
}

func (b *turtleBuilder) emit(s, p, o rdf.Term) {
	b.doc.Statements = append(b.doc.Statements, term.Triple(s, p, o))
}

// unquote removes the quotes of a String or LongString token and resolves
// its escapes.
func unquote(tok string) (string, error) {
	n := 1
	if strings.HasPrefix(tok, `"""`) || strings.HasPrefix(tok, `'''`) {
		n = 3
	}
	return term.Unescape(tok[n : len(tok)-n])
}

// unescapeLocal drops the backslashes of reserved character escapes in a
// prefixed name's local part.
func unescapeLocal(local string) string {
	if !strings.Contains(local, `\`) {
		return local
	}
	var sb strings.Builder
	for i := 0; i < len(local); i++ {
		if local[i] == '\\' && i+1 < len(local) {
			i++
		}
		sb.WriteByte(local[i])
	}
	return sb.String()
}
