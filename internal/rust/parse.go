package rust

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrSyntax is returned by ParseType for malformed type text.
var ErrSyntax = errors.New("rust type syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLifetime
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// ParseType parses Rust type text such as `Option<&'a str>` or
// `Box<dyn std::error::Error + Send + Sync + 'static>`.
func ParseType(src string) (Type, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &typeParser{toks: toks}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %q after type", tok.text)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error. It is meant for
// package-level constants.
func MustParseType(src string) Type {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ':':
			if i+1 >= len(rs) || rs[i+1] != ':' {
				return nil, fmt.Errorf("%w: lone ':' at offset %d", ErrSyntax, i)
			}
			toks = append(toks, token{kind: tokPunct, text: pathSeparator, pos: i})
			i += 2
		case strings.ContainsRune("<>,&[]()+", r):
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		case r == '\'':
			start := i
			i++
			for i < len(rs) && isIdentRune(rs[i], i > start+1) {
				i++
			}
			if i == start+1 {
				return nil, fmt.Errorf("%w: empty lifetime at offset %d", ErrSyntax, start)
			}
			toks = append(toks, token{kind: tokLifetime, text: string(rs[start+1 : i]), pos: start})
		case isIdentRune(r, false):
			start := i
			if r == 'r' && i+2 < len(rs) && rs[i+1] == '#' {
				i += 2
			}
			for i < len(rs) && isIdentRune(rs[i], true) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrSyntax, r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

func isIdentRune(r rune, continuing bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return continuing && unicode.IsDigit(r)
}

type typeParser struct {
	toks []token
	pos  int
}

func (p *typeParser) peek() token { return p.toks[p.pos] }

func (p *typeParser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *typeParser) isPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == text
}

func (p *typeParser) expect(text string) error {
	tok := p.next()
	if tok.kind != tokPunct || tok.text != text {
		return p.errorf(tok, "expected %q, found %q", text, tok.text)
	}
	return nil
}

func (p *typeParser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), tok.pos)
}

func (p *typeParser) parseType() (Type, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokPunct && tok.text == referencePrefix:
		p.next()
		ref := &Reference{}
		if p.peek().kind == tokLifetime {
			ref.Lifetime = Lifetime(p.next().text)
		}
		if t := p.peek(); t.kind == tokIdent && t.text == "mut" {
			p.next()
			ref.Mutable = true
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ref.Elem = elem
		return ref, nil
	case tok.kind == tokPunct && tok.text == "[":
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return &Slice{Elem: elem}, nil
	case tok.kind == tokPunct && tok.text == "(":
		return p.parseTuple()
	case tok.kind == tokIdent && tok.text == "dyn":
		p.next()
		bounds, err := p.parseBounds()
		if err != nil {
			return nil, err
		}
		return &TraitObject{Bounds: bounds}, nil
	case tok.kind == tokIdent && tok.text == "impl":
		p.next()
		bounds, err := p.parseBounds()
		if err != nil {
			return nil, err
		}
		return &ImplTrait{Bounds: bounds}, nil
	case tok.kind == tokIdent, tok.kind == tokPunct && tok.text == pathSeparator:
		return p.parsePath()
	case tok.kind == tokEOF:
		return nil, p.errorf(tok, "unexpected end of input")
	}
	return nil, p.errorf(tok, "unexpected %q", tok.text)
}

func (p *typeParser) parseTuple() (Type, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var elems []Type
	trailingComma := false
	for !p.isPunct(")") {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		trailingComma = false
		if p.isPunct(",") {
			p.next()
			trailingComma = true
			continue
		}
		if !p.isPunct(")") {
			tok := p.peek()
			return nil, p.errorf(tok, "expected ',' or ')', found %q", tok.text)
		}
	}
	p.next()
	if len(elems) == 1 && !trailingComma {
		// Parenthesized type.
		return elems[0], nil
	}
	return &Tuple{Elems: elems}, nil
}

func (p *typeParser) parsePath() (*Path, error) {
	path := &Path{}
	if p.isPunct(pathSeparator) {
		p.next()
		path.Global = true
	}
	for {
		tok := p.next()
		if tok.kind != tokIdent {
			return nil, p.errorf(tok, "expected path segment, found %q", tok.text)
		}
		seg := PathSegment{Ident: tok.text}
		if p.isPunct("<") {
			p.next()
			args, err := p.parseGenericArgs()
			if err != nil {
				return nil, err
			}
			seg.Args = args
		}
		path.Segments = append(path.Segments, seg)
		if !p.isPunct(pathSeparator) {
			return path, nil
		}
		p.next()
	}
}

func (p *typeParser) parseGenericArgs() ([]GenericArg, error) {
	var args []GenericArg
	for {
		if p.isPunct(">") {
			p.next()
			if len(args) == 0 {
				return nil, p.errorf(p.toks[p.pos-1], "empty generic argument list")
			}
			return args, nil
		}
		if p.peek().kind == tokLifetime {
			args = append(args, Lifetime(p.next().text))
		} else {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		switch {
		case p.isPunct(","):
			p.next()
		case p.isPunct(">"):
		default:
			tok := p.peek()
			return nil, p.errorf(tok, "expected ',' or '>', found %q", tok.text)
		}
	}
}

func (p *typeParser) parseBounds() ([]Bound, error) {
	var bounds []Bound
	for {
		if p.peek().kind == tokLifetime {
			bounds = append(bounds, Lifetime(p.next().text))
		} else {
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, path)
		}
		if !p.isPunct("+") {
			return bounds, nil
		}
		p.next()
	}
}
