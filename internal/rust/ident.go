package rust

import (
	"errors"
	"fmt"
	"unicode"
)

var (
	// ErrInvalidIdent is returned for names that are not Rust identifiers.
	ErrInvalidIdent = errors.New("invalid identifier")
	// ErrReservedIdent is returned for keywords that cannot be raw-escaped.
	ErrReservedIdent = errors.New("reserved identifier")
)

const rawPrefix = "r#"

// keywords are the strict and reserved keywords of the 2021 edition plus
// those reserved for later editions. Any of them can be used as a raw
// identifier except the ones listed in unescapable.
var keywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true,
	"mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "Self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true,
	"abstract": true, "become": true, "box": true, "do": true, "final": true,
	"gen": true, "macro": true, "override": true, "priv": true, "try": true,
	"typeof": true, "unsized": true, "virtual": true, "yield": true,
}

var unescapable = map[string]bool{
	"crate": true, "self": true, "Self": true, "super": true, "_": true,
}

// IsKeyword reports whether name is a Rust keyword.
func IsKeyword(name string) bool {
	return keywords[name]
}

// ValidIdent reports whether name has identifier syntax, ignoring keywords.
func ValidIdent(name string) bool {
	if name == "" || name == "_" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
		default:
			return false
		}
	}
	return true
}

// EscapeIdent returns name as it must be written in Rust source: unchanged
// for ordinary identifiers and raw-escaped (`r#type`) for keywords.
func EscapeIdent(name string) (string, error) {
	if unescapable[name] {
		return "", fmt.Errorf("%w: %q", ErrReservedIdent, name)
	}
	if !ValidIdent(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdent, name)
	}
	if keywords[name] {
		return rawPrefix + name, nil
	}
	return name, nil
}
