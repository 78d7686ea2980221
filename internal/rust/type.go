// Package rust models the subset of Rust type syntax that appears in PL/Rust
// function signatures.
//
// Types are built as small trees and rendered with String. Rendering is
// canonical: a parsed type renders back to the same text regardless of the
// spacing in the input.
package rust

import (
	"strings"
)

// GenericArg is anything that can appear between angle brackets: a type or a
// lifetime.
type GenericArg interface {
	String() string
	genericArg()
}

// Bound is anything that can appear in a `dyn` or `impl` bound list: a trait
// path or a lifetime.
type Bound interface {
	String() string
	bound()
}

// Type is a Rust type expression.
type Type interface {
	GenericArg
	isType()
}

// Lifetime is a lifetime name without the leading quote, e.g. "a" or "static".
type Lifetime string

// Common lifetimes.
const (
	LifetimeA       Lifetime = "a"
	LifetimeStatic  Lifetime = "static"
	LifetimeElided  Lifetime = "_"
	lifetimePrefix           = "'"
	pathSeparator            = "::"
	referencePrefix          = "&"
)

func (l Lifetime) String() string { return lifetimePrefix + string(l) }
func (Lifetime) genericArg()      {}
func (Lifetime) bound()           {}

// PathSegment is one `::`-separated component of a path with its generic
// arguments.
type PathSegment struct {
	Ident string
	Args  []GenericArg
}

func (s PathSegment) String() string {
	if len(s.Args) == 0 {
		return s.Ident
	}
	return s.Ident + "<" + joinArgs(s.Args) + ">"
}

// Path is a (possibly global) type path such as `::std::result::Result<T, E>`.
type Path struct {
	Global   bool
	Segments []PathSegment
}

func (p *Path) String() string {
	var b strings.Builder
	if p.Global {
		b.WriteString(pathSeparator)
	}
	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteString(pathSeparator)
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// Last returns the final segment of the path.
func (p *Path) Last() PathSegment {
	if len(p.Segments) == 0 {
		return PathSegment{}
	}
	return p.Segments[len(p.Segments)-1]
}

func (*Path) genericArg() {}
func (*Path) bound()      {}
func (*Path) isType()     {}

// Reference is `&'lt mut T`.
type Reference struct {
	Lifetime Lifetime
	Mutable  bool
	Elem     Type
}

func (r *Reference) String() string {
	var b strings.Builder
	b.WriteString(referencePrefix)
	if r.Lifetime != "" {
		b.WriteString(r.Lifetime.String())
		b.WriteByte(' ')
	}
	if r.Mutable {
		b.WriteString("mut ")
	}
	b.WriteString(r.Elem.String())
	return b.String()
}

func (*Reference) genericArg() {}
func (*Reference) isType()     {}

// Slice is `[T]`.
type Slice struct {
	Elem Type
}

func (s *Slice) String() string { return "[" + s.Elem.String() + "]" }
func (*Slice) genericArg()      {}
func (*Slice) isType()          {}

// Tuple is `(A, B)`; the empty tuple is the unit type.
type Tuple struct {
	Elems []Type
}

func (t *Tuple) String() string {
	switch len(t.Elems) {
	case 0:
		return "()"
	case 1:
		return "(" + t.Elems[0].String() + ",)"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (*Tuple) genericArg() {}
func (*Tuple) isType()     {}

// TraitObject is `dyn A + B + 'static`.
type TraitObject struct {
	Bounds []Bound
}

func (t *TraitObject) String() string { return "dyn " + joinBounds(t.Bounds) }
func (*TraitObject) genericArg()      {}
func (*TraitObject) isType()          {}

// ImplTrait is `impl A + B`.
type ImplTrait struct {
	Bounds []Bound
}

func (t *ImplTrait) String() string { return "impl " + joinBounds(t.Bounds) }
func (*ImplTrait) genericArg()      {}
func (*ImplTrait) isType()          {}

// Unit is the `()` type.
var Unit Type = &Tuple{}

// Named builds a path type from a `::`-separated path string and attaches args
// to its last segment. Named("::std::option::Option", t) renders as
// `::std::option::Option<t>`.
func Named(path string, args ...GenericArg) *Path {
	p := &Path{}
	if strings.HasPrefix(path, pathSeparator) {
		p.Global = true
		path = strings.TrimPrefix(path, pathSeparator)
	}
	for _, ident := range strings.Split(path, pathSeparator) {
		p.Segments = append(p.Segments, PathSegment{Ident: ident})
	}
	if len(args) > 0 {
		p.Segments[len(p.Segments)-1].Args = args
	}
	return p
}

// Ref builds `&'lt T`. An empty lifetime is left elided.
func Ref(lt Lifetime, elem Type) *Reference {
	return &Reference{Lifetime: lt, Elem: elem}
}

// Dyn builds a trait object from bounds.
func Dyn(bounds ...Bound) *TraitObject {
	return &TraitObject{Bounds: bounds}
}

// FnArg is a typed function parameter, `name: Type`.
type FnArg struct {
	Name string
	Type Type
}

func (a FnArg) String() string {
	return a.Name + ": " + a.Type.String()
}

// Unwrap returns the first type argument of t when t is a path whose last
// segment is ident, e.g. Unwrap(`Option<i32>`, "Option") yields `i32`.
func Unwrap(t Type, ident string) (Type, bool) {
	p, ok := t.(*Path)
	if !ok {
		return nil, false
	}
	last := p.Last()
	if last.Ident != ident {
		return nil, false
	}
	for _, arg := range last.Args {
		if inner, ok := arg.(Type); ok {
			return inner, true
		}
	}
	return nil, false
}

// CountWrappers counts how many path segments named ident occur anywhere in t.
func CountWrappers(t GenericArg, ident string) int {
	n := 0
	switch v := t.(type) {
	case *Path:
		for _, seg := range v.Segments {
			if seg.Ident == ident {
				n++
			}
			for _, arg := range seg.Args {
				n += CountWrappers(arg, ident)
			}
		}
	case *Reference:
		n += CountWrappers(v.Elem, ident)
	case *Slice:
		n += CountWrappers(v.Elem, ident)
	case *Tuple:
		for _, e := range v.Elems {
			n += CountWrappers(e, ident)
		}
	case *TraitObject:
		for _, b := range v.Bounds {
			if p, ok := b.(*Path); ok {
				n += CountWrappers(p, ident)
			}
		}
	case *ImplTrait:
		for _, b := range v.Bounds {
			if p, ok := b.(*Path); ok {
				n += CountWrappers(p, ident)
			}
		}
	}
	return n
}

func joinArgs(args []GenericArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func joinBounds(bounds []Bound) string {
	parts := make([]string, len(bounds))
	for i, b := range bounds {
		parts[i] = b.String()
	}
	return strings.Join(parts, " + ")
}
