package synth

import (
	"github.com/pgschema/plrustgen/internal/rust"
)

// Wrapper turns a type expression into a wrapped one.
type Wrapper func(rust.Type) rust.Type

// Paths of the wrapper types. They are the names the user crate sees, so they
// are spelled exactly as the PL/Rust prelude expects.
const (
	OptionPath = "Option"
	SetOfPath  = "::pgx::iter::SetOfIterator"
	ResultPath = "::std::result::Result"
	BoxPath    = "Box"
	ErrorPath  = "std::error::Error"
)

// Final path segments of the wrappers, for inspecting synthesized types.
const (
	OptionIdent = OptionPath
	SetOfIdent  = "SetOfIterator"
	ResultIdent = "Result"
)

// DynError is the error channel of every function signature: a boxed,
// thread-safe trait object with no borrowed data.
var DynError rust.Type = rust.Named(BoxPath, rust.Dyn(
	rust.Named(ErrorPath),
	rust.Named("Send"),
	rust.Named("Sync"),
	rust.LifetimeStatic,
))

// Identity leaves t unchanged.
func Identity(t rust.Type) rust.Type { return t }

// Optional wraps t as `Option<t>`.
func Optional(t rust.Type) rust.Type {
	return rust.Named(OptionPath, t)
}

// SetOf wraps t as `::pgx::iter::SetOfIterator<'a, t>`. The lifetime ties the
// iterator to the invocation that produced it.
func SetOf(t rust.Type) rust.Type {
	return rust.Named(SetOfPath, rust.LifetimeA, t)
}

// Fallible wraps t as `::std::result::Result<t, DynError>`.
func Fallible(t rust.Type) rust.Type {
	return rust.Named(ResultPath, t, DynError)
}

// Compose applies wrappers left to right: the first wrapper is innermost.
func Compose(ws ...Wrapper) Wrapper {
	return func(t rust.Type) rust.Type {
		for _, w := range ws {
			t = w(t)
		}
		return t
	}
}

// argumentWrapper is applied to every argument's resolved type.
func argumentWrapper(isStrict bool) Wrapper {
	if isStrict {
		return Identity
	}
	return Optional
}

// returnWrapper is applied to the resolved return type. The result is
// nullable regardless of strictness; set-returning functions yield nullable
// elements from a nullable iterator.
func returnWrapper(returnsSet bool) Wrapper {
	if returnsSet {
		return Compose(Optional, SetOf, Optional, Fallible)
	}
	return Compose(Optional, Fallible)
}
