// Package synth turns the declared shape of a PL/Rust function into the Rust
// signature the user crate is compiled against.
//
// A signature is either a Function, carrying typed arguments and a wrapped
// return type, or a Trigger, whose shape is fixed by the trigger calling
// convention and therefore carries nothing.
package synth

import (
	"github.com/pgschema/plrustgen/internal/rust"
)

// Kind identifies the signature variant.
type Kind int

const (
	KindFunction Kind = iota
	KindTrigger
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Signature is implemented by *Function and Trigger only.
type Signature interface {
	Kind() Kind
	signature()
}

// Param is one declared parameter: the type OID and the binding name as
// stored in the catalog.
type Param struct {
	TypeOID uint32
	Name    string
}

// Shape is the declared shape of a non-trigger function.
type Shape struct {
	Params     []Param
	ReturnOID  uint32
	ReturnsSet bool
	IsStrict   bool
}

// Function is the signature of a scalar or set-returning function. It is
// immutable once synthesized.
type Function struct {
	arguments  []rust.FnArg
	returnType rust.Type

	// Kept for diagnostics only.
	returnOID  uint32
	returnsSet bool
	isStrict   bool
}

func (*Function) Kind() Kind { return KindFunction }
func (*Function) signature() {}

// Arguments returns the typed arguments in declaration order.
func (f *Function) Arguments() []rust.FnArg {
	args := make([]rust.FnArg, len(f.arguments))
	copy(args, f.arguments)
	return args
}

// ReturnType returns the fully wrapped return type.
func (f *Function) ReturnType() rust.Type { return f.returnType }

// ReturnOID returns the declared return type OID.
func (f *Function) ReturnOID() uint32 { return f.returnOID }

// ReturnsSet reports whether the function was declared SETOF.
func (f *Function) ReturnsSet() bool { return f.returnsSet }

// IsStrict reports whether the function was declared STRICT.
func (f *Function) IsStrict() bool { return f.isStrict }

// Trigger is the signature of a trigger function.
type Trigger struct{}

func (Trigger) Kind() Kind { return KindTrigger }
func (Trigger) signature() {}
