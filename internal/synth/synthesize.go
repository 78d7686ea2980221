package synth

import (
	"fmt"

	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/rust"
)

// Position tells a resolver where a type appears. Some types map to a
// borrowed Rust type as an argument and an owned one as a return value.
type Position int

const (
	ArgumentPosition Position = iota
	ReturnPosition
)

func (p Position) String() string {
	if p == ReturnPosition {
		return "return"
	}
	return "argument"
}

// TypeResolver maps a PostgreSQL type OID to its bare Rust type.
// Implementations must be safe for concurrent use.
type TypeResolver interface {
	ResolveType(oid uint32, pos Position) (rust.Type, error)
}

// Synthesizer builds signatures. It holds no mutable state and may be shared
// between goroutines.
type Synthesizer struct {
	resolver TypeResolver
}

// New creates a Synthesizer that resolves types through resolver.
func New(resolver TypeResolver) *Synthesizer {
	return &Synthesizer{resolver: resolver}
}

// Function synthesizes the signature of a scalar or set-returning function.
// It returns an *Error naming the failing slot if any parameter or the
// return type cannot be resolved or assembled; no partial signature is
// returned.
func (s *Synthesizer) Function(shape Shape) (*Function, error) {
	wrapArg := argumentWrapper(shape.IsStrict)
	arguments := make([]rust.FnArg, 0, len(shape.Params))
	seen := make(map[string]int, len(shape.Params))

	for i, param := range shape.Params {
		slot := Slot{Index: i, Name: param.Name}

		bare, err := s.resolver.ResolveType(param.TypeOID, ArgumentPosition)
		if err != nil {
			return nil, &Error{Kind: ResolutionError, Slot: slot, TypeOID: param.TypeOID, Err: err}
		}

		if param.Name == "" {
			return nil, &Error{Kind: SynthesisError, Slot: slot, TypeOID: param.TypeOID, Err: ErrUnnamedParameter}
		}
		name, err := rust.EscapeIdent(param.Name)
		if err != nil {
			return nil, &Error{Kind: SynthesisError, Slot: slot, TypeOID: param.TypeOID, Err: err}
		}
		if prev, ok := seen[name]; ok {
			return nil, &Error{
				Kind:    SynthesisError,
				Slot:    slot,
				TypeOID: param.TypeOID,
				Err:     fmt.Errorf("%w: %q already bound by parameter %d", ErrDuplicateName, name, prev),
			}
		}
		seen[name] = i

		arguments = append(arguments, rust.FnArg{Name: name, Type: wrapArg(bare)})
	}

	bare, err := s.resolver.ResolveType(shape.ReturnOID, ReturnPosition)
	if err != nil {
		return nil, &Error{Kind: ResolutionError, Slot: ReturnSlot, TypeOID: shape.ReturnOID, Err: err}
	}
	returnType := returnWrapper(shape.ReturnsSet)(bare)

	logger.Get().Debug("Synthesized function signature",
		"arguments", len(arguments),
		"return_oid", shape.ReturnOID,
		"returns_set", shape.ReturnsSet,
		"is_strict", shape.IsStrict,
		"return_type", returnType.String(),
	)

	return &Function{
		arguments:  arguments,
		returnType: returnType,
		returnOID:  shape.ReturnOID,
		returnsSet: shape.ReturnsSet,
		isStrict:   shape.IsStrict,
	}, nil
}

// Trigger returns the trigger signature. It never consults the resolver.
func (s *Synthesizer) Trigger() Trigger {
	logger.Get().Debug("Synthesized trigger signature")
	return Trigger{}
}
