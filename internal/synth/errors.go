package synth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnnamedParameter is returned when a parameter has no binding name.
	ErrUnnamedParameter = errors.New("parameter has no name")
	// ErrDuplicateName is returned when two parameters bind the same name.
	ErrDuplicateName = errors.New("duplicate parameter name")
)

// ErrorKind classifies synthesis failures.
type ErrorKind int

const (
	// ResolutionError means a type OID has no Rust mapping.
	ResolutionError ErrorKind = iota
	// SynthesisError means a declaration could not be assembled into valid
	// Rust syntax.
	SynthesisError
)

func (k ErrorKind) String() string {
	switch k {
	case ResolutionError:
		return "type resolution failed"
	case SynthesisError:
		return "signature synthesis failed"
	default:
		return "unknown error"
	}
}

// Slot identifies the declaration an error refers to.
type Slot struct {
	// Index is the zero-based parameter position; unused for the return slot.
	Index  int
	Name   string
	Return bool
}

// ReturnSlot is the slot of the return type.
var ReturnSlot = Slot{Index: -1, Return: true}

func (s Slot) String() string {
	if s.Return {
		return "return type"
	}
	if s.Name == "" {
		return fmt.Sprintf("parameter %d", s.Index)
	}
	return fmt.Sprintf("parameter %d (%q)", s.Index, s.Name)
}

// Error is a synthesis failure tied to one slot. Any Error aborts synthesis
// of the whole function.
type Error struct {
	Kind    ErrorKind
	Slot    Slot
	TypeOID uint32
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s for %s (type oid %d): %v", e.Kind, e.Slot, e.TypeOID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err is a ResolutionError.
func IsResolutionError(err error) bool {
	var synthErr *Error
	return errors.As(err, &synthErr) && synthErr.Kind == ResolutionError
}

// IsSynthesisError reports whether err is a SynthesisError.
func IsSynthesisError(err error) bool {
	var synthErr *Error
	return errors.As(err, &synthErr) && synthErr.Kind == SynthesisError
}
