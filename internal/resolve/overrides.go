package resolve

import (
	"fmt"
	"sort"

	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/rust"
	"github.com/pgschema/plrustgen/internal/synth"
)

// TypeNamer maps SQL type names to OIDs. Builtin and Catalog implement it.
type TypeNamer interface {
	LookupTypeName(name string) (uint32, bool)
}

// TypeStructure exposes how a resolver decomposes arrays and domains.
// Builtin and Catalog implement it.
type TypeStructure interface {
	ElementOID(oid uint32) (uint32, bool)
	DomainBaseOID(oid uint32) (uint32, bool)
}

// Overrides replaces the mapping of selected types with user-supplied Rust
// types and delegates everything else. An override applies in both
// argument and return position. When the base resolver implements
// TypeStructure, an override also reaches arrays of the overridden type and
// domains over it: with int4 overridden as i64, int4[] resolves as
// ::pgx::Array<'a, i64>.
type Overrides struct {
	base      synth.TypeResolver
	structure TypeStructure
	types     map[uint32]rust.Type
}

// NewOverrides parses names, a map of SQL type name to Rust type text.
// Names the namer does not know are skipped; Rust text that does not parse
// is an error.
func NewOverrides(base synth.TypeResolver, names map[string]string, namer TypeNamer) (*Overrides, error) {
	o := &Overrides{base: base, types: make(map[uint32]rust.Type, len(names))}
	if structure, ok := base.(TypeStructure); ok {
		o.structure = structure
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		t, err := rust.ParseType(names[name])
		if err != nil {
			return nil, fmt.Errorf("type override for %q: %w", name, err)
		}
		oid, ok := namer.LookupTypeName(name)
		if !ok {
			logger.Get().Debug("Skipping override for unknown type", "type", name)
			continue
		}
		o.types[oid] = t
	}
	return o, nil
}

// Len returns the number of active overrides.
func (o *Overrides) Len() int {
	return len(o.types)
}

// ResolveType implements synth.TypeResolver.
func (o *Overrides) ResolveType(oid uint32, pos synth.Position) (rust.Type, error) {
	return o.resolve(oid, pos, 0)
}

func (o *Overrides) resolve(oid uint32, pos synth.Position, depth int) (rust.Type, error) {
	if t, ok := o.types[oid]; ok {
		return t, nil
	}
	if o.structure == nil || len(o.types) == 0 || depth >= maxDomainDepth {
		return o.base.ResolveType(oid, pos)
	}

	if base, ok := o.structure.DomainBaseOID(oid); ok {
		return o.resolve(base, pos, depth+1)
	}
	if elem, ok := o.structure.ElementOID(oid); ok {
		t, err := o.resolve(elem, pos, depth+1)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return ArrayOf(t, pos), nil
	}
	return o.base.ResolveType(oid, pos)
}
