// Package resolve maps PostgreSQL type OIDs to Rust types for PL/Rust
// signatures.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgschema/plrustgen/internal/rust"
	"github.com/pgschema/plrustgen/internal/synth"
)

var (
	// ErrUnsupportedType is returned for types with no Rust mapping.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrPosition is returned for types that are only valid as a return type.
	ErrPosition = errors.New("type not allowed in this position")
)

// OIDs of types pgtype does not register.
const (
	CStringOID    uint32 = 2275
	AnyOID        uint32 = 2276
	AnyArrayOID   uint32 = 2277
	VoidOID       uint32 = 2278
	TriggerOID    uint32 = 2279
	AnyElementOID uint32 = 2283
)

// extraTypeNames names the mapped or pseudo types missing from pgtype.Map.
var extraTypeNames = map[string]uint32{
	"timetz":     pgtype.TimetzOID,
	"cstring":    CStringOID,
	"any":        AnyOID,
	"anyarray":   AnyArrayOID,
	"void":       VoidOID,
	"trigger":    TriggerOID,
	"anyelement": AnyElementOID,
}

// typeAliases maps SQL spellings to catalog type names.
var typeAliases = map[string]string{
	"integer":                     "int4",
	"int":                         "int4",
	"smallint":                    "int2",
	"bigint":                      "int8",
	"boolean":                     "bool",
	"real":                        "float4",
	"double precision":            "float8",
	"decimal":                     "numeric",
	"character varying":           "varchar",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"time without time zone":      "time",
	"time with time zone":         "timetz",
}

// mapping holds the Rust type text for each position. An empty argument
// means the type cannot be a parameter.
type mapping struct {
	argument string
	result   string
}

const (
	heapTupleByPostgres = "::pgx::heap_tuple::PgHeapTuple<'a, ::pgx::AllocatedByPostgres>"
	heapTupleByRust     = "::pgx::heap_tuple::PgHeapTuple<'a, ::pgx::AllocatedByRust>"
	arrayPath           = "::pgx::Array"
	vecPath             = "Vec"
)

var builtinMappings = map[uint32]mapping{
	pgtype.BoolOID:        {"bool", "bool"},
	pgtype.ByteaOID:       {"&'a [u8]", "Vec<u8>"},
	pgtype.QCharOID:       {"i8", "i8"},
	pgtype.Int2OID:        {"i16", "i16"},
	pgtype.Int4OID:        {"i32", "i32"},
	pgtype.Int8OID:        {"i64", "i64"},
	pgtype.Float4OID:      {"f32", "f32"},
	pgtype.Float8OID:      {"f64", "f64"},
	pgtype.TextOID:        {"&'a str", "String"},
	pgtype.VarcharOID:     {"&'a str", "String"},
	pgtype.JSONOID:        {"::pgx::Json", "::pgx::Json"},
	pgtype.JSONBOID:       {"::pgx::JsonB", "::pgx::JsonB"},
	pgtype.NumericOID:     {"::pgx::AnyNumeric", "::pgx::AnyNumeric"},
	pgtype.OIDOID:         {"::pgx::pg_sys::Oid", "::pgx::pg_sys::Oid"},
	pgtype.InetOID:        {"::pgx::Inet", "::pgx::Inet"},
	pgtype.TIDOID:         {"::pgx::pg_sys::ItemPointerData", "::pgx::pg_sys::ItemPointerData"},
	pgtype.PointOID:       {"::pgx::pg_sys::Point", "::pgx::pg_sys::Point"},
	pgtype.BoxOID:         {"::pgx::pg_sys::BOX", "::pgx::pg_sys::BOX"},
	pgtype.DateOID:        {"::pgx::Date", "::pgx::Date"},
	pgtype.TimeOID:        {"::pgx::Time", "::pgx::Time"},
	pgtype.TimetzOID:      {"::pgx::TimeWithTimeZone", "::pgx::TimeWithTimeZone"},
	pgtype.TimestampOID:   {"::pgx::Timestamp", "::pgx::Timestamp"},
	pgtype.TimestamptzOID: {"::pgx::TimestampWithTimeZone", "::pgx::TimestampWithTimeZone"},
	pgtype.IntervalOID:    {"::pgx::Interval", "::pgx::Interval"},
	pgtype.UUIDOID:        {"::pgx::Uuid", "::pgx::Uuid"},
	pgtype.Int4rangeOID:   {"::pgx::Range<i32>", "::pgx::Range<i32>"},
	pgtype.Int8rangeOID:   {"::pgx::Range<i64>", "::pgx::Range<i64>"},
	pgtype.NumrangeOID:    {"::pgx::Range<::pgx::AnyNumeric>", "::pgx::Range<::pgx::AnyNumeric>"},
	pgtype.DaterangeOID:   {"::pgx::Range<::pgx::Date>", "::pgx::Range<::pgx::Date>"},
	pgtype.TsrangeOID:     {"::pgx::Range<::pgx::Timestamp>", "::pgx::Range<::pgx::Timestamp>"},
	pgtype.TstzrangeOID:   {"::pgx::Range<::pgx::TimestampWithTimeZone>", "::pgx::Range<::pgx::TimestampWithTimeZone>"},
	pgtype.RecordOID:      {heapTupleByPostgres, heapTupleByRust},
	AnyElementOID:         {"::pgx::AnyElement", "::pgx::AnyElement"},
	AnyArrayOID:           {"::pgx::AnyArray", "::pgx::AnyArray"},
	VoidOID:               {"", "()"},
}

type parsedMapping struct {
	argument rust.Type
	result   rust.Type
}

var parsedMappings = parseMappings()

func parseMappings() map[uint32]parsedMapping {
	out := make(map[uint32]parsedMapping, len(builtinMappings))
	for oid, m := range builtinMappings {
		var pm parsedMapping
		if m.argument != "" {
			pm.argument = rust.MustParseType(m.argument)
		}
		pm.result = rust.MustParseType(m.result)
		out[oid] = pm
	}
	return out
}

// Builtin resolves the PostgreSQL built-in types PL/Rust supports, and
// arrays of them. It is read-only and safe for concurrent use.
type Builtin struct {
	types *pgtype.Map
}

// NewBuiltin creates a built-in resolver.
func NewBuiltin() *Builtin {
	return &Builtin{types: pgtype.NewMap()}
}

// ResolveType implements synth.TypeResolver.
func (b *Builtin) ResolveType(oid uint32, pos synth.Position) (rust.Type, error) {
	if elem, ok := b.ElementOID(oid); ok {
		elemType, err := b.resolveScalar(elem, pos)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return ArrayOf(elemType, pos), nil
	}
	return b.resolveScalar(oid, pos)
}

func (b *Builtin) resolveScalar(oid uint32, pos synth.Position) (rust.Type, error) {
	m, ok := parsedMappings[oid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, b.describe(oid))
	}
	if pos == synth.ReturnPosition {
		return m.result, nil
	}
	if m.argument == nil {
		return nil, fmt.Errorf("%w: %s cannot be an argument", ErrPosition, b.describe(oid))
	}
	return m.argument, nil
}

// Known reports whether oid is resolvable without catalog information.
func (b *Builtin) Known(oid uint32) bool {
	if elem, ok := b.ElementOID(oid); ok {
		oid = elem
	}
	_, ok := parsedMappings[oid]
	return ok
}

// ElementOID returns the element type of a built-in array type.
func (b *Builtin) ElementOID(oid uint32) (uint32, bool) {
	t, ok := b.types.TypeForOID(oid)
	if !ok {
		return 0, false
	}
	codec, ok := t.Codec.(*pgtype.ArrayCodec)
	if !ok || codec.ElementType == nil {
		return 0, false
	}
	return codec.ElementType.OID, true
}

// DomainBaseOID always reports false: no built-in type is a domain.
func (b *Builtin) DomainBaseOID(oid uint32) (uint32, bool) {
	return 0, false
}

// TypeName returns the catalog name of a built-in type.
func (b *Builtin) TypeName(oid uint32) (string, bool) {
	if t, ok := b.types.TypeForOID(oid); ok {
		return t.Name, true
	}
	for name, pseudo := range extraTypeNames {
		if pseudo == oid {
			return name, true
		}
	}
	return "", false
}

func (b *Builtin) describe(oid uint32) string {
	if name, ok := b.TypeName(oid); ok {
		return fmt.Sprintf("%s (oid %d)", name, oid)
	}
	return fmt.Sprintf("oid %d", oid)
}

// LookupTypeName maps an SQL type name to a built-in OID. It accepts catalog
// names (int4, _text), SQL spellings (integer, character varying), a
// pg_catalog qualifier, type modifiers and a trailing [] for arrays.
func (b *Builtin) LookupTypeName(name string) (uint32, bool) {
	name = NormalizeTypeName(name)

	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		elemOID, ok := b.LookupTypeName(elem)
		if !ok {
			return 0, false
		}
		elemName, ok := b.TypeName(elemOID)
		if !ok {
			return 0, false
		}
		t, ok := b.types.TypeForName("_" + elemName)
		if !ok {
			return 0, false
		}
		return t.OID, true
	}

	if oid, ok := extraTypeNames[name]; ok {
		return oid, true
	}
	if t, ok := b.types.TypeForName(name); ok {
		return t.OID, true
	}
	return 0, false
}

// NormalizeTypeName lowercases name, drops a pg_catalog qualifier and type
// modifiers, and rewrites SQL aliases to catalog names.
func NormalizeTypeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "pg_catalog.")

	array := false
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSpace(strings.TrimSuffix(name, "[]"))
		array = true
	}
	if open := strings.IndexByte(name, '('); open >= 0 {
		if end := strings.IndexByte(name[open:], ')'); end >= 0 {
			name = strings.TrimSpace(name[:open] + name[open+end+1:])
		}
	}
	name = strings.Join(strings.Fields(name), " ")
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}
	if array {
		name += "[]"
	}
	return name
}

// ArrayOf wraps an element type the way PL/Rust passes arrays: a borrowed
// array view as an argument, an owned vector of nullable elements as a
// result.
func ArrayOf(elem rust.Type, pos synth.Position) rust.Type {
	if pos == synth.ReturnPosition {
		return rust.Named(vecPath, rust.Named(synth.OptionPath, elem))
	}
	return rust.Named(arrayPath, rust.LifetimeA, elem)
}

// HeapTuple returns the composite row type for pos.
func HeapTuple(pos synth.Position) rust.Type {
	if pos == synth.ReturnPosition {
		return parsedMappings[pgtype.RecordOID].result
	}
	return parsedMappings[pgtype.RecordOID].argument
}

// Mapping is one row of the built-in mapping table.
type Mapping struct {
	OID      uint32 `json:"oid"`
	Name     string `json:"name"`
	Argument string `json:"argument,omitempty"`
	Return   string `json:"return"`
}

// Mappings lists the built-in scalar mappings ordered by type name.
func (b *Builtin) Mappings() []Mapping {
	out := make([]Mapping, 0, len(parsedMappings))
	for oid, m := range parsedMappings {
		name, _ := b.TypeName(oid)
		row := Mapping{OID: oid, Name: name, Return: m.result.String()}
		if m.argument != nil {
			row.Argument = m.argument.String()
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
