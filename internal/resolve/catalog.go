package resolve

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/rust"
	"github.com/pgschema/plrustgen/internal/synth"
)

// pg_type.typtype values.
const (
	KindBase      = "b"
	KindComposite = "c"
	KindDomain    = "d"
	KindEnum      = "e"
	KindPseudo    = "p"
	KindRange     = "r"
	KindMulti     = "m"

	categoryArray = "A"

	// maxDomainDepth bounds domain-over-domain chains.
	maxDomainDepth = 16
	// maxLoadRounds bounds how many times LoadCatalog follows references.
	maxLoadRounds = 8
)

// TypeInfo is the subset of pg_type the catalog resolver needs.
type TypeInfo struct {
	OID      uint32
	Schema   string
	Name     string
	Kind     string // typtype
	Category string // typcategory
	BaseOID  uint32 // typbasetype, domains only
	ElemOID  uint32 // typelem, arrays only
}

// Catalog resolves user-defined types using pg_type rows read up front.
// Domains resolve as their base type, composite types as heap tuples and
// arrays as arrays of their element. Built-ins are delegated to a Builtin.
// Lookups never touch the database and are safe for concurrent use.
type Catalog struct {
	builtin *Builtin
	types   map[uint32]TypeInfo
	byName  map[string]uint32
}

// NewCatalog creates a catalog resolver from already loaded type rows.
func NewCatalog(builtin *Builtin, infos []TypeInfo) *Catalog {
	c := &Catalog{
		builtin: builtin,
		types:   make(map[uint32]TypeInfo, len(infos)),
		byName:  make(map[string]uint32, 2*len(infos)),
	}
	for _, info := range infos {
		c.types[info.OID] = info
		c.byName[info.Schema+"."+info.Name] = info.OID
		if _, taken := c.byName[info.Name]; !taken {
			c.byName[info.Name] = info.OID
		}
	}
	return c
}

const typeQuery = `
SELECT
    t.oid::int8,
    n.nspname,
    t.typname,
    t.typtype::text,
    t.typcategory::text,
    t.typbasetype::int8,
    t.typelem::int8
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE t.oid = ANY($1)`

// LoadCatalog reads pg_type rows for every OID the built-in resolver does not
// know, following domain base types and array elements until every
// referenced type is loaded.
func LoadCatalog(ctx context.Context, db *sql.DB, builtin *Builtin, oids []uint32) (*Catalog, error) {
	log := logger.Get()
	loaded := make(map[uint32]TypeInfo)
	pending := unknownOIDs(builtin, loaded, oids)

	for round := 0; len(pending) > 0; round++ {
		if round == maxLoadRounds {
			return nil, fmt.Errorf("type references did not settle after %d rounds", maxLoadRounds)
		}
		log.Debug("Loading catalog types", "round", round, "count", len(pending))

		infos, err := queryTypes(ctx, db, pending)
		if err != nil {
			return nil, err
		}

		var referenced []uint32
		for _, info := range infos {
			loaded[info.OID] = info
			if info.BaseOID != 0 {
				referenced = append(referenced, info.BaseOID)
			}
			if info.ElemOID != 0 {
				referenced = append(referenced, info.ElemOID)
			}
		}
		for _, oid := range pending {
			if _, ok := loaded[oid]; !ok {
				// Unknown to the server as well; resolution will report it.
				loaded[oid] = TypeInfo{OID: oid}
			}
		}
		pending = unknownOIDs(builtin, loaded, referenced)
	}

	infos := make([]TypeInfo, 0, len(loaded))
	for _, info := range loaded {
		if info.Kind != "" {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].OID < infos[j].OID })
	return NewCatalog(builtin, infos), nil
}

func unknownOIDs(builtin *Builtin, loaded map[uint32]TypeInfo, oids []uint32) []uint32 {
	seen := make(map[uint32]bool)
	var out []uint32
	for _, oid := range oids {
		if oid == 0 || seen[oid] || builtin.Known(oid) {
			continue
		}
		if _, ok := loaded[oid]; ok {
			continue
		}
		if _, ok := builtin.TypeName(oid); ok {
			continue
		}
		seen[oid] = true
		out = append(out, oid)
	}
	return out
}

func queryTypes(ctx context.Context, db *sql.DB, oids []uint32) ([]TypeInfo, error) {
	ids := make([]int64, len(oids))
	for i, oid := range oids {
		ids[i] = int64(oid)
	}

	rows, err := db.QueryContext(ctx, typeQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query pg_type: %w", err)
	}
	defer rows.Close()

	var infos []TypeInfo
	for rows.Next() {
		var (
			info                  TypeInfo
			oid, baseOID, elemOID int64
		)
		if err := rows.Scan(&oid, &info.Schema, &info.Name, &info.Kind, &info.Category, &baseOID, &elemOID); err != nil {
			return nil, fmt.Errorf("failed to scan pg_type row: %w", err)
		}
		info.OID = uint32(oid)
		info.BaseOID = uint32(baseOID)
		if info.Category == categoryArray {
			info.ElemOID = uint32(elemOID)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pg_type rows: %w", err)
	}
	return infos, nil
}

// ResolveType implements synth.TypeResolver.
func (c *Catalog) ResolveType(oid uint32, pos synth.Position) (rust.Type, error) {
	return c.resolve(oid, pos, 0)
}

func (c *Catalog) resolve(oid uint32, pos synth.Position, depth int) (rust.Type, error) {
	if c.builtin.Known(oid) {
		return c.builtin.ResolveType(oid, pos)
	}

	info, ok := c.types[oid]
	if !ok {
		return c.builtin.ResolveType(oid, pos)
	}

	switch {
	case info.Kind == KindDomain:
		if depth >= maxDomainDepth {
			return nil, fmt.Errorf("%w: domain %s.%s nests too deeply", ErrUnsupportedType, info.Schema, info.Name)
		}
		return c.resolve(info.BaseOID, pos, depth+1)
	case info.Kind == KindComposite:
		return HeapTuple(pos), nil
	case info.Category == categoryArray && info.ElemOID != 0:
		elem, err := c.resolve(info.ElemOID, pos, depth+1)
		if err != nil {
			return nil, fmt.Errorf("array element of %s.%s: %w", info.Schema, info.Name, err)
		}
		return ArrayOf(elem, pos), nil
	}
	return nil, fmt.Errorf("%w: %s.%s (oid %d, typtype %s)", ErrUnsupportedType, info.Schema, info.Name, oid, info.Kind)
}

// ElementOID returns the element type of a built-in or loaded array type.
func (c *Catalog) ElementOID(oid uint32) (uint32, bool) {
	if elem, ok := c.builtin.ElementOID(oid); ok {
		return elem, true
	}
	info, ok := c.types[oid]
	if !ok || info.Kind == KindDomain || info.Category != categoryArray || info.ElemOID == 0 {
		return 0, false
	}
	return info.ElemOID, true
}

// DomainBaseOID returns the base type of a loaded domain.
func (c *Catalog) DomainBaseOID(oid uint32) (uint32, bool) {
	info, ok := c.types[oid]
	if !ok || info.Kind != KindDomain {
		return 0, false
	}
	return info.BaseOID, true
}

// LookupTypeName resolves a built-in name or a loaded user type, written
// either schema-qualified or bare.
func (c *Catalog) LookupTypeName(name string) (uint32, bool) {
	if oid, ok := c.builtin.LookupTypeName(name); ok {
		return oid, true
	}
	oid, ok := c.byName[name]
	return oid, ok
}
