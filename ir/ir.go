package ir

import (
	"sort"
	"strings"
	"sync"
)

// IR holds the functions read from SQL files or a live database.
type IR struct {
	Metadata  Metadata    `json:"metadata"`
	Functions []*Function `json:"functions"`
	mu        sync.Mutex  // Protects concurrent appends to Functions
}

// Metadata describes where the functions came from
type Metadata struct {
	DatabaseVersion string `json:"database_version,omitempty"`
	Source          string `json:"source"` // file paths or "database"
	Language        string `json:"language"`
}

// Function represents a database function
type Function struct {
	Schema        string       `json:"schema"`
	Name          string       `json:"name"`
	OID           uint32       `json:"oid,omitempty"` // zero when parsed from SQL
	Language      string       `json:"language"`
	Definition    string       `json:"definition,omitempty"`
	Parameters    []*Parameter `json:"parameters,omitempty"`
	ReturnType    string       `json:"return_type"`
	ReturnTypeOID uint32       `json:"return_type_oid"`
	ReturnsSet    bool         `json:"returns_set,omitempty"`
	IsStrict      bool         `json:"is_strict,omitempty"` // STRICT or RETURNS NULL ON NULL INPUT
	IsTrigger     bool         `json:"is_trigger,omitempty"`
	Volatility    string       `json:"volatility,omitempty"` // IMMUTABLE, STABLE, VOLATILE
}

// QualifiedName returns schema.name
func (f *Function) QualifiedName() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

// GetArguments returns the argument type list, e.g. "integer, text".
func (f *Function) GetArguments() string {
	types := make([]string, len(f.Parameters))
	for i, param := range f.Parameters {
		types[i] = param.DataType
	}
	return strings.Join(types, ", ")
}

// Parameter represents a function parameter
type Parameter struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	TypeOID  uint32 `json:"type_oid"`
	Mode     string `json:"mode"`     // always IN once loaded
	Position int    `json:"position"` // 1-based
}

// NewIR creates an empty IR
func NewIR() *IR {
	return &IR{}
}

// AddFunction appends fn with thread safety
func (c *IR) AddFunction(fn *Function) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Functions = append(c.Functions, fn)
}

// Sort orders functions by schema, name and argument types so output is
// stable regardless of load order.
func (c *IR) Sort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.Functions, func(i, j int) bool {
		a, b := c.Functions[i], c.Functions[j]
		if a.Schema != b.Schema {
			return a.Schema < b.Schema
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.GetArguments() < b.GetArguments()
	})
}

// TypeOIDs returns every parameter and return type OID, without duplicates.
func (c *IR) TypeOIDs() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uint32]bool)
	var oids []uint32
	add := func(oid uint32) {
		if oid != 0 && !seen[oid] {
			seen[oid] = true
			oids = append(oids, oid)
		}
	}
	for _, fn := range c.Functions {
		for _, param := range fn.Parameters {
			add(param.TypeOID)
		}
		add(fn.ReturnTypeOID)
	}
	return oids
}
