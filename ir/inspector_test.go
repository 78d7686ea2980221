package ir

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgschema/plrustgen/internal/resolve"
	"github.com/pgschema/plrustgen/internal/synth"
	"github.com/pgschema/plrustgen/testutil"
)

// The container has no PL/Rust, so these tests inspect SQL-language functions.
func TestInspectorBuildIR(t *testing.T) {
	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)

	container.ExecSQL(ctx, t, `
CREATE SCHEMA app;
CREATE DOMAIN app.email AS text;
CREATE TYPE app.address AS (street text, zip int);

CREATE FUNCTION app.add(a integer, b integer) RETURNS integer
    IMMUTABLE STRICT LANGUAGE sql AS 'SELECT a + b';
CREATE FUNCTION app.words(s text) RETURNS SETOF text
    LANGUAGE sql AS 'SELECT unnest(string_to_array(s, '' ''))';
CREATE FUNCTION app.contact(e app.email, addr app.address) RETURNS app.address
    STABLE LANGUAGE sql AS 'SELECT addr';
CREATE FUNCTION app.split(s text, OUT head text, OUT tail text)
    LANGUAGE sql AS 'SELECT s, s';
CREATE FUNCTION app.other(x int) RETURNS int
    LANGUAGE plpgsql AS 'BEGIN RETURN x; END';
`)

	ir, err := NewInspector(container.Conn).BuildIR(ctx, "app", "sql")
	if err != nil {
		t.Fatalf("BuildIR() error: %v", err)
	}

	if !strings.HasPrefix(ir.Metadata.DatabaseVersion, "PostgreSQL ") {
		t.Errorf("DatabaseVersion = %q", ir.Metadata.DatabaseVersion)
	}

	var names []string
	for _, fn := range ir.Functions {
		names = append(names, fn.Name)
	}
	if diff := cmp.Diff([]string{"add", "contact", "words"}, names); diff != "" {
		t.Fatalf("function names mismatch (-want +got):\n%s", diff)
	}

	add := ir.Functions[0]
	if !add.IsStrict || add.ReturnsSet || add.Volatility != "IMMUTABLE" || add.OID == 0 {
		t.Errorf("add = %+v", add)
	}
	if add.ReturnTypeOID != pgtype.Int4OID || len(add.Parameters) != 2 || add.Parameters[1].Name != "b" {
		t.Errorf("add shape = %+v", add)
	}

	words := ir.Functions[2]
	if !words.ReturnsSet || words.IsStrict || words.ReturnTypeOID != pgtype.TextOID {
		t.Errorf("words = %+v", words)
	}

	catalog, err := resolve.LoadCatalog(ctx, container.Conn, resolve.NewBuiltin(), ir.TypeOIDs())
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}

	contact := ir.Functions[1]
	if contact.Parameters[0].DataType != "app.email" {
		t.Errorf("DataType = %q, want app.email", contact.Parameters[0].DataType)
	}
	emailType, err := catalog.ResolveType(contact.Parameters[0].TypeOID, synth.ArgumentPosition)
	if err != nil {
		t.Fatalf("ResolveType(email) error: %v", err)
	}
	if got := emailType.String(); got != "&'a str" {
		t.Errorf("email resolves to %q, want &'a str", got)
	}
	if _, err := catalog.ResolveType(contact.ReturnTypeOID, synth.ReturnPosition); err != nil {
		t.Errorf("ResolveType(address) error: %v", err)
	}
}

func TestInspectorMissingSchema(t *testing.T) {
	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)

	if _, err := NewInspector(container.Conn).BuildIR(ctx, "nope", "sql"); err == nil {
		t.Error("expected error for missing schema")
	}
}
