package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pgschema/plrustgen/internal/emit"
	"github.com/pgschema/plrustgen/testutil"
)

const functionsSQL = `
CREATE FUNCTION add(a integer, b integer) RETURNS integer
    STRICT LANGUAGE plrust AS $$ Ok(Some(a + b)) $$;

CREATE FUNCTION words(s text) RETURNS SETOF text
    LANGUAGE plrust AS $$ todo!() $$;

CREATE FUNCTION audit() RETURNS trigger LANGUAGE plrust AS $$ Ok(trigger.new()) $$;
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// setup points the command at a config file and restores package state.
func setup(t *testing.T, configContent string) string {
	t.Helper()
	dir := t.TempDir()
	origFiles, origFormat, origOutput, origConfig := files, format, output, ConfigPath
	t.Cleanup(func() {
		files, format, output, ConfigPath = origFiles, origFormat, origOutput, origConfig
		SynthCmd.SetOut(nil)
		SynthCmd.SetErr(nil)
	})
	ConfigPath = writeFile(t, dir, "plrustgen.yaml", configContent)
	output = ""
	return dir
}

func TestSynthCommand(t *testing.T) {
	if SynthCmd.Use != "synth" {
		t.Errorf("Expected Use to be 'synth', got '%s'", SynthCmd.Use)
	}
	for _, name := range []string{"file", "no-color", "host", "port", "db", "user", "schema", "language", "format", "output", "concurrency"} {
		if SynthCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag to be defined", name)
		}
	}
}

func TestRunSynthFromFile(t *testing.T) {
	dir := setup(t, "schema: public\n")
	files = []string{writeFile(t, dir, "functions.sql", functionsSQL)}

	var buf, summary bytes.Buffer
	SynthCmd.SetOut(&buf)
	SynthCmd.SetErr(&summary)
	noColor = true
	t.Cleanup(func() { noColor = false })
	if err := runSynth(SynthCmd, nil); err != nil {
		t.Fatalf("runSynth() error: %v", err)
	}
	if want := "Synthesized: 2 functions, 1 trigger, 0 failed."; !strings.Contains(summary.String(), want) {
		t.Errorf("summary = %q, want %q", summary.String(), want)
	}

	got := buf.String()
	for _, want := range []string{
		"fn add<'a>(a: i32, b: i32) -> ::std::result::Result<Option<i32>,",
		"fn words<'a>(s: Option<&'a str>) -> ::std::result::Result<Option<::pgx::iter::SetOfIterator<'a, Option<String>>>,",
		"fn audit(trigger: &::pgx::PgTrigger) ->",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunSynthJSONWithOverrides(t *testing.T) {
	dir := setup(t, `
format: json
type_overrides:
  - type: integer
    rust: i64
`)
	files = []string{writeFile(t, dir, "functions.sql", functionsSQL)}
	output = filepath.Join(dir, "out.json")

	if err := runSynth(SynthCmd, nil); err != nil {
		t.Fatalf("runSynth() error: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	var docs []emit.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	if docs[0].Arguments[0].Type != "i64" {
		t.Errorf("override not applied: %+v", docs[0].Arguments)
	}
}

func TestRunSynthReportsFailures(t *testing.T) {
	dir := setup(t, "language: plrust\n")
	files = []string{writeFile(t, dir, "bad.sql", `
CREATE FUNCTION ok(x int) RETURNS int STRICT LANGUAGE plrust AS $$ $$;
CREATE FUNCTION bad(cstring) RETURNS int LANGUAGE plrust AS $$ $$;
`)}

	var buf bytes.Buffer
	SynthCmd.SetOut(&buf)
	err := runSynth(SynthCmd, nil)
	if err == nil {
		t.Fatal("expected error for unnamed unsupported parameter")
	}
	if !strings.Contains(err.Error(), "public.bad") {
		t.Errorf("error should name the function: %v", err)
	}
	if !strings.Contains(buf.String(), "fn ok<'a>(x: i32)") {
		t.Errorf("successful signatures should still be written:\n%s", buf.String())
	}
}

func TestRunSynthCountsFailures(t *testing.T) {
	dir := setup(t, "schema: public\n")
	files = []string{writeFile(t, dir, "mixed.sql", `
CREATE FUNCTION good(a integer) RETURNS integer STRICT LANGUAGE plrust AS $$ Ok(Some(a)) $$;
CREATE FUNCTION bad(a integer, b public.address) RETURNS integer LANGUAGE plrust AS $$ $$;
CREATE FUNCTION "self"(a integer) RETURNS integer STRICT LANGUAGE plrust AS $$ $$;
`)}

	var buf, summary bytes.Buffer
	SynthCmd.SetOut(&buf)
	SynthCmd.SetErr(&summary)
	noColor = true
	t.Cleanup(func() { noColor = false })

	err := runSynth(SynthCmd, nil)
	if err == nil {
		t.Fatal("expected error for failed functions")
	}
	for _, want := range []string{
		`public.bad: type resolution failed for parameter 1 ("b")`,
		`declared as "public.address"`,
		"public.self: function name",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}

	if !strings.Contains(buf.String(), "fn good<'a>(a: i32) -> ::std::result::Result<Option<i32>,") {
		t.Errorf("good function should still be written:\n%s", buf.String())
	}
	if want := "Synthesized: 1 function, 0 triggers, 2 failed."; !strings.Contains(summary.String(), want) {
		t.Errorf("summary = %q, want %q", summary.String(), want)
	}
}

func TestRunSynthRequiresConnection(t *testing.T) {
	setup(t, "schema: public\n")
	files = nil
	t.Setenv("PGDATABASE", "")
	t.Setenv("PGUSER", "")

	err := runSynth(SynthCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "database name is required") {
		t.Errorf("runSynth() error = %v, want missing database error", err)
	}
}

func TestRunSynthFromDatabase(t *testing.T) {
	ctx := context.Background()
	container := testutil.SetupPostgresContainer(ctx, t)
	container.ExecSQL(ctx, t, `
CREATE DOMAIN email AS text;
CREATE FUNCTION normalize(e email) RETURNS email STRICT LANGUAGE sql AS 'SELECT lower(e)';
`)

	setup(t, "language: sql\n")
	files = nil
	t.Setenv("PGHOST", container.Host)
	t.Setenv("PGPORT", strconv.Itoa(container.Port))
	t.Setenv("PGDATABASE", container.Database)
	t.Setenv("PGUSER", container.User)
	t.Setenv("PGPASSWORD", container.Password)

	var buf bytes.Buffer
	SynthCmd.SetOut(&buf)
	if err := runSynth(SynthCmd, nil); err != nil {
		t.Fatalf("runSynth() error: %v", err)
	}
	want := "fn normalize<'a>(e: &'a str) -> ::std::result::Result<Option<String>,"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %q:\n%s", want, buf.String())
	}
}
