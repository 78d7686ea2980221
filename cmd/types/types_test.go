package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pgschema/plrustgen/internal/emit"
	"github.com/pgschema/plrustgen/internal/resolve"
)

func TestWriteMappingsText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeMappings(&buf, emit.FormatText, resolve.NewBuiltin().Mappings()); err != nil {
		t.Fatalf("writeMappings() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "TYPE") {
		t.Errorf("missing header: %q", lines[0])
	}
	var text, void string
	for _, line := range lines {
		fields := strings.Fields(line)
		switch fields[0] {
		case "text":
			text = line
		case "void":
			void = line
		}
	}
	if !strings.Contains(text, "&'a str") || !strings.Contains(text, "String") {
		t.Errorf("text row = %q", text)
	}
	if !strings.Contains(void, " - ") {
		t.Errorf("void row should mark the argument as unavailable: %q", void)
	}
}

func TestWriteMappingsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeMappings(&buf, emit.FormatJSON, resolve.NewBuiltin().Mappings()); err != nil {
		t.Fatalf("writeMappings() error: %v", err)
	}
	var rows []resolve.Mapping
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) == 0 {
		t.Error("expected mappings")
	}
}

func TestRunTypesRejectsFormat(t *testing.T) {
	format = "toml"
	defer func() { format = string(emit.FormatText) }()
	if err := runTypes(TypesCmd, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
