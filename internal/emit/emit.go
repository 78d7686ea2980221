// Package emit renders synthesized signatures as Rust source, JSON or YAML.
package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pgschema/plrustgen/internal/build"
	"github.com/pgschema/plrustgen/internal/rust"
	"github.com/pgschema/plrustgen/internal/synth"
	"sigs.k8s.io/yaml"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat and Write.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (want text, json or yaml)", ErrUnknownFormat, s)
}

// TriggerReturn is the return type of every trigger function.
var TriggerReturn = synth.Fallible(rust.MustParseType("::pgx::heap_tuple::PgHeapTuple<'_, impl ::pgx::WhoAllocated>"))

// TriggerArgument is the single argument of every trigger function.
var TriggerArgument = rust.FnArg{Name: "trigger", Type: rust.MustParseType("&::pgx::PgTrigger")}

// Signature renders sig as a Rust fn item header named name.
func Signature(name string, sig synth.Signature) (string, error) {
	ident, err := rust.EscapeIdent(name)
	if err != nil {
		return "", fmt.Errorf("function name: %w", err)
	}

	switch s := sig.(type) {
	case *synth.Function:
		args := s.Arguments()
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = arg.String()
		}
		return fmt.Sprintf("fn %s<'a>(%s) -> %s", ident, strings.Join(parts, ", "), s.ReturnType()), nil
	case synth.Trigger:
		return fmt.Sprintf("fn %s(%s) -> %s", ident, TriggerArgument, TriggerReturn), nil
	}
	return "", fmt.Errorf("unsupported signature type %T", sig)
}

// Argument is one rendered argument.
type Argument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Document is the serialized form of one result.
type Document struct {
	Schema     string     `json:"schema"`
	Name       string     `json:"name"`
	Kind       string     `json:"kind,omitempty"`
	Arguments  []Argument `json:"arguments,omitempty"`
	ReturnType string     `json:"return_type,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewDocument converts a build result. Failures are recorded in Error.
func NewDocument(r build.Result) Document {
	doc := Document{Schema: r.Function.Schema, Name: r.Function.Name}
	if r.Err != nil {
		doc.Error = r.Err.Error()
		return doc
	}

	text, err := Signature(r.Function.Name, r.Signature)
	if err != nil {
		doc.Error = err.Error()
		return doc
	}
	doc.Kind = r.Signature.Kind().String()
	doc.Signature = text

	switch s := r.Signature.(type) {
	case *synth.Function:
		for _, arg := range s.Arguments() {
			doc.Arguments = append(doc.Arguments, Argument{Name: arg.Name, Type: arg.Type.String()})
		}
		doc.ReturnType = s.ReturnType().String()
	case synth.Trigger:
		doc.Arguments = []Argument{{Name: TriggerArgument.Name, Type: TriggerArgument.Type.String()}}
		doc.ReturnType = TriggerReturn.String()
	}
	return doc
}

// Write renders results to w in format.
func Write(w io.Writer, format Format, results []build.Result) error {
	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = NewDocument(r)
	}

	switch format {
	case FormatText:
		return writeText(w, docs)
	case FormatJSON:
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case FormatYAML:
		data, err := yaml.Marshal(docs)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

func writeText(w io.Writer, docs []Document) error {
	for i, doc := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var err error
		if doc.Error != "" {
			_, err = fmt.Fprintf(w, "// %s.%s\n// error: %s\n", doc.Schema, doc.Name, doc.Error)
		} else {
			_, err = fmt.Fprintf(w, "// %s.%s\n%s\n", doc.Schema, doc.Name, doc.Signature)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
