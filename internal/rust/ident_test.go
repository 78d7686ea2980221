package rust

import (
	"errors"
	"testing"
)

func TestEscapeIdent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "x", "x", nil},
		{"snake case", "order_id", "order_id", nil},
		{"leading underscore", "_unused", "_unused", nil},
		{"digits", "arg2", "arg2", nil},
		{"unicode letters", "größe", "größe", nil},
		{"keyword", "type", "r#type", nil},
		{"keyword match", "match", "r#match", nil},
		{"reserved keyword", "yield", "r#yield", nil},
		{"self", "self", "", ErrReservedIdent},
		{"Self", "Self", "", ErrReservedIdent},
		{"super", "super", "", ErrReservedIdent},
		{"crate", "crate", "", ErrReservedIdent},
		{"underscore", "_", "", ErrReservedIdent},
		{"empty", "", "", ErrInvalidIdent},
		{"leading digit", "1st", "", ErrInvalidIdent},
		{"space", "first name", "", ErrInvalidIdent},
		{"dash", "first-name", "", ErrInvalidIdent},
		{"dollar", "a$b", "", ErrInvalidIdent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EscapeIdent(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("EscapeIdent(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EscapeIdent(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("EscapeIdent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsKeyword(t *testing.T) {
	if !IsKeyword("fn") {
		t.Error("fn should be a keyword")
	}
	if IsKeyword("value") {
		t.Error("value should not be a keyword")
	}
}
