package synth

import (
	"testing"

	"github.com/pgschema/plrustgen/internal/rust"
)

func TestCompose(t *testing.T) {
	base := rust.Named("i64")
	tests := []struct {
		name string
		w    Wrapper
		want string
	}{
		{"empty", Compose(), "i64"},
		{"identity", Identity, "i64"},
		{"optional", Compose(Optional), "Option<i64>"},
		{"innermost first", Compose(Optional, SetOf), "::pgx::iter::SetOfIterator<'a, Option<i64>>"},
		{"fallible", Fallible, "::std::result::Result<i64, Box<dyn std::error::Error + Send + Sync + 'static>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w(base).String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrappedTypesReparse(t *testing.T) {
	for _, set := range []bool{false, true} {
		wrapped := returnWrapper(set)(rust.Ref(rust.LifetimeA, &rust.Slice{Elem: rust.Named("u8")}))
		parsed, err := rust.ParseType(wrapped.String())
		if err != nil {
			t.Fatalf("wrapped type %q does not parse: %v", wrapped, err)
		}
		if parsed.String() != wrapped.String() {
			t.Errorf("reparse mismatch: %q vs %q", parsed, wrapped)
		}
	}
}
