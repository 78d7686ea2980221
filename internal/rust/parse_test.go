package rust

import (
	"errors"
	"testing"
)

func TestParseTypeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"primitive", "i32", "i32"},
		{"unit", "( )", "()"},
		{"one tuple", "(i32,)", "(i32,)"},
		{"pair", "(i32,String)", "(i32, String)"},
		{"parenthesized", "(i32)", "i32"},
		{"borrowed str", "&'a str", "&'a str"},
		{"elided borrow", "& str", "&str"},
		{"mutable borrow", "&'a mut [u8]", "&'a mut [u8]"},
		{"byte slice", "&'a [ u8 ]", "&'a [u8]"},
		{"option", "Option<i32>", "Option<i32>"},
		{"global path", "::pgx::iter::SetOfIterator<'a,Option<String>>", "::pgx::iter::SetOfIterator<'a, Option<String>>"},
		{"nested closing brackets", "Vec<Option<Vec<u8>>>", "Vec<Option<Vec<u8>>>"},
		{
			"boxed error",
			"Box<dyn std::error::Error+Send+Sync+'static>",
			"Box<dyn std::error::Error + Send + Sync + 'static>",
		},
		{
			"impl trait",
			"::pgx::heap_tuple::PgHeapTuple<'_, impl ::pgx::WhoAllocated>",
			"::pgx::heap_tuple::PgHeapTuple<'_, impl ::pgx::WhoAllocated>",
		},
		{"raw identifier segment", "r#type::Foo", "r#type::Foo"},
		{"trailing comma in generics", "Result<i32, String,>", "Result<i32, String>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if err != nil {
				t.Fatalf("ParseType(%q) failed: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}

			again, err := ParseType(got.String())
			if err != nil {
				t.Fatalf("reparse of %q failed: %v", got.String(), err)
			}
			if again.String() != got.String() {
				t.Errorf("reparse changed %q into %q", got.String(), again.String())
			}
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	inputs := []string{
		"",
		"Option<",
		"Option<>",
		"Option<i32",
		"i32 i64",
		"std:Option",
		"&",
		"[u8",
		"(i32 i64)",
		"' a",
		"Vec<u8>>",
		"Option<$>",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseType(input)
			if err == nil {
				t.Fatalf("ParseType(%q) succeeded, want error", input)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("ParseType(%q) error = %v, want ErrSyntax", input, err)
			}
		})
	}
}

func TestMustParseTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseType did not panic on invalid input")
		}
	}()
	MustParseType("Option<")
}
