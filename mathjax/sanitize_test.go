package mathjax

import (
	"errors"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x^2+1", "x^2+1"},
		{"  a + b \t", "a + b"},
		{`\frac{1}{2}`, `\\frac{1}{2}`},
		{"a\r\nb\nc", "a  b c"},
		{`\\`, `\\\\`},
		{`\text{"hi"}`, `\\text{\"hi\"}`},
	}
	for _, tt := range tests {
		got, err := Sanitize(tt.in)
		if err != nil {
			t.Fatalf("Sanitize(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeSinglePass(t *testing.T) {
	once, _ := Sanitize(`\alpha`)
	twice, _ := Sanitize(once)
	if once != `\\alpha` {
		t.Fatalf("one call should escape once, got %q", once)
	}
	if twice != `\\\\alpha` {
		t.Fatalf("each call applies exactly one pass, got %q", twice)
	}

	plain, _ := Sanitize(" x^2 + y_1 ")
	again, _ := Sanitize(plain)
	if plain != again {
		t.Fatalf("sanitizing clean text should be idempotent: %q vs %q", plain, again)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	for _, in := range []string{"", " ", "\n\r\t  "} {
		if _, err := Sanitize(in); !errors.Is(err, ErrEmptyFormula) {
			t.Fatalf("Sanitize(%q) error = %v, want ErrEmptyFormula", in, err)
		}
	}
}
