package mathjax

import "testing"

func TestDetectError(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		found bool
	}{
		{"absent", `<svg width="1ex"><g data-mml-node="math"></g></svg>`, "", false},
		{"present", `<svg><g data-mml-node="merror" data-mjx-error="Missing close brace" title="x"></g></svg>`, "Missing close brace.", true},
		{"first marker wins", `<g data-mjx-error="First"></g><g data-mjx-error="Second"></g>`, "First.", true},
		{"entities decoded", `<g data-mjx-error="Undefined control sequence \&lt;"></g>`, `Undefined control sequence \<.`, true},
		{"unterminated", `<g data-mjx-error="Runaway argument`, "Runaway argument.", true},
		{"no quotes", `<g data-mjx-error>`, "Unknown typesetting error.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DetectError(tt.raw)
			if found != tt.found || got != tt.want {
				t.Fatalf("DetectError() = (%q, %v), want (%q, %v)", got, found, tt.want, tt.found)
			}
		})
	}
}
