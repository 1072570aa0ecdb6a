package main

import (
	"strings"
	"testing"
)

func TestParseManifest(t *testing.T) {
	m, err := parseManifest([]byte(`{
  "defaults": {"dpi": 96, "options": {"em": "20"}},
  "formulas": [
    {"id": "a", "tex": "x", "dpi": 600, "options": {"scale": "2"}},
    {"tex": "y", "background": "white", "inline": true}
  ]
}`))
	if err != nil {
		t.Fatalf("parseManifest() error = %v", err)
	}
	jobs, err := m.jobs()
	if err != nil {
		t.Fatalf("jobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if jobs[0].ID != "a" || jobs[0].Render.DPI != 600 {
		t.Fatalf("job 0 = %+v", jobs[0])
	}
	opts := jobs[0].Render.Options
	if len(opts) != 2 || opts[0].Name != "em" || opts[1].Name != "scale" || opts[1].Value != "2" {
		t.Fatalf("job 0 options = %+v", opts)
	}
	if jobs[1].ID != "formula-002" || jobs[1].Render.DPI != 96 || jobs[1].Render.Background == nil {
		t.Fatalf("job 1 = %+v", jobs[1])
	}
	if jobs[1].Render.Options[0].Name != "display" || jobs[1].Render.Options[0].Value != "false" {
		t.Fatalf("inline not applied: %+v", jobs[1].Render.Options)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no formulas", "defaults: {}\n", "formulas"},
		{"empty list", "formulas: []\n", "formulas"},
		{"missing tex", "formulas:\n  - id: a\n", "tex"},
		{"unknown field", "formulas:\n  - tex: x\n    colour: red\n", "colour"},
		{"bad id", "formulas:\n  - id: ../x\n    tex: x\n", "id"},
		{"bad scale", "formulas:\n  - tex: x\n    scale: 0\n", "scale"},
		{"duplicate id", "formulas:\n  - {id: a, tex: x}\n  - {id: a, tex: y}\n", "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseManifest([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("parseManifest() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"scale=2", " family = 'serif' "}, true)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if len(opts) != 3 || opts[0].Name != "display" || opts[2].Name != "family" || opts[2].Value != "'serif'" {
		t.Fatalf("parseOptions() = %+v", opts)
	}
	if _, err := parseOptions([]string{"scale"}, false); err == nil {
		t.Fatalf("expected error for missing value")
	}
}
