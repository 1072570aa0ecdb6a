package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"

	"github.com/wudi/mathtex"
	"github.com/wudi/mathtex/mathjax"
	"github.com/wudi/mathtex/svgraster"
)

// manifest lists the formulas of a batch. JSON manifests are read as YAML.
type manifest struct {
	Defaults manifestItem   `yaml:"defaults"`
	Formulas []manifestItem `yaml:"formulas"`
}

type manifestItem struct {
	ID         string            `yaml:"id"`
	Tex        string            `yaml:"tex"`
	Scale      float64           `yaml:"scale"`
	DPI        int               `yaml:"dpi"`
	Background string            `yaml:"background"`
	Foreground string            `yaml:"foreground"`
	Inline     *bool             `yaml:"inline"`
	Options    map[string]string `yaml:"options"`
}

var renderProperties = map[string]any{
	"scale":      map[string]any{"type": "number", "minimum": svgraster.MinScale},
	"dpi":        map[string]any{"type": "integer", "minimum": 1},
	"background": map[string]any{"type": "string"},
	"foreground": map[string]any{"type": "string"},
	"inline":     map[string]any{"type": "boolean"},
	"options": map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string", "minLength": 1},
	},
}

func withProperties(extra map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range renderProperties {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var manifestSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"formulas"},
	"properties": map[string]any{
		"defaults": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           withProperties(nil),
		},
		"formulas": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"tex"},
				"properties": withProperties(map[string]any{
					"id":  map[string]any{"type": "string", "pattern": `^[A-Za-z0-9._-]+$`},
					"tex": map[string]any{"type": "string"},
				}),
			},
		},
	},
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- manifest path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (*manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(manifestSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to validate manifest: %w", err)
	}
	if !result.Valid() {
		var errs strings.Builder
		for _, desc := range result.Errors() {
			fmt.Fprintf(&errs, "- %s\n", desc)
		}
		return nil, fmt.Errorf("manifest validation failed:\n%s", errs.String())
	}

	var m manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	seen := map[string]bool{}
	for i := range m.Formulas {
		if m.Formulas[i].ID == "" {
			m.Formulas[i].ID = fmt.Sprintf("formula-%03d", i+1)
		}
		if seen[m.Formulas[i].ID] {
			return nil, fmt.Errorf("manifest: duplicate id %q", m.Formulas[i].ID)
		}
		seen[m.Formulas[i].ID] = true
	}
	return &m, nil
}

// jobs merges each formula over the defaults.
func (m *manifest) jobs() ([]mathtex.Job, error) {
	jobs := make([]mathtex.Job, 0, len(m.Formulas))
	for _, item := range m.Formulas {
		merged := m.Defaults.merge(item)
		render, err := merged.renderOptions()
		if err != nil {
			return nil, fmt.Errorf("formula %s: %w", item.ID, err)
		}
		jobs = append(jobs, mathtex.Job{ID: item.ID, Formula: item.Tex, Render: render})
	}
	return jobs, nil
}

func (d manifestItem) merge(item manifestItem) manifestItem {
	out := item
	if out.Scale == 0 {
		out.Scale = d.Scale
	}
	if out.DPI == 0 {
		out.DPI = d.DPI
	}
	if out.Background == "" {
		out.Background = d.Background
	}
	if out.Foreground == "" {
		out.Foreground = d.Foreground
	}
	if out.Inline == nil {
		out.Inline = d.Inline
	}
	if len(d.Options) > 0 {
		opts := make(map[string]string, len(d.Options)+len(item.Options))
		for k, v := range d.Options {
			opts[k] = v
		}
		for k, v := range item.Options {
			opts[k] = v
		}
		out.Options = opts
	}
	return out
}

func (item manifestItem) renderOptions() (mathtex.RenderOptions, error) {
	render := mathtex.RenderOptions{Scale: item.Scale, DPI: item.DPI}
	if item.Background != "" {
		c, err := svgraster.ParseColor(item.Background)
		if err != nil {
			return render, err
		}
		render.Background = c
	}
	if item.Foreground != "" {
		c, err := svgraster.ParseColor(item.Foreground)
		if err != nil {
			return render, err
		}
		render.Foreground = c
	}
	if item.Inline != nil && *item.Inline {
		render.Options = append(render.Options, mathjax.BoolOption("display", false))
	}
	// Map order is random; sort so cache keys are stable.
	names := make([]string, 0, len(item.Options))
	for name := range item.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		render.Options = append(render.Options, mathjax.Option{Name: name, Value: item.Options[name]})
	}
	return render, nil
}
