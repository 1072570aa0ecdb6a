package mathjax

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Option is a single conversion option. Value is literal script text
// (a number, a quoted string or an object literal) and is emitted verbatim.
type Option struct {
	Name  string
	Value string
}

// StringOption returns an option whose value is v as a quoted string literal.
func StringOption(name, v string) Option {
	b, _ := json.Marshal(v)
	return Option{Name: name, Value: string(b)}
}

// NumberOption returns an option whose value is the number v.
func NumberOption(name string, v float64) Option {
	return Option{Name: name, Value: strconv.FormatFloat(v, 'g', -1, 64)}
}

// BoolOption returns an option whose value is the boolean v.
func BoolOption(name string, v bool) Option {
	return Option{Name: name, Value: strconv.FormatBool(v)}
}

// Options enumerates the conversion options MathJax understands. Zero
// fields are left out so the engine-side defaults apply (display true,
// em 16, scale 1).
type Options struct {
	// Display selects display (block) style. Nil means true.
	Display *bool
	// Em is the em size in pixels.
	Em float64
	// Ex is the ex size in pixels.
	Ex float64
	// Scale multiplies the output size.
	Scale float64
	// ContainerWidth is the width in pixels used for line breaking.
	ContainerWidth float64
	// LineWidth is the line-breaking width, in pixels.
	LineWidth float64
	// Family is the font family for text-mode content.
	Family string
}

// Bool returns a pointer to v, for Options.Display.
func Bool(v bool) *bool { return &v }

// Pairs returns the non-zero options in a fixed order.
func (o Options) Pairs() []Option {
	var out []Option
	if o.Display != nil {
		out = append(out, BoolOption("display", *o.Display))
	}
	if o.Em > 0 {
		out = append(out, NumberOption("em", o.Em))
	}
	if o.Ex > 0 {
		out = append(out, NumberOption("ex", o.Ex))
	}
	if o.Scale > 0 {
		out = append(out, NumberOption("scale", o.Scale))
	}
	if o.ContainerWidth > 0 {
		out = append(out, NumberOption("containerWidth", o.ContainerWidth))
	}
	if o.LineWidth > 0 {
		out = append(out, NumberOption("lineWidth", o.LineWidth))
	}
	if o.Family != "" {
		out = append(out, StringOption("family", o.Family))
	}
	return out
}

var optionName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// EncodeOptions renders opts as an object literal: {name1:value1,name2:value2}.
// A repeated name keeps the position of its first occurrence and the value
// of its last.
func EncodeOptions(opts []Option) string {
	index := make(map[string]int, len(opts))
	merged := make([]Option, 0, len(opts))
	for _, o := range opts {
		if i, ok := index[o.Name]; ok {
			merged[i].Value = o.Value
			continue
		}
		index[o.Name] = len(merged)
		merged = append(merged, o)
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, o := range merged {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.Name)
		b.WriteByte(':')
		b.WriteString(o.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Request is a single formula conversion.
type Request struct {
	Formula string
	Options Options
	// Raw options are appended after Options, so a raw option overrides a
	// typed field of the same name.
	Raw []Option
}

// EncodedOptions validates option names and returns the object literal
// passed to the engine.
func (r Request) EncodedOptions() (string, error) {
	opts := append(r.Options.Pairs(), r.Raw...)
	for _, o := range opts {
		if !optionName.MatchString(o.Name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidOption, o.Name)
		}
		if strings.TrimSpace(o.Value) == "" {
			return "", fmt.Errorf("%w: %q has no value", ErrInvalidOption, o.Name)
		}
	}
	return EncodeOptions(opts), nil
}
