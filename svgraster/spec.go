package svgraster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	DefaultScale = 1.0
	DefaultDPI   = 300
	// MinScale is the smallest accepted Spec.Scale.
	MinScale = 0.01
	// VerticalPadding stretches the output height to leave room for glyph
	// overhang that typeset bounding boxes do not include.
	VerticalPadding = 1.05
	// MaxPixels caps the allocated buffer.
	MaxPixels = 1 << 26
)

// Spec controls rasterization. Scale changes the pixel size; DPI is only
// recorded as resolution metadata.
type Spec struct {
	Scale float64
	DPI   int
	// Background fills the buffer before painting. Nil is transparent.
	Background color.Color
	// Foreground replaces currentColor in the document. Nil is black.
	Foreground color.Color
}

// DefaultSpec returns scale 1, 300 dpi, transparent background.
func DefaultSpec() Spec {
	return Spec{Scale: DefaultScale, DPI: DefaultDPI}
}

func (s Spec) withDefaults() Spec {
	if s.Scale == 0 {
		s.Scale = DefaultScale
	}
	if s.DPI == 0 {
		s.DPI = DefaultDPI
	}
	return s
}

// Validate reports whether the spec can be rendered, after zero fields take
// their defaults.
func (s Spec) Validate() error {
	s = s.withDefaults()
	if s.Scale < MinScale {
		return fmt.Errorf("%w: scale %g below %g", ErrInvalidSpec, s.Scale, MinScale)
	}
	if s.DPI < 0 {
		return fmt.Errorf("%w: dpi %d", ErrInvalidSpec, s.DPI)
	}
	return nil
}

func (s Spec) background() color.Color {
	if s.Background == nil {
		return color.Transparent
	}
	return s.Background
}

func (s Spec) foreground() color.Color {
	if s.Foreground == nil {
		return color.Black
	}
	return s.Foreground
}

var namedColors = map[string]color.NRGBA{
	"transparent": {},
	"black":       {R: 0, G: 0, B: 0, A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, G: 0, B: 0, A: 255},
	"green":       {R: 0, G: 128, B: 0, A: 255},
	"blue":        {R: 0, G: 0, B: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and a few color names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", ErrInvalidSpec, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", ErrInvalidSpec, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", ErrInvalidSpec, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
