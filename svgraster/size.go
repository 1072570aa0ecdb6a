package svgraster

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Pixel sizes of the font-relative units MathJax writes on its root element.
const (
	EmPixels = 16.0
	ExPixels = EmPixels / 2
)

var unitPixels = []struct {
	suffix string
	px     float64
}{
	{"px", 1},
	{"pt", 96.0 / 72},
	{"pc", 16},
	{"in", 96},
	{"cm", 96 / 2.54},
	{"mm", 96 / 25.4},
	{"em", EmPixels},
	{"ex", ExPixels},
}

// Size is a document's intrinsic size in CSS pixels.
type Size struct {
	Width  float64
	Height float64
}

type rootInfo struct {
	size  Size
	start int // byte offset of the root tag
	end   int
}

// IntrinsicSize returns the size declared by the document's root element.
// Width and height fall back to the viewBox when missing or relative.
func IntrinsicSize(doc string) (Size, error) {
	root, err := findRoot(doc)
	if err != nil {
		return Size{}, err
	}
	return root.size, nil
}

func findRoot(doc string) (rootInfo, error) {
	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return rootInfo{}, ErrNoSVGRoot
			}
			return rootInfo{}, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "svg" {
				return rootInfo{}, fmt.Errorf("%w: root is <%s>", ErrNoSVGRoot, name)
			}
			attrs := map[string]string{}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attrs[string(key)] = string(val)
			}
			size, err := rootSize(attrs)
			if err != nil {
				return rootInfo{}, err
			}
			return rootInfo{size: size, start: offset, end: offset + raw}, nil
		}
		offset += raw
	}
}

func rootSize(attrs map[string]string) (Size, error) {
	var vbW, vbH float64
	if vb := strings.Fields(strings.ReplaceAll(attrs["viewbox"], ",", " ")); len(vb) == 4 {
		vbW, _ = strconv.ParseFloat(vb[2], 64)
		vbH, _ = strconv.ParseFloat(vb[3], 64)
	}
	w, ok := parseLength(attrs["width"])
	if !ok {
		w = vbW
	}
	h, ok := parseLength(attrs["height"])
	if !ok {
		h = vbH
	}
	if w <= 0 || h <= 0 {
		return Size{}, ErrUnknownSize
	}
	return Size{Width: w, Height: h}, nil
}

func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}
	factor := 1.0
	for _, u := range unitPixels {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			s, factor = strings.TrimSpace(num), u.px
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * factor, true
}

var dimensionAttr = regexp.MustCompile(`(\s)(width|height)\s*=\s*("[^"]*"|'[^']*')`)

// normalizeRoot rewrites the root element's width and height as plain pixel
// numbers so the drawing library does not have to understand units.
func normalizeRoot(doc string, root rootInfo) string {
	tag := doc[root.start:root.end]
	tag = dimensionAttr.ReplaceAllStringFunc(tag, func(attr string) string {
		m := dimensionAttr.FindStringSubmatch(attr)
		v := root.size.Width
		if m[2] == "height" {
			v = root.size.Height
		}
		return m[1] + m[2] + `="` + strconv.FormatFloat(v, 'f', -1, 64) + `"`
	})
	return doc[:root.start] + tag + doc[root.end:]
}
