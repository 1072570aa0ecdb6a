package svgraster

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// Render rasterizes an SVG document. The output is
// round(width*scale) x round(height*scale*VerticalPadding) pixels, filled
// with spec.Background and tagged with spec.DPI. Parse and paint failures
// return a *RenderError and no buffer.
func Render(doc string, spec Spec) (*PixelBuffer, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, &RenderError{Op: "parse", Err: ErrEmptyDocument}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.withDefaults()

	doc = strings.ReplaceAll(doc, "currentColor", hexColor(spec.foreground()))
	root, err := findRoot(doc)
	if err != nil {
		return nil, &RenderError{Op: "parse", Err: err}
	}

	width := root.size.Width * spec.Scale
	height := root.size.Height * spec.Scale * VerticalPadding
	// Checked in float64 so huge dimensions cannot wrap an int product.
	if !(width >= 0.5 && height >= 0.5 && width*height <= MaxPixels) {
		return nil, &RenderError{Op: "size", Err: fmt.Errorf("unusable raster size %.0fx%.0f", width, height)}
	}
	pw, ph := int(math.Round(width)), int(math.Round(height))

	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(img, img.Bounds(), image.NewUniform(spec.background()), image.Point{}, draw.Src)

	if err := paint(img, normalizeRoot(doc, root), root.size); err != nil {
		return nil, err
	}
	return &PixelBuffer{Image: img, DPI: spec.DPI}, nil
}

func paint(img *image.NRGBA, doc string, size Size) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Op: "paint", Err: fmt.Errorf("%v", r)}
		}
	}()

	icon, err := oksvg.ReadIconStream(strings.NewReader(doc), oksvg.IgnoreErrorMode)
	if err != nil {
		return &RenderError{Op: "parse", Err: err}
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.X, icon.ViewBox.Y = 0, 0
		icon.ViewBox.W, icon.ViewBox.H = size.Width, size.Height
	}

	// Fit the viewBox centred without distortion (xMidYMid meet); the extra
	// height from VerticalPadding becomes equal margins above and below.
	// The viewBox origin is moved to zero before scaling, so MathJax's
	// negative y origin lands inside the buffer.
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	s := math.Min(float64(w)/icon.ViewBox.W, float64(h)/icon.ViewBox.H)
	offX := (float64(w) - icon.ViewBox.W*s) / 2
	offY := (float64(h) - icon.ViewBox.H*s) / 2
	icon.Transform = rasterx.Identity.Translate(offX, offY).Scale(s, s).Translate(-icon.ViewBox.X, -icon.ViewBox.Y)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return nil
}
