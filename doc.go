// Package mathtex converts LaTeX formulas to SVG with an embedded MathJax
// engine and rasterizes the SVG to PNG, TIFF or BMP.
//
// A Converter owns one engine session. Engine calls are serialized; the
// rasterization stage shares nothing and runs concurrently, which
// RenderBatch uses to spread work over a worker pool.
//
//	conv, err := mathtex.NewConverter(*config.Default(), mathtex.WithScriptSource(mathjax.FileScripts{
//		BundlePath:  "tex-svg-full.js",
//		DOMShimPath: "liteDOM.js",
//	}))
//	if err != nil {
//		return err
//	}
//	defer conv.Close()
//
//	buf, svg, err := conv.RenderFormulaToImage(ctx, `\frac{a}{b}`, mathtex.RenderOptions{Scale: 2})
package mathtex
