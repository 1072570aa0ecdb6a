package mathjax

import (
	"fmt"
	"io/fs"
	"os"
)

// startupConfig runs before the bundle. Typesetting on load is disabled,
// noerrors is removed so bad input is reported through ErrorMarker, and
// glyph paths are inlined instead of referenced through <use>.
const startupConfig = `MathJax = {
  startup: { typeset: false },
  tex: { packages: { '[-]': ['noerrors'] } },
  svg: { fontCache: 'none' }
};`

const readyCall = `MathJax.config.startup.ready();`

const (
	vectorFunc = "texToSVG"
	markupFunc = "texToMML"
)

const helperFunctions = `
function texOptions(options) {
  options = options || {};
  if (options.display == null) { options.display = true; }
  if (options.em == null) { options.em = 16; }
  if (options.scale == null) { options.scale = 1; }
  return options;
}
function texToSVG(text, options) {
  MathJax.texReset();
  var node = MathJax.tex2svg(text, texOptions(options));
  return MathJax.startup.adaptor.outerHTML(node.children[0]);
}
function texToMML(text, options) {
  MathJax.texReset();
  return MathJax.tex2mml(text, texOptions(options));
}
`

// ScriptSource provides the typesetting bundle (for example MathJax's
// tex-svg-full.js) and the DOM shim it needs outside a browser.
type ScriptSource interface {
	Scripts() (bundle, domShim string, err error)
}

// StaticScripts serves script text held in memory.
type StaticScripts struct {
	Bundle  string
	DOMShim string
}

func (s StaticScripts) Scripts() (string, string, error) {
	return s.Bundle, s.DOMShim, nil
}

// FileScripts reads the scripts from FS, or from the OS file system when FS
// is nil. An empty DOMShimPath skips the shim.
type FileScripts struct {
	FS          fs.FS
	BundlePath  string
	DOMShimPath string
}

func (s FileScripts) Scripts() (string, string, error) {
	bundle, err := s.read(s.BundlePath)
	if err != nil {
		return "", "", fmt.Errorf("read bundle: %w", err)
	}
	if s.DOMShimPath == "" {
		return bundle, "", nil
	}
	shim, err := s.read(s.DOMShimPath)
	if err != nil {
		return "", "", fmt.Errorf("read dom shim: %w", err)
	}
	return bundle, shim, nil
}

func (s FileScripts) read(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	var (
		data []byte
		err  error
	)
	if s.FS != nil {
		data, err = fs.ReadFile(s.FS, path)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- script path is caller-provided
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
