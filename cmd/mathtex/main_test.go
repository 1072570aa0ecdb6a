package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/mathtex/svgraster"
)

var (
	testBundle  = filepath.Join("..", "..", "testdata", "fake-mathjax.js")
	testDOMShim = filepath.Join("..", "..", "testdata", "dom-shim.js")
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--bundle", testBundle, "--dom-shim", testDOMShim}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSVGCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "svg", `\frac{a}{b}`, "--inline")
	if err != nil {
		t.Fatalf("svg error = %v", err)
	}
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, `data-display="false"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSVGCommand_Stdin(t *testing.T) {
	out, _, err := runCLI(t, "x^2\n", "svg", "-", "--option", "scale=3")
	if err != nil {
		t.Fatalf("svg error = %v", err)
	}
	if !strings.Contains(out, `data-scale="3"`) {
		t.Fatalf("option not applied: %s", out)
	}
}

func TestSVGCommand_TypesetError(t *testing.T) {
	_, _, err := runCLI(t, "", "svg", `\frac{a}`)
	if err == nil || !strings.Contains(err.Error(), `Missing argument for \frac.`) {
		t.Fatalf("expected typeset error, got %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "f.png")
	if _, _, err := runCLI(t, "", "render", `a+b`, "-o", out, "--dpi", "144", "--background", "#ffffff"); err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if dpi, ok := svgraster.PNGResolution(data); !ok || dpi != 144 {
		t.Fatalf("PNGResolution() = %d, %v", dpi, ok)
	}
}

func TestRenderCommand_FormatFromExtension(t *testing.T) {
	out := filepath.Join(t.TempDir(), "f.bmp")
	if _, _, err := runCLI(t, "", "render", `a`, "-o", out); err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("BM")) {
		t.Fatalf("expected a BMP file")
	}
}

func TestMathMLCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "mathml", `a+b`)
	if err != nil {
		t.Fatalf("mathml error = %v", err)
	}
	if !strings.Contains(out, "<mi>a+b</mi>") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, _, err = runCLI(t, "", "mathml", "--native", `\frac{1}{2}`)
	if err != nil {
		t.Fatalf("mathml --native error = %v", err)
	}
	if !strings.HasPrefix(out, "<math") || !strings.Contains(out, "mfrac") {
		t.Fatalf("unexpected native output: %s", out)
	}
}

func TestMissingBundle(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"svg", "x"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "no MathJax bundle") {
		t.Fatalf("expected missing bundle error, got %v", err)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mathtex.toml")
	cfg := "[render]\nformat = \"tiff\"\ndpi = 72\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	out := filepath.Join(dir, "f")
	if _, _, err := runCLI(t, "", "--config", cfgPath, "render", "x", "-o", out); err != nil {
		t.Fatalf("render error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("II*\x00")) && !bytes.HasPrefix(data, []byte("MM\x00*")) {
		t.Fatalf("expected a TIFF file")
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "formulas.yaml")
	manifest := `
defaults:
  scale: 2
formulas:
  - id: sum
    tex: 'a+b'
  - id: broken
    tex: '\frac{a}'
  - tex: 'x'
    inline: true
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	outDir := filepath.Join(dir, "out")
	stdout, stderr, err := runCLI(t, "", "batch", manifestPath, "-o", outDir, "--keep-svg", "--no-progress")
	if err == nil || !strings.Contains(err.Error(), "1 formulas failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if !strings.Contains(stdout, "rendered 2/3") {
		t.Fatalf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "broken:") {
		t.Fatalf("stderr = %q", stderr)
	}
	for _, name := range []string{"sum.png", "sum.svg", "formula-003.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "broken.png")); !os.IsNotExist(err) {
		t.Fatalf("failed formula must not be written")
	}
}
