// Package mathml converts LaTeX to MathML in pure Go, without a script
// engine. It runs goldmark with the treeblood extension over a one-formula
// document and lifts the resulting <math> element out of the HTML.
package mathml

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrEmptyFormula = errors.New("mathml: empty formula")
	ErrNoMath       = errors.New("mathml: converter produced no <math> element")
)

// Converter is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(
				treeblood.MathML(),
			),
		),
	}
}

// Convert returns the MathML for tex in display (block) or inline style.
func (c *Converter) Convert(tex string, display bool) (string, error) {
	tex = strings.Join(strings.Fields(tex), " ")
	if tex == "" {
		return "", ErrEmptyFormula
	}
	delim := "$"
	if display {
		delim = "$$"
	}

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(delim+tex+delim), &buf); err != nil {
		return "", fmt.Errorf("mathml: %w", err)
	}
	return extractMath(buf.String())
}

func extractMath(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("mathml: %w", err)
	}
	n := findMath(root)
	if n == nil {
		return "", ErrNoMath
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("mathml: %w", err)
	}
	return buf.String(), nil
}

func findMath(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Math || n.Data == "math") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := findMath(c); m != nil {
			return m
		}
	}
	return nil
}
