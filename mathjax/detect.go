package mathjax

import (
	"strings"

	"golang.org/x/net/html"
)

// ErrorMarker is the attribute MathJax puts on the element wrapping a
// formula it could not typeset.
const ErrorMarker = "data-mjx-error"

// DetectError scans raw engine output for ErrorMarker. When present it
// returns the attribute value (the text between the first two double quotes
// after the marker) followed by a period. A marker without a closing quote
// yields the rest of the output; a marker with no quoted value at all
// yields "Unknown typesetting error.".
func DetectError(raw string) (string, bool) {
	i := strings.Index(raw, ErrorMarker)
	if i < 0 {
		return "", false
	}
	rest := raw[i+len(ErrorMarker):]
	start := strings.IndexByte(rest, '"')
	if start < 0 {
		return "Unknown typesetting error.", true
	}
	rest = rest[start+1:]
	if end := strings.IndexByte(rest, '"'); end >= 0 {
		rest = rest[:end]
	}
	return html.UnescapeString(rest) + ".", true
}
