package mathjax

import "strings"

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Sanitize prepares formula text for embedding in a double-quoted script
// string literal. It trims the text, turns every CR and LF into a space,
// doubles backslashes and escapes double quotes. Blank text yields
// ErrEmptyFormula.
func Sanitize(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyFormula
	}
	text = lineBreaks.Replace(text)
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"`, `\"`)
	return text, nil
}
