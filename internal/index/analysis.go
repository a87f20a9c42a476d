package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Analyzer turns text into full-text tokens.
//
// Text is NFKC-normalised and case folded, then split on anything that is
// not a letter or digit.
type Analyzer struct{}

// NewAnalyzer returns the analyzer used for the full-text field.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Tokens returns the tokens of text in order of appearance.
func (a *Analyzer) Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	// cases.Caser is stateful, so one is created per call.
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Token returns the single normalised token for a word, or "" when the word
// analyses to nothing.
func (a *Analyzer) Token(word string) string {
	tokens := a.Tokens(word)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
