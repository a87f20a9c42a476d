package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// firstHeading returns the text of the first non-empty heading in body.
func firstHeading(body string) string {
	src := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		if title = strings.TrimSpace(b.String()); title == "" {
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkStop, nil
	})
	return title
}
