// Package wikilink parses [[target]] and [[target|label]] links.
//
// Targets and labels are trimmed. A target may not contain brackets or a
// pipe.
package wikilink

import (
	"regexp"
	"strings"
)

// Link is a wikilink found in text.
type Link struct {
	Target string
	Label  string
	Start  int
	End    int
}

var re = regexp.MustCompile(`\[\[([^\]\[|]+)(?:\|([^\]]+))?\]\]`)

// ParseExact parses s when it is exactly one wikilink literal, ignoring
// surrounding whitespace.
func ParseExact(s string) (target, label string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") {
		return "", "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "[["), "]]")
	if strings.ContainsAny(inner, "[]") {
		return "", "", false
	}
	target, label, _ = strings.Cut(inner, "|")
	target = strings.TrimSpace(target)
	if target == "" {
		return "", "", false
	}
	return target, strings.TrimSpace(label), true
}

// FindAll returns the wikilinks in text in order of appearance. Links
// preceded by '[' are skipped so YAML flow sequences like [[[a]]] are not
// mistaken for links.
func FindAll(text string) []Link {
	var out []Link
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 && text[start-1] == '[' {
			continue
		}
		target := strings.TrimSpace(text[m[2]:m[3]])
		if target == "" {
			continue
		}
		link := Link{Target: target, Start: start, End: end}
		if m[4] >= 0 {
			link.Label = strings.TrimSpace(text[m[4]:m[5]])
		}
		out = append(out, link)
	}
	return out
}

// Targets returns the distinct targets linked from text, in order.
func Targets(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range FindAll(text) {
		if !seen[l.Target] {
			seen[l.Target] = true
			out = append(out, l.Target)
		}
	}
	return out
}
