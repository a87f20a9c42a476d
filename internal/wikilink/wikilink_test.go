package wikilink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExact(t *testing.T) {
	tests := []struct {
		in     string
		target string
		label  string
		ok     bool
	}{
		{in: "[[people/freya]]", target: "people/freya", ok: true},
		{in: " [[people/freya]] ", target: "people/freya", ok: true},
		{in: "[[people/freya | Lady Freya]]", target: "people/freya", label: "Lady Freya", ok: true},
		{in: "[[]]", ok: false},
		{in: "[[ ]]", ok: false},
		{in: "[[[a]]]", ok: false},
		{in: "people/freya", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			target, label, ok := ParseExact(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestFindAll(t *testing.T) {
	text := "see [[a]] and [[b|Bee]], not [[[c]]], again [[a]]"
	links := FindAll(text)
	if assert.Len(t, links, 3) {
		assert.Equal(t, "a", links[0].Target)
		assert.Equal(t, "[[a]]", text[links[0].Start:links[0].End])
		assert.Equal(t, "b", links[1].Target)
		assert.Equal(t, "Bee", links[1].Label)
		assert.Equal(t, "a", links[2].Target)
	}
	assert.Equal(t, []string{"a", "b"}, Targets(text))
	assert.Empty(t, FindAll("no links"))
}
