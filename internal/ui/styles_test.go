package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAccentColor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "empty", input: "", ok: false},
		{name: "none", input: "none", ok: false},
		{name: "off", input: "off", ok: false},
		{name: "ansi code", input: "39", expected: "39", ok: true},
		{name: "ansi with whitespace", input: "  244 ", expected: "244", ok: true},
		{name: "ansi out of range", input: "256", ok: false},
		{name: "negative ansi", input: "-1", ok: false},
		{name: "hex 6", input: "#7AA2F7", expected: "#7aa2f7", ok: true},
		{name: "hex 3", input: "#abc", expected: "#aabbcc", ok: true},
		{name: "bad hex", input: "#zzzzzz", ok: false},
		{name: "bad string", input: "blue", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeAccentColor(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConfigureTheme(t *testing.T) {
	origAccent, origColor, origTheme := Accent, accentColor, codeTheme
	t.Cleanup(func() {
		Accent, accentColor, codeTheme = origAccent, origColor, origTheme
	})

	ConfigureTheme("39", "dracula")
	got, ok := AccentColor()
	assert.True(t, ok)
	assert.Equal(t, "39", got)
	assert.Equal(t, "dracula", codeTheme)

	ConfigureTheme("none", "")
	_, ok = AccentColor()
	assert.False(t, ok)

	ConfigureTheme("", "")
	got, ok = AccentColor()
	assert.True(t, ok)
	assert.Equal(t, defaultAccent, got)
}
