package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette: default text for primary content, an accent for paths and
// highlights, gray for secondary info. Status uses symbols, not color.

const defaultAccent = "#A78BFA"

var (
	// Accent style for node paths and highlights.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, row numbers.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis.
	Bold = lipgloss.NewStyle().Bold(true)

	accentColor = defaultAccent
	codeTheme   string
)

// ConfigureTheme applies the configured accent color and code theme.
// "none", "off" and "default" disable the accent.
func ConfigureTheme(accent, theme string) {
	codeTheme = strings.TrimSpace(theme)
	if strings.TrimSpace(accent) == "" {
		accentColor = defaultAccent
		Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))
		return
	}
	color, ok := normalizeAccentColor(accent)
	if !ok {
		accentColor = ""
		Accent = lipgloss.NewStyle()
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// AccentColor returns the active accent color.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

func normalizeAccentColor(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "off", "default":
		return "", false
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return "#" + hex, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return "", false
	}
	return strconv.Itoa(n), true
}

// DisableColor drops all styling, for output that is not a terminal.
func DisableColor() {
	Accent = lipgloss.NewStyle()
	Muted = lipgloss.NewStyle()
	Bold = lipgloss.NewStyle()
	accentColor = ""
}
