package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
)

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...any) string {
	return SymbolSuccess + " " + fmt.Sprintf(format, args...)
}

// Errorf returns a formatted error message with X symbol
func Errorf(format string, args ...any) string {
	return SymbolError + " " + fmt.Sprintf(format, args...)
}

// Warningf returns a formatted warning message with warning symbol
func Warningf(format string, args ...any) string {
	return SymbolWarning + " " + fmt.Sprintf(format, args...)
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// NodePath returns an accent-styled node path
func NodePath(path string) string {
	return Accent.Render(path)
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns a count with the right noun form, e.g. "3 rows".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
