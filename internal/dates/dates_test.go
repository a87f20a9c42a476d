package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDate(t *testing.T) {
	for _, d := range []string{"2025-01-01", "2024-12-31", "2000-06-15"} {
		assert.True(t, IsValidDate(d), d)
	}
	for _, d := range []string{"2025/01/01", "01-01-2025", "2025-13-01", "2025-01-32", "not-a-date", "", "2025-02-30"} {
		assert.False(t, IsValidDate(d), d)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-01", "2025-01-01", true},
		{" 2025-01-01 ", "2025-01-01", true},
		{"2025-01-01T10:30", "2025-01-01T10:30:00Z", true},
		{"2025-01-01T10:30:45", "2025-01-01T10:30:45Z", true},
		{"2025-06-15T14:00:00+05:00", "2025-06-15T09:00:00Z", true},
		{"2025-06-15T00:00:00Z", "2025-06-15", true},
		{"yesterday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Canonical(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalOrderIsChronological(t *testing.T) {
	a, _ := Canonical("2025-01-01")
	b, _ := Canonical("2025-01-01T08:00")
	c, _ := Canonical("2025-01-02")
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2024-03-05", Format(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-05T07:08:09Z", Format(time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)))
}
