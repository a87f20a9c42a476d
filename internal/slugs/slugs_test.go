package slugs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weekly Standup.md", "weekly-standup"},
		{"apollo", "apollo"},
		{"Q3 Plan (draft)", "q3-plan-draft"},
		{"Café", "cafe"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/projects/apollo-launch", Path("Projects/Apollo Launch.md"))
	assert.Equal(t, "/projects/apollo-launch", Path("/Projects//Apollo Launch.md"))
	assert.Equal(t, "/", Path(""))
	assert.Equal(t, "/", Path("."))
}
