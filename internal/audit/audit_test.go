package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".corvid")
	l := New(dir, true)
	require.True(t, l.Enabled())

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, l.LogImport("/src/a", 3, 2, 1, 4))
	require.NoError(t, l.LogClear(5))
	require.NoError(t, l.LogImport("/src/b", 7, 0, 0, 6))

	entries, err = l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, OpClear, entries[1].Operation)
	assert.False(t, entries[0].Timestamp.IsZero())

	last, ok, err := l.Last(OpImport)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/src/b", last.Source)
	assert.Equal(t, 7, last.Nodes)
	assert.Equal(t, int64(6), last.Generation)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, true)
	require.NoError(t, l.LogClear(1))

	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, l.LogClear(2))

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDisabled(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, false)
	require.NoError(t, l.LogClear(1))
	assert.NoFileExists(t, filepath.Join(dir, FileName))

	_, ok, err := l.Last(OpClear)
	require.NoError(t, err)
	assert.False(t, ok)
}
