package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestInClauseArgs(t *testing.T) {
	ph, args := InClauseArgs(nil)
	assert.Equal(t, "NULL", ph)
	assert.Empty(t, args)

	ph, args = InClauseArgs([]string{"a", "b", "c"})
	assert.Equal(t, "?, ?, ?", ph)
	assert.Equal(t, []any{"a", "b", "c"}, args)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE t (v TEXT)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t VALUES ('rolled back')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO t VALUES ('kept')`)
		return err
	}))

	rows, err := db.Query(`SELECT v FROM t`)
	require.NoError(t, err)
	got, err := ScanRows(rows, func(r *sql.Rows) (string, error) {
		var v string
		return v, r.Scan(&v)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, got)
}
