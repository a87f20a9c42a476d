// Package sqlutil holds small helpers shared by SQLite-backed code.
package sqlutil

import (
	"context"
	"database/sql"
	"strings"
)

// InClauseArgs returns a comma-separated list of "?" placeholders and the
// matching args for an IN clause.
//
// An empty items yields "NULL" and no args, so `IN (NULL)` matches nothing.
func InClauseArgs(items []string) (placeholders string, args []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	args = make([]any, len(items))
	for i, item := range items {
		args[i] = item
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", "), args
}

// ScanRows scans every row with scan and closes rows.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
