// Package store persists content nodes in SQLite.
//
// The store is the system of record; the search index is rebuilt from it
// whenever its generation changes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/corvid/internal/model"
	"github.com/aidanlsb/corvid/internal/sqlutil"
)

// DirName is the per-repository directory holding the store.
const DirName = ".corvid"

// CurrentSchemaVersion is the version recorded in the meta table.
const CurrentSchemaVersion = 1

var (
	// ErrNodeNotFound indicates the requested node ID is not stored.
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidNode indicates a node that cannot be stored.
	ErrInvalidNode = errors.New("invalid node")
)

// Store is the SQLite node store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store of the repository at repoPath.
func Open(repoPath string) (*Store, error) {
	dir := filepath.Join(repoPath, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", DirName, err)
	}
	return open(filepath.Join(dir, "store.db"))
}

// OpenInMemory opens an in-memory store (for testing).
func OpenInMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if dsn == ":memory:" {
		// every connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- seq defines storage order, which is document order in the index
		CREATE TABLE IF NOT EXISTS nodes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL,
			properties TEXT NOT NULL DEFAULT '[]',
			body TEXT NOT NULL DEFAULT '',
			stored_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS refs (
			source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
			property TEXT NOT NULL,
			target_id TEXT NOT NULL,
			PRIMARY KEY (source_id, property, target_id)
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
		CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);
		CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(target_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentSchemaVersion))
	if err != nil {
		return fmt.Errorf("failed to set store version: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES ('generation', '0')`)
	if err != nil {
		return fmt.Errorf("failed to set store generation: %w", err)
	}
	return nil
}

// SaveNodes inserts or replaces nodes in one transaction and bumps the
// generation. A replaced node keeps its storage position.
func (s *Store) SaveNodes(ctx context.Context, nodes []*model.Node) error {
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: empty id (name %q)", ErrInvalidNode, n.Name)
		}
	}

	return sqlutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		upsert, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (id, name, type, parent_id, path, properties, body, stored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				parent_id = excluded.parent_id,
				path = excluded.path,
				properties = excluded.properties,
				body = excluded.body,
				stored_at = excluded.stored_at
		`)
		if err != nil {
			return err
		}
		defer upsert.Close()

		clearRefs, err := tx.PrepareContext(ctx, `DELETE FROM refs WHERE source_id = ?`)
		if err != nil {
			return err
		}
		defer clearRefs.Close()

		insertRef, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO refs (source_id, property, target_id) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insertRef.Close()

		now := time.Now().Unix()
		for _, n := range nodes {
			props := []byte("[]")
			if len(n.Properties) > 0 {
				if props, err = json.Marshal(n.Properties); err != nil {
					return fmt.Errorf("encode properties of %s: %w", n.ID, err)
				}
			}
			if _, err := upsert.ExecContext(ctx, n.ID, n.Name, n.Type, n.ParentID, n.Path, string(props), n.Body, now); err != nil {
				return fmt.Errorf("save node %s: %w", n.ID, err)
			}
			if _, err := clearRefs.ExecContext(ctx, n.ID); err != nil {
				return err
			}
			for _, p := range n.ReferenceProperties() {
				for _, target := range p.Values {
					if _, err := insertRef.ExecContext(ctx, n.ID, p.Name, target); err != nil {
						return fmt.Errorf("save reference %s.%s: %w", n.ID, p.Name, err)
					}
				}
			}
		}
		return bumpGeneration(ctx, tx)
	})
}

// DeleteNode removes a node and its outgoing references.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return sqlutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%s: %w", id, ErrNodeNotFound)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE source_id = ?`, id); err != nil {
			return err
		}
		return bumpGeneration(ctx, tx)
	})
}

// Clear removes every node.
func (s *Store) Clear(ctx context.Context) error {
	return sqlutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{"refs", "nodes"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return bumpGeneration(ctx, tx)
	})
}

func bumpGeneration(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `UPDATE meta SET value = CAST(value AS INTEGER) + 1 WHERE key = 'generation'`)
	if err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

// Generation returns a counter that changes with every write.
func (s *Store) Generation(ctx context.Context) (int64, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'generation'`).Scan(&v); err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

const nodeColumns = `id, name, type, parent_id, path, properties, body`

func scanNode(rows interface{ Scan(...any) error }) (*model.Node, error) {
	var n model.Node
	var props string
	if err := rows.Scan(&n.ID, &n.Name, &n.Type, &n.ParentID, &n.Path, &props, &n.Body); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(props), &n.Properties); err != nil {
		return nil, fmt.Errorf("decode properties of %s: %w", n.ID, err)
	}
	if len(n.Properties) == 0 {
		n.Properties = nil
	}
	return &n, nil
}

// Get returns the node with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*model.Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	return n, err
}

// GetMany returns the stored nodes among ids, in storage order. Unknown
// IDs are skipped.
func (s *Store) GetMany(ctx context.Context, ids []string) ([]*model.Node, error) {
	placeholders, args := sqlutil.InClauseArgs(ids)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id IN (`+placeholders+`) ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, func(r *sql.Rows) (*model.Node, error) {
		return scanNode(r)
	})
}

// Scan calls fn for every node in storage order. It stops at the first
// error fn returns.
func (s *Store) Scan(ctx context.Context, fn func(*model.Node) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY seq`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Stats contains store statistics.
type Stats struct {
	Nodes        int   `json:"nodes"`
	Refs         int   `json:"refs"`
	DanglingRefs int   `json:"dangling_refs"`
	Generation   int64 `json:"generation"`
}

// Stats returns statistics about the store.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&st.Nodes); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM refs").Scan(&st.Refs); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM refs r LEFT JOIN nodes n ON r.target_id = n.id WHERE n.id IS NULL
	`).Scan(&st.DanglingRefs); err != nil {
		return nil, err
	}
	gen, err := s.Generation(ctx)
	if err != nil {
		return nil, err
	}
	st.Generation = gen
	return &st, nil
}

// Count returns the number of stored nodes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&n)
	return n, err
}

// Ref is one reference property value.
type Ref struct {
	SourceID string `json:"source_id"`
	Property string `json:"property"`
	TargetID string `json:"target_id"`
}

func scanRef(rows *sql.Rows) (Ref, error) {
	var r Ref
	err := rows.Scan(&r.SourceID, &r.Property, &r.TargetID)
	return r, err
}

// DanglingRefs returns references whose target is not stored.
func (s *Store) DanglingRefs(ctx context.Context) ([]Ref, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.source_id, r.property, r.target_id
		FROM refs r
		LEFT JOIN nodes n ON r.target_id = n.id
		WHERE n.id IS NULL
		ORDER BY r.source_id, r.property, r.target_id
	`)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, scanRef)
}

// Referrers returns the references pointing at id.
func (s *Store) Referrers(ctx context.Context, id string) ([]Ref, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, property, target_id
		FROM refs
		WHERE target_id = ?
		ORDER BY source_id, property
	`, id)
	if err != nil {
		return nil, err
	}
	return sqlutil.ScanRows(rows, scanRef)
}
