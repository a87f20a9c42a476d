// Package audit keeps an append-only log of changes made to a repository's
// store, one JSON object per line.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the log file kept in the repository's metadata directory.
const FileName = "audit.log"

// Operations
const (
	OpImport = "import"
	OpClear  = "clear"
)

// Entry is one audit log line.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Operation  string    `json:"op"`
	Source     string    `json:"source,omitempty"`
	Nodes      int       `json:"nodes,omitempty"`
	Refs       int       `json:"refs,omitempty"`
	Unresolved int       `json:"unresolved,omitempty"`
	Generation int64     `json:"generation,omitempty"`
}

// Logger appends to an audit log. A disabled Logger does nothing.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates a logger writing under dir.
func New(dir string, enabled bool) *Logger {
	if !enabled {
		return &Logger{}
	}
	return &Logger{path: filepath.Join(dir, FileName), enabled: true}
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool { return l.enabled }

// Log appends entry, stamping it with the current time when unset.
func (l *Logger) Log(entry Entry) error {
	if !l.enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// LogImport records a finished import.
func (l *Logger) LogImport(source string, nodes, refs, unresolved int, generation int64) error {
	return l.Log(Entry{
		Operation:  OpImport,
		Source:     source,
		Nodes:      nodes,
		Refs:       refs,
		Unresolved: unresolved,
		Generation: generation,
	})
}

// LogClear records that every node was removed.
func (l *Logger) LogClear(generation int64) error {
	return l.Log(Entry{Operation: OpClear, Generation: generation})
}

// Read returns every entry in write order. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	if !l.enabled {
		return nil, nil
	}
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// Last returns the newest entry for op.
func (l *Logger) Last(op string) (Entry, bool, error) {
	entries, err := l.Read()
	if err != nil {
		return Entry{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Operation == op {
			return entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}
