// Package lastresults persists the rows of the most recent query so
// follow-up commands can refer to them by number.
package lastresults

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aidanlsb/corvid/internal/atomicfile"
)

// FileName is the file kept in the repository's metadata directory.
const FileName = "last-results.json"

// Errors
var (
	ErrNoLastResults    = errors.New("no last results available")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// Entry is one numbered result row.
type Entry struct {
	Num  int    `json:"num"`
	ID   string `json:"id"`
	Path string `json:"path"`
}

// LastResults is the saved output of one query.
type LastResults struct {
	Query     string    `json:"query"` // document path, "-" for stdin
	Columns   []string  `json:"columns"`
	Timestamp time.Time `json:"timestamp"`
	Entries   []Entry   `json:"entries"`
}

// Path returns the location of the saved results under dir, the
// repository's metadata directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write replaces the saved results.
func Write(dir string, lr *LastResults) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return atomicfile.Write(Path(dir), 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lr)
	})
}

// Read loads the saved results.
func Read(dir string) (*LastResults, error) {
	data, err := os.ReadFile(Path(dir))
	if os.IsNotExist(err) {
		return nil, ErrNoLastResults
	}
	if err != nil {
		return nil, fmt.Errorf("read last results: %w", err)
	}
	var lr LastResults
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("parse last results: %w", err)
	}
	return &lr, nil
}

// Get returns the entry numbered num.
func (lr *LastResults) Get(num int) (Entry, error) {
	for _, e := range lr.Entries {
		if e.Num == num {
			return e, nil
		}
	}
	if len(lr.Entries) == 0 {
		return Entry{}, fmt.Errorf("%w: %d (last query returned no rows)", ErrNumberOutOfRange, num)
	}
	first, last := lr.Entries[0].Num, lr.Entries[len(lr.Entries)-1].Num
	return Entry{}, fmt.Errorf("%w: %d (valid: %d-%d)", ErrNumberOutOfRange, num, first, last)
}

// GetByNumbers returns the entries for nums, in the order given.
func (lr *LastResults) GetByNumbers(nums []int) ([]Entry, error) {
	out := make([]Entry, 0, len(nums))
	for _, n := range nums {
		e, err := lr.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
