// Package testutil provides reusable test fixtures for corvid tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestRepo is a temporary repository with a folder of markdown sources
// and its own config file, for driving the cvd binary.
type TestRepo struct {
	Path   string // repository root, passed as --repo
	Source string // markdown folder to import
	Config string // config file, passed as --config

	t     testing.TB
	files map[string]string
}

// NewTestRepo creates a repository builder. Call Build to create it.
func NewTestRepo(t testing.TB) *TestRepo {
	t.Helper()
	return &TestRepo{t: t, files: make(map[string]string)}
}

// WithFile adds a source file, relative to the source folder.
func (r *TestRepo) WithFile(path, content string) *TestRepo {
	r.files[path] = content
	return r
}

// WithNotes adds the people/projects sample set.
func (r *TestRepo) WithNotes() *TestRepo {
	for path, content := range SampleNotes() {
		r.files[path] = content
	}
	return r
}

// Build creates the directories and writes every source file.
func (r *TestRepo) Build() *TestRepo {
	r.t.Helper()
	root := r.t.TempDir()
	r.Path = filepath.Join(root, "repo")
	r.Source = filepath.Join(root, "src")
	r.Config = filepath.Join(root, "config.toml")

	if err := os.MkdirAll(r.Source, 0o755); err != nil {
		r.t.Fatalf("create source dir: %v", err)
	}
	for path, content := range r.files {
		r.WriteSource(path, content)
	}
	return r
}

// WriteSource writes a source file after Build.
func (r *TestRepo) WriteSource(relPath, content string) {
	r.t.Helper()
	full := filepath.Join(r.Source, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("create dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", relPath, err)
	}
}

// WriteQuery writes a query document next to the repository and returns
// its path.
func (r *TestRepo) WriteQuery(name, doc string) string {
	r.t.Helper()
	full := filepath.Join(filepath.Dir(r.Path), name)
	if err := os.WriteFile(full, []byte(doc), 0o644); err != nil {
		r.t.Fatalf("write query %s: %v", name, err)
	}
	return full
}

// SampleNotes returns a small markdown tree: two people, two projects
// referencing them, and a readme with one dangling link.
func SampleNotes() map[string]string {
	return map[string]string{
		"people/ada.md": "---\ntype: person\nborn: 1815\n---\n# Ada Lovelace\n\nWrote the first program for the [[engine]].\n",
		"people/alan.md": "---\ntype: person\nborn: 1912\n---\n# Alan Turing\n\nBroke ciphers.\n",
		"projects/engine.md": "---\ntype: project\nowner: \"[[people/ada]]\"\nstatus: open\n---\n" +
			"# Analytical Engine\n\nA mechanical general-purpose computer.\n",
		"projects/bombe.md": "---\ntype: project\nowner: \"[[alan]]\"\nstatus: closed\n---\n" +
			"# Bombe\n\nCodebreaking machine.\n",
		"readme.md": "Start at [[engine]]; see also [[babbage]].\n",
	}
}
