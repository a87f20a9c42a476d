// Package config handles corvid configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/corvid/internal/logging"
)

// DefaultResultFetchSize is the default number of hits fetched per batch.
const DefaultResultFetchSize = 50

// ErrNoRepository indicates no repository was named and none is configured.
var ErrNoRepository = errors.New("no repository configured")

// Config represents the corvid configuration file.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Search     SearchConfig     `toml:"search"`
	Log        LogConfig        `toml:"log"`
	UI         UIConfig         `toml:"ui"`
}

// RepositoryConfig names the repositories corvid can open.
type RepositoryConfig struct {
	// Default is a name from Paths, or a path.
	Default string `toml:"default"`

	// Paths maps repository names to directories.
	Paths map[string]string `toml:"paths"`
}

// SearchConfig tunes query execution.
type SearchConfig struct {
	// ResultFetchSize is the number of hits released per batch.
	ResultFetchSize int `toml:"result_fetch_size"`

	// DocumentOrder returns unordered results in storage order instead of
	// by relevance.
	DocumentOrder bool `toml:"document_order"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// Audit appends one line per import to .corvid/audit.log.
	Audit bool `toml:"audit"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Search: SearchConfig{ResultFetchSize: DefaultResultFetchSize},
		Log:    LogConfig{Level: "info", Format: logging.FormatText, Audit: true},
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Search.ResultFetchSize <= 0 {
		return fmt.Errorf("search.result_fetch_size must be positive, got %d", c.Search.ResultFetchSize)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if accent := strings.TrimSpace(c.UI.Accent); accent != "" && !hexColor.MatchString(accent) {
		if n, err := strconv.Atoi(accent); err != nil || n < 0 || n > 255 {
			return fmt.Errorf("ui.accent: %q is neither an ANSI code nor #RRGGBB", accent)
		}
	}
	for name, path := range c.Repository.Paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("repository.paths.%s is empty", name)
		}
	}
	return nil
}

// RepositoryPath resolves a repository name or path. An empty ref selects
// the default; a ref that names no configured repository is taken as a
// path.
func (c *Config) RepositoryPath(ref string) (string, error) {
	if ref == "" {
		ref = c.Repository.Default
	}
	if ref == "" {
		return "", ErrNoRepository
	}
	if path, ok := c.Repository.Paths[ref]; ok {
		ref = path
	}
	return expandHome(ref), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Load loads the configuration from path, or from DefaultPath when path is
// empty. A missing default file yields Default(); a missing explicit file
// is an error.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}
	return LoadFrom(path)
}

// LoadFrom loads and validates the configuration at path. Unset keys keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/corvid/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "corvid", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "corvid", "config.toml")
	}
	return filepath.Join(".", "config.toml")
}

const defaultTemplate = `# corvid configuration

# [repository]
# default = "notes"
#
# [repository.paths]
# notes = "~/notes"
# work = "/path/to/work/notes"

[search]
# Hits released per batch while reading query results.
result_fetch_size = 50
# Return unordered results in storage order instead of by relevance.
document_order = false

[log]
# debug, info, warn or error
level = "info"
# text or json
format = "text"
# record imports in .corvid/audit.log
audit = true

# Optional accent color for terminal output (ANSI 0-255 or #RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault writes the commented default configuration to path unless
// a file already exists there. It reports whether a file was written.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
