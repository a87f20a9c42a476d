package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/corvid/internal/atomicfile"
)

type persistedConfig struct {
	Repository *persistedRepository `toml:"repository,omitempty"`
	Search     SearchConfig         `toml:"search"`
	Log        LogConfig            `toml:"log"`
	UI         *persistedUISettings `toml:"ui,omitempty"`
}

type persistedRepository struct {
	Default *string           `toml:"default,omitempty"`
	Paths   map[string]string `toml:"paths,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo validates cfg and writes it to path atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := persistedConfig{Search: cfg.Search, Log: cfg.Log}
	def := nonEmptyPtr(cfg.Repository.Default)
	if def != nil || len(cfg.Repository.Paths) > 0 {
		out.Repository = &persistedRepository{Default: def}
		if len(cfg.Repository.Paths) > 0 {
			out.Repository.Paths = cfg.Repository.Paths
		}
	}
	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{Accent: accent, CodeTheme: codeTheme}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	err := atomicfile.Write(path, 0o644, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(out)
	})
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
