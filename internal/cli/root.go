// Package cli implements the cvd command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/corvid/internal/audit"
	"github.com/aidanlsb/corvid/internal/config"
	"github.com/aidanlsb/corvid/internal/logging"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

var (
	// Global flags
	configPath string
	repoFlag   string
	logLevel   = levelFlag{}

	// Resolved values
	cfg          *config.Config
	resolvedRepo string
	logger       = slog.Default()
)

// levelFlag is a --log-level value validated when parsed.
type levelFlag struct{ name string }

var _ pflag.Value = (*levelFlag)(nil)

func (f *levelFlag) String() string { return f.name }
func (f *levelFlag) Type() string   { return "level" }

func (f *levelFlag) Set(s string) error {
	if _, err := logging.ParseLevel(s); err != nil {
		return err
	}
	f.name = strings.ToLower(strings.TrimSpace(s))
	return nil
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cvd",
	Short: "corvid - structured queries over a content repository",
	Long: `corvid stores content nodes in a repository and answers structured
queries over them: path steps, property predicates, full-text search and
reference dereferencing.

Queries are YAML documents; see 'cvd query --help'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return handleError(cmd.OutOrStdout(), ErrConfigInvalid, err, "Fix the config file or pass --config")
		}
		if logLevel.name != "" {
			cfg.Log.Level = logLevel.name
		}
		logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
		if err != nil {
			return handleError(cmd.OutOrStdout(), ErrConfigInvalid, err, "")
		}

		ui.ConfigureTheme(cfg.UI.Accent, cfg.UI.CodeTheme)
		if !ui.ColorEnabled(cmd.OutOrStdout()) {
			ui.DisableColor()
		}

		switch cmd.Name() {
		case "version", "help", "init":
			return nil
		}
		return resolveRepo(cmd)
	},
}

// loadConfig loads --config or the default file. init may name a config
// that does not exist yet, since it creates one.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Name() == "init" && configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(configPath)
}

// resolveRepo sets resolvedRepo from --repo or the configured default and
// checks that the repository has been initialized.
func resolveRepo(cmd *cobra.Command) error {
	path, err := cfg.RepositoryPath(repoFlag)
	if errors.Is(err, config.ErrNoRepository) {
		// fall back to the working directory
		path, err = os.Getwd()
	}
	if err != nil {
		return fail(cmd.OutOrStdout(), err)
	}
	resolvedRepo = path

	if _, err := os.Stat(filepath.Join(path, store.DirName)); os.IsNotExist(err) {
		return fail(cmd.OutOrStdout(), fmt.Errorf("%s: %w", path, errNotInitialized))
	}
	return nil
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, ui.Errorf("%v", err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "r", "", "Repository path, or a name from config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for script use)")
	rootCmd.PersistentFlags().Var(&logLevel, "log-level", "Log level: debug, info, warn or error")
}

// auditLog returns the resolved repository's audit log.
func auditLog() *audit.Logger {
	return audit.New(filepath.Join(resolvedRepo, store.DirName), cfg.Log.Audit)
}

// openStore opens the resolved repository's store.
func openStore() (*store.Store, error) {
	s, err := store.Open(resolvedRepo)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}
