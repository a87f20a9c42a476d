package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/config"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

type initResult struct {
	Path          string `json:"path"`
	Store         string `json:"store"`
	Config        string `json:"config"`
	ConfigCreated bool   `json:"config_created"`
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a repository",
	Long: `Creates the repository directory and its node store, and writes a
commented default config file if none exists.

Examples:
  cvd init ~/notes
  cvd init --repo ~/notes --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		path := repoFlag
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = "."
		}
		path, err := cfg.RepositoryPath(path)
		if err != nil {
			return fail(out, err)
		}
		if path, err = filepath.Abs(path); err != nil {
			return fail(out, err)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return handleError(out, ErrStoreError, err, "")
		}

		s, err := store.Open(path)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		if err := s.Close(); err != nil {
			return handleError(out, ErrStoreError, err, "")
		}

		cfgPath := configPath
		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}
		created, err := config.CreateDefault(cfgPath)
		if err != nil {
			return handleError(out, ErrConfigInvalid, err, "")
		}
		logger.Debug("repository initialized", "path", path, "config", cfgPath, "config_created", created)

		res := initResult{
			Path:          path,
			Store:         filepath.Join(path, store.DirName, "store.db"),
			Config:        cfgPath,
			ConfigCreated: created,
		}
		if jsonOutput {
			return outputSuccess(out, res, nil)
		}
		fmt.Fprintln(out, ui.Successf("Initialized repository at %s", ui.NodePath(path)))
		if created {
			fmt.Fprintln(out, ui.Hint("Wrote default config to "+cfgPath))
		}
		fmt.Fprintln(out, ui.Hint("Next: cvd import <dir> --repo "+path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
