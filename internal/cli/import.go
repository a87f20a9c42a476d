package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/audit"
	"github.com/aidanlsb/corvid/internal/ingest"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
	"github.com/aidanlsb/corvid/internal/watcher"
)

var (
	importReplace  bool
	importWatch    bool
	importDebounce time.Duration
)

type importResult struct {
	*ingest.Report
	Replaced bool `json:"replaced"`
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a folder of markdown files",
	Long: `Imports every markdown file under dir as a node and every directory as
a folder node. Frontmatter keys become properties; [[wikilink]] values
become references to other imported nodes.

Re-importing updates nodes in place. --replace clears the store first.
--watch keeps running after the import and re-imports the folder, with
--replace semantics, whenever markdown files under it change.

Examples:
  cvd import ./notes
  cvd import ./notes --replace --json
  cvd import ./notes --watch`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		start := time.Now()

		if importWatch && jsonOutput {
			return handleError(out, ErrInvalidInput, errors.New("--watch cannot be combined with --json"), "")
		}

		lock, err := store.AcquireLock(resolvedRepo)
		if err != nil {
			return fail(out, err)
		}
		defer lock.Release()

		s, err := openStore()
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		defer s.Close()

		journal := auditLog()
		if importReplace {
			if err := clearStore(ctx, s, journal); err != nil {
				return handleError(out, ErrStoreError, err, "")
			}
		}

		var spinner *ui.Spinner
		if !jsonOutput {
			spinner = ui.NewSpinner(cmd.ErrOrStderr(), "Importing "+args[0])
			spinner.Start()
		}
		report, err := ingest.Import(ctx, args[0], s, ingest.WithLogger(logger))
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			code, suggestion := classify(err)
			if code == ErrInternal {
				code = ErrImportFailed
			}
			return handleError(out, code, err, suggestion)
		}
		recordImport(ctx, s, journal, args[0], report)

		if jsonOutput {
			return outputSuccess(out, importResult{Report: report, Replaced: importReplace},
				&Meta{Count: report.Nodes, QueryTimeMs: time.Since(start).Milliseconds()})
		}
		fmt.Fprintln(out, ui.Successf("Imported %s (%s, %s)",
			ui.Count(report.Nodes, "node", "nodes"),
			ui.Count(report.Folders, "folder", "folders"),
			ui.Count(report.Refs, "reference", "references")))
		if n := len(report.Unresolved); n > 0 {
			fmt.Fprintln(out, ui.Warningf("%s kept as dangling references:", ui.Count(n, "unresolved link", "unresolved links")))
			for _, u := range report.Unresolved {
				fmt.Fprintln(out, "  "+ui.Hint(u))
			}
		}
		if importWatch {
			return watchImport(cmd, s, journal, args[0])
		}
		return nil
	},
}

// watchImport re-imports source after every debounced change until
// interrupted. The store lock stays held throughout.
func watchImport(cmd *cobra.Command, s *store.Store, journal *audit.Logger, source string) error {
	out := cmd.OutOrStdout()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w, err := watcher.New(watcher.Config{
		Source:   source,
		Debounce: importDebounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			if err := clearStore(ctx, s, journal); err != nil {
				return err
			}
			report, err := ingest.Import(ctx, source, s, ingest.WithLogger(logger))
			if err != nil {
				return err
			}
			recordImport(ctx, s, journal, source, report)
			fmt.Fprintln(out, ui.Successf("Re-imported %s after %s",
				ui.Count(report.Nodes, "node", "nodes"),
				ui.Count(len(changed), "change", "changes")))
			return nil
		},
	})
	if err != nil {
		return handleError(out, ErrInvalidInput, err, "")
	}
	fmt.Fprintln(out, ui.Hint("Watching "+source+" (Ctrl-C to stop)"))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(out, ErrImportFailed, err, "")
	}
	return nil
}

func clearStore(ctx context.Context, s *store.Store, journal *audit.Logger) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	gen, err := s.Generation(ctx)
	if err != nil {
		return err
	}
	if err := journal.LogClear(gen); err != nil {
		logger.Warn("audit log", "error", err)
	}
	return nil
}

// recordImport appends the import to the audit log. Failures are logged
// only; the import itself has succeeded.
func recordImport(ctx context.Context, s *store.Store, journal *audit.Logger, source string, report *ingest.Report) {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	gen, err := s.Generation(ctx)
	if err == nil {
		err = journal.LogImport(source, report.Nodes, report.Refs, len(report.Unresolved), gen)
	}
	if err != nil {
		logger.Warn("audit log", "error", err)
	}
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Remove all stored nodes before importing")
	importCmd.Flags().BoolVar(&importWatch, "watch", false, "Keep running and re-import on changes")
	importCmd.Flags().DurationVar(&importDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before a watched change is imported")
	rootCmd.AddCommand(importCmd)
}
