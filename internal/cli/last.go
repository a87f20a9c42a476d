package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/lastresults"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

var lastCmd = &cobra.Command{
	Use:   "last [numbers...]",
	Short: "Show rows of the last query",
	Long: `Lists the numbered rows saved by the last 'cvd query', or only the
selected ones. Numbers accept lists and ranges.

Examples:
  cvd last
  cvd last 2
  cvd last 1,3-5 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		lr, err := lastresults.Read(filepath.Join(resolvedRepo, store.DirName))
		if err != nil {
			return fail(out, err)
		}
		entries := lr.Entries
		if len(args) > 0 {
			nums, err := lastresults.ParseNumberArgs(args)
			if err != nil {
				return fail(out, err)
			}
			if entries, err = lr.GetByNumbers(nums); err != nil {
				return fail(out, err)
			}
		}
		if entries == nil {
			entries = []lastresults.Entry{}
		}

		if jsonOutput {
			return outputSuccess(out, map[string]any{
				"query":     lr.Query,
				"timestamp": lr.Timestamp,
				"entries":   entries,
			}, &Meta{Count: len(entries), Total: len(lr.Entries)})
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, ui.Hint("The last query returned no rows."))
			return nil
		}
		tbl := ui.NewTable(3)
		for _, e := range entries {
			tbl.AddRow(ui.Muted.Render(strconv.Itoa(e.Num)), ui.NodePath(e.Path), ui.Muted.Render(e.ID))
		}
		fmt.Fprint(out, tbl.String())
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("from %s at %s", lr.Query, lr.Timestamp.Local().Format("15:04:05"))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lastCmd)
}
