package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/audit"
	"github.com/aidanlsb/corvid/internal/engine"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

type statsResult struct {
	Repository string       `json:"repository"`
	Store      *store.Stats `json:"store"`
	Index      engine.Stats `json:"index"`
	LastImport *audit.Entry `json:"last_import,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show repository statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		x, s, err := openIndex(ctx, 0)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		defer s.Close()

		st, err := s.Stats(ctx)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		res := statsResult{Repository: resolvedRepo, Store: st, Index: x.Stats()}
		if last, ok, err := auditLog().Last(audit.OpImport); err != nil {
			logger.Warn("audit log", "error", err)
		} else if ok {
			res.LastImport = &last
		}
		if jsonOutput {
			return outputSuccess(out, res, nil)
		}

		fmt.Fprintln(out, ui.Header("Repository"))
		fmt.Fprintln(out, ui.NodePath(resolvedRepo))
		fmt.Fprintln(out)

		tbl := ui.NewTable(2)
		tbl.AddRow("Nodes", strconv.Itoa(st.Nodes))
		tbl.AddRow("References", strconv.Itoa(st.Refs))
		tbl.AddRow("Dangling", strconv.Itoa(st.DanglingRefs))
		tbl.AddRow("Generation", strconv.FormatInt(st.Generation, 10))
		tbl.AddRow("Indexed", strconv.Itoa(res.Index.Documents))
		if res.LastImport != nil {
			tbl.AddRow("Last import", res.LastImport.Timestamp.Local().Format("2006-01-02 15:04")+" from "+res.LastImport.Source)
		}
		fmt.Fprint(out, tbl.String())
		if st.DanglingRefs > 0 {
			fmt.Fprintln(out, ui.Hint("Dangling references point at nodes that were never imported."))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
