package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/lastresults"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

var (
	explainNode   string
	explainResult int
)

type explainOutput struct {
	NodeID      string              `json:"node_id"`
	Path        string              `json:"path"`
	Match       bool                `json:"match"`
	Explanation *search.Explanation `json:"explanation"`
}

var explainCmd = &cobra.Command{
	Use:   "explain <file|-> (--node <id|path> | --result <n>)",
	Short: "Explain how a node scores for a query",
	Long: `Runs the query document's compiled query against one node and prints
the score breakdown. Dereference steps contribute a constant score and
explain as empty. --result picks row n of the last 'cvd query'.

Examples:
  cvd explain launch.yaml --node /projects/apollo
  cvd explain launch.yaml --result 3
  cvd explain - --node 0b6e... --json < launch.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		ref, err := explainTarget(cmd)
		if err != nil {
			return err
		}
		plan, err := compileQuery(cmd, args[0])
		if err != nil {
			return err
		}
		x, s, err := openIndex(ctx, 0)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		defer s.Close()

		snap := x.Snapshot()
		doc, err := findDoc(snap, ref)
		if err != nil {
			return fail(out, err)
		}
		d, err := snap.Document(doc)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		expl, err := x.Explain(ctx, plan.Query, doc)
		if err != nil {
			return handleError(out, ErrQueryFailed, err, "")
		}

		res := explainOutput{
			NodeID:      d.Get(index.FieldUUID),
			Path:        d.Get(index.FieldPath),
			Match:       expl.IsMatch(),
			Explanation: expl,
		}
		if jsonOutput {
			return outputSuccess(out, res, nil)
		}

		rendered, err := ui.RenderMarkdown(explanationMarkdown(res), ui.NewDisplayContext(out).TermWidth)
		if err != nil {
			// plain text is still useful
			fmt.Fprint(out, expl.String())
			return nil
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

// explainTarget returns the node named by --node, or the ID behind
// --result.
func explainTarget(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	byNode, byResult := cmd.Flags().Changed("node"), cmd.Flags().Changed("result")
	if byNode == byResult {
		return "", handleError(out, ErrInvalidInput, errors.New("exactly one of --node or --result is required"), "")
	}
	if byNode {
		return explainNode, nil
	}
	lr, err := lastresults.Read(filepath.Join(resolvedRepo, store.DirName))
	if err != nil {
		return "", fail(out, err)
	}
	e, err := lr.Get(explainResult)
	if err != nil {
		return "", fail(out, err)
	}
	return e.ID, nil
}

// findDoc resolves a node ID or path in snap.
func findDoc(snap *index.Snapshot, ref string) (int, error) {
	for _, field := range []string{index.FieldUUID, index.FieldPath} {
		p, err := snap.Postings(field, ref)
		if err != nil {
			return -1, err
		}
		if doc := p.NextMember(0); doc >= 0 {
			return doc, nil
		}
	}
	return -1, fmt.Errorf("%s: %w", ref, store.ErrNodeNotFound)
}

func explanationMarkdown(res explainOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", res.Path)
	if !res.Match {
		sb.WriteString("*No match.*\n\n")
	}
	writeExplanation(&sb, res.Explanation, 0)
	return sb.String()
}

func writeExplanation(sb *strings.Builder, e *search.Explanation, depth int) {
	if e == nil {
		return
	}
	desc := e.Description
	if desc == "" {
		desc = "constant score"
	}
	fmt.Fprintf(sb, "%s- **%g** %s\n", strings.Repeat("  ", depth), e.Value, desc)
	for _, d := range e.Details {
		writeExplanation(sb, d, depth+1)
	}
}

func init() {
	explainCmd.Flags().StringVar(&explainNode, "node", "", "Node ID or path to explain")
	explainCmd.Flags().IntVar(&explainResult, "result", 0, "Row number from the last query to explain")
	explainCmd.MarkFlagsMutuallyExclusive("node", "result")
	rootCmd.AddCommand(explainCmd)
}
