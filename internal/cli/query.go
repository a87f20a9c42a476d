package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/lastresults"
	"github.com/aidanlsb/corvid/internal/results"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/ui"
)

var (
	queryOffset    int
	queryLimit     int
	queryDocOrder  bool
	queryFetchSize int
)

// QueryRow is one row of JSON query output.
type QueryRow struct {
	ID     string            `json:"id"`
	Score  float32           `json:"score"`
	Values map[string]string `json:"values"`
}

// QueryResult is the JSON query output.
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    []QueryRow `json:"rows"`
}

var queryCmd = &cobra.Command{
	Use:   "query <file|->",
	Short: "Run a query document",
	Long: `Runs a YAML query document against the repository. Use "-" to read the
document from stdin.

A document selects nodes through path steps and predicates:

  select: ["@path", title, "@score"]
  from:
    - child: projects
    - child: "*"
      where: {type: project}
    - deref: {property: owner}
  where:
    - contains: {text: "launch"}
  order:
    - {property: "@score", descending: true}

Results come back by relevance, or in storage order with --doc-order.

Examples:
  cvd query owners.yaml
  cvd query owners.yaml --offset 20 --limit 10
  echo 'where: [{type: person}]' | cvd query - --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		start := time.Now()

		if queryOffset < 0 || queryLimit < 0 {
			return handleError(out, ErrInvalidInput, fmt.Errorf("--offset and --limit must not be negative"), "")
		}
		plan, err := compileQuery(cmd, args[0])
		if err != nil {
			return err
		}

		x, s, err := openIndex(ctx, queryFetchSize)
		if err != nil {
			return handleError(out, ErrStoreError, err, "")
		}
		defer s.Close()

		opts := results.Options{
			Columns:       plan.Columns,
			DocumentOrder: cfg.Search.DocumentOrder,
			Offset:        queryOffset,
			Limit:         queryLimit,
			FetchSize:     queryFetchSize,
			Logger:        logger,
		}
		if cmd.Flags().Changed("doc-order") {
			opts.DocumentOrder = queryDocOrder
		}
		for i, p := range plan.OrderProperties {
			opts.OrderBy = append(opts.OrderBy, results.OrderSpec{Column: p, Descending: plan.OrderDescending[i]})
		}

		res, err := results.New(ctx, x, newSession(), plan.Query, opts)
		if err != nil {
			code, _ := classify(err)
			if code == ErrInternal {
				code = ErrQueryFailed
			}
			return handleError(out, code, err, "")
		}
		defer res.Close()

		columns := res.ColumnNames()
		qr := QueryResult{Columns: columns, Rows: []QueryRow{}}
		last := &lastresults.LastResults{Query: args[0], Columns: columns, Timestamp: time.Now().UTC()}
		for row, err := range res.All() {
			if err != nil {
				return handleError(out, ErrQueryFailed, err, "")
			}
			values := make(map[string]string, len(columns))
			for i, c := range columns {
				values[c] = row.Value(i)
			}
			qr.Rows = append(qr.Rows, QueryRow{ID: row.NodeID, Score: row.Score, Values: values})
			last.Entries = append(last.Entries, lastresults.Entry{
				Num:  queryOffset + len(qr.Rows),
				ID:   row.NodeID,
				Path: row.Path(),
			})
		}
		elapsed := time.Since(start).Milliseconds()

		if err := lastresults.Write(filepath.Join(resolvedRepo, store.DirName), last); err != nil {
			logger.Warn("could not save last results", "error", err)
		}

		if jsonOutput {
			return outputSuccess(out, qr, &Meta{Count: len(qr.Rows), QueryTimeMs: elapsed})
		}
		if len(qr.Rows) == 0 {
			fmt.Fprintln(out, ui.Hint("No results."))
			return nil
		}
		tbl := ui.NewResultsTable(ui.NewDisplayContext(out), columns)
		for i, row := range qr.Rows {
			cells := make([]string, len(columns))
			for j, c := range columns {
				cells[j] = row.Values[c]
			}
			tbl.AddRow(queryOffset+i+1, cells)
		}
		fmt.Fprintln(out, tbl.Render())
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("%s in %dms", ui.Count(len(qr.Rows), "row", "rows"), elapsed)))
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "Skip this many results")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Return at most this many results (0 = all)")
	queryCmd.Flags().BoolVar(&queryDocOrder, "doc-order", false, "Return results in storage order instead of by relevance")
	queryCmd.Flags().IntVar(&queryFetchSize, "fetch-size", 0, "Hits fetched per batch (default from config)")
	rootCmd.AddCommand(queryCmd)
}
