package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/engine"
	"github.com/aidanlsb/corvid/internal/query"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/store"
	"github.com/aidanlsb/corvid/internal/translate"
)

// readQuery decodes the query document named by arg; "-" reads stdin.
func readQuery(cmd *cobra.Command, arg string) (*query.Root, error) {
	var r io.Reader
	if arg == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return query.Decode(r)
}

// compileQuery reads and compiles a query document, reporting failures
// with the matching error code.
func compileQuery(cmd *cobra.Command, arg string) (*translate.Plan, error) {
	out := cmd.OutOrStdout()
	root, err := readQuery(cmd, arg)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, handleError(out, ErrFileReadError, err, "")
		}
		return nil, fail(out, err)
	}
	plan, err := translate.Compile(root)
	if err != nil {
		return nil, fail(out, err)
	}
	if logger.Enabled(cmd.Context(), slog.LevelDebug) {
		if dump, err := query.Dump(root); err == nil {
			logger.Debug("query compiled", "ast", dump, "plan", plan.Query.String())
		}
	}
	return plan, nil
}

// openIndex builds a search index over the repository's store. The caller
// closes the store.
func openIndex(ctx context.Context, fetchSize int) (*engine.SearchIndex, *store.Store, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	if fetchSize <= 0 {
		fetchSize = cfg.Search.ResultFetchSize
	}
	x, err := engine.New(ctx, s, engine.Options{ResultFetchSize: fetchSize, Logger: logger})
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("build index: %w", err)
	}
	return x, s, nil
}

// sessionUser names the querying user for logs.
func sessionUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return "cvd"
}

func newSession() search.Session {
	return search.NewSession(sessionUser())
}
