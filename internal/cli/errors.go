package cli

import (
	"errors"

	"github.com/aidanlsb/corvid/internal/config"
	"github.com/aidanlsb/corvid/internal/ingest"
	"github.com/aidanlsb/corvid/internal/lastresults"
	"github.com/aidanlsb/corvid/internal/query"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/store"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrConfigInvalid    = "CONFIG_INVALID"
	ErrRepoNotSpecified = "REPO_NOT_SPECIFIED"
	ErrRepoNotFound     = "REPO_NOT_FOUND"
	ErrStoreError       = "STORE_ERROR"
	ErrStoreLocked      = "STORE_LOCKED"
	ErrNodeNotFound     = "NODE_NOT_FOUND"
	ErrImportFailed     = "IMPORT_FAILED"
	ErrFileReadError    = "FILE_READ_ERROR"
	ErrQueryInvalid     = "QUERY_INVALID"
	ErrQueryUnsupported = "QUERY_UNSUPPORTED"
	ErrQueryFailed      = "QUERY_FAILED"
	ErrNoLastResults    = "NO_LAST_RESULTS"
	ErrInvalidInput     = "INVALID_INPUT"
	ErrInternal         = "INTERNAL_ERROR"
)

// errNotInitialized indicates the repository has no store yet.
var errNotInitialized = errors.New("repository is not initialized")

func classify(err error) (code, suggestion string) {
	switch {
	case errors.Is(err, config.ErrNoRepository):
		return ErrRepoNotSpecified, "Use --repo <path|name> or set [repository] default in config.toml"
	case errors.Is(err, errNotInitialized):
		return ErrRepoNotFound, "Run 'cvd init' in the repository first"
	case errors.Is(err, store.ErrStoreLocked):
		return ErrStoreLocked, "Another cvd process is writing to this repository"
	case errors.Is(err, store.ErrNodeNotFound):
		return ErrNodeNotFound, ""
	case errors.Is(err, lastresults.ErrNoLastResults):
		return ErrNoLastResults, "Run 'cvd query' first"
	case errors.Is(err, lastresults.ErrNumberOutOfRange), errors.Is(err, lastresults.ErrInvalidNumber):
		return ErrInvalidInput, ""
	case errors.Is(err, ingest.ErrDuplicateID), errors.Is(err, ingest.ErrNotDirectory):
		return ErrImportFailed, ""
	case errors.Is(err, query.ErrInvalidQuery):
		return ErrQueryInvalid, ""
	case errors.Is(err, query.ErrUnsupportedNode):
		return ErrQueryUnsupported, ""
	case errors.Is(err, search.ErrConcurrentScorerUse), errors.Is(err, search.ErrRewriteLoop):
		return ErrInternal, ""
	}
	return ErrInternal, ""
}
