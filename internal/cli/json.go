package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Global JSON output flag
var jsonOutput bool

// errReported marks an error already written as a JSON envelope.
var errReported = errors.New("error reported")

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`
	Meta  *Meta      `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Count       int   `json:"count,omitempty"`
	Total       int   `json:"total,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

func outputJSON(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// outputSuccess writes a successful JSON response.
func outputSuccess(w io.Writer, data any, meta *Meta) error {
	return outputJSON(w, Response{OK: true, Data: data, Meta: meta})
}

// handleError reports err according to the output mode. In JSON mode the
// envelope is written to w and errReported returned, so the process still
// exits non-zero without printing twice.
func handleError(w io.Writer, code string, err error, suggestion string) error {
	if !jsonOutput {
		if suggestion != "" {
			return fmt.Errorf("%w\n\n%s", err, suggestion)
		}
		return err
	}
	_ = outputJSON(w, Response{
		OK:    false,
		Error: &ErrorInfo{Code: code, Message: err.Error(), Suggestion: suggestion},
	})
	return errReported
}

// fail classifies err and reports it.
func fail(w io.Writer, err error) error {
	code, suggestion := classify(err)
	return handleError(w, code, err, suggestion)
}
