package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	// binaryPath caches the path to the built cvd binary.
	binaryPath string
	buildMu    sync.Mutex
	buildErr   error
)

// CLIResult is the parsed JSON envelope of one cvd invocation.
type CLIResult struct {
	OK       bool
	Data     map[string]any
	Error    *CLIError
	Meta     *CLIMeta
	RawJSON  string
	Stderr   string
	ExitCode int
}

// CLIError is a structured error from the CLI.
type CLIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CLIMeta contains metadata from the response.
type CLIMeta struct {
	Count       int   `json:"count,omitempty"`
	Total       int   `json:"total,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

// BuildCLI builds the cvd binary once per test process and returns its path.
func BuildCLI(t testing.TB) string {
	t.Helper()

	buildMu.Lock()
	defer buildMu.Unlock()

	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err == nil {
			return binaryPath
		}
		// temp cleanup on some runners removes it
		binaryPath = ""
		buildErr = nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		buildErr = err
	} else {
		tmpDir, err := os.MkdirTemp("", "cvd-cli-bin-*")
		if err != nil {
			buildErr = err
		} else {
			binName := "cvd"
			if runtime.GOOS == "windows" {
				binName = "cvd.exe"
			}
			binaryPath = filepath.Join(tmpDir, binName)
			cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cvd")
			cmd.Dir = projectRoot
			if output, err := cmd.CombinedOutput(); err != nil {
				buildErr = &BuildError{Output: string(output), Err: err}
				binaryPath = ""
			}
		}
	}

	if buildErr != nil {
		t.Fatalf("failed to build CLI: %v", buildErr)
	}
	return binaryPath
}

// BuildError is an error building the CLI binary.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return e.Err.Error() + "\n" + e.Output
}

// findProjectRoot walks up the directory tree to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// RunCLI runs cvd against the repository with --json and parses the result.
func (r *TestRepo) RunCLI(args ...string) *CLIResult {
	r.t.Helper()
	return r.run(nil, args...)
}

// RunCLIWithStdin runs cvd with stdin attached.
func (r *TestRepo) RunCLIWithStdin(stdin string, args ...string) *CLIResult {
	r.t.Helper()
	return r.run(strings.NewReader(stdin), args...)
}

func (r *TestRepo) run(stdin io.Reader, args ...string) *CLIResult {
	r.t.Helper()
	binary := BuildCLI(r.t)

	cmdArgs := append([]string{"--repo", r.Path, "--config", r.Config, "--json"}, args...)
	cmd := exec.Command(binary, cmdArgs...)
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	result := &CLIResult{RawJSON: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	var resp struct {
		OK    bool           `json:"ok"`
		Data  map[string]any `json:"data,omitempty"`
		Error *CLIError      `json:"error,omitempty"`
		Meta  *CLIMeta       `json:"meta,omitempty"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		result.Error = &CLIError{
			Code:    "PARSE_ERROR",
			Message: "failed to parse JSON output: " + err.Error() + "; stderr: " + stderr.String(),
		}
		return result
	}
	result.OK = resp.OK
	result.Data = resp.Data
	result.Error = resp.Error
	result.Meta = resp.Meta
	return result
}

// MustSucceed fails the test if the command did not succeed.
func (r *CLIResult) MustSucceed(t testing.TB) *CLIResult {
	t.Helper()
	if !r.OK {
		errMsg := "unknown error"
		if r.Error != nil {
			errMsg = r.Error.Code + ": " + r.Error.Message
		}
		t.Fatalf("expected command to succeed, got error: %s\nRaw output: %s", errMsg, r.RawJSON)
	}
	return r
}

// MustFail fails the test unless the command failed with expectedCode.
func (r *CLIResult) MustFail(t testing.TB, expectedCode string) *CLIResult {
	t.Helper()
	if r.OK {
		t.Fatalf("expected command to fail with code %s, but it succeeded\nRaw output: %s", expectedCode, r.RawJSON)
	}
	if r.Error == nil {
		t.Fatalf("expected error with code %s, but error is nil\nRaw output: %s", expectedCode, r.RawJSON)
	}
	if r.Error.Code != expectedCode {
		t.Fatalf("expected error code %s, got %s: %s", expectedCode, r.Error.Code, r.Error.Message)
	}
	if r.ExitCode == 0 {
		t.Fatalf("expected non-zero exit code for %s", expectedCode)
	}
	return r
}

// DataList extracts a list from the Data field.
func (r *CLIResult) DataList(key string) []any {
	if list, ok := r.Data[key].([]any); ok {
		return list
	}
	return nil
}

// DataString extracts a string from the Data field.
func (r *CLIResult) DataString(key string) string {
	if s, ok := r.Data[key].(string); ok {
		return s
	}
	return ""
}

// DataNumber extracts a number from the Data field.
func (r *CLIResult) DataNumber(key string) float64 {
	if n, ok := r.Data[key].(float64); ok {
		return n
	}
	return 0
}
