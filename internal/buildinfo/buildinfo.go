// Package buildinfo holds release metadata injected with -ldflags -X.
package buildinfo

// Empty for local builds; `cvd version` then relies on debug.ReadBuildInfo.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
