package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/buildinfo"
)

const defaultModulePath = "github.com/aidanlsb/corvid"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show cvd version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := currentVersionInfo()
		if jsonOutput {
			return outputSuccess(out, info, nil)
		}

		fmt.Fprintf(out, "cvd %s\n", info.Version)
		fmt.Fprintf(out, "module: %s\n", info.ModulePath)
		if info.Commit != "" {
			fmt.Fprintf(out, "commit: %s\n", info.Commit)
		}
		if info.CommitTime != "" {
			fmt.Fprintf(out, "commit_time: %s\n", info.CommitTime)
		}
		fmt.Fprintf(out, "go: %s\n", info.GoVersion)
		fmt.Fprintf(out, "platform: %s\n", info.Platform)
		if info.Modified {
			fmt.Fprintln(out, "modified: true")
		}
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				info.CommitTime = s.Value
			case "vcs.modified":
				info.Modified = strings.EqualFold(s.Value, "true")
			}
		}
	}

	// ldflags from release builds fill what the build info lacks
	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
	return info
}

func normalizeVersion(v string) string {
	if v == "" || v == "(devel)" {
		return "devel"
	}
	return strings.TrimPrefix(v, "v")
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
