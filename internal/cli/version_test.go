package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/buildinfo"
)

func stubBuildInfo(t *testing.T, fn func() (*debug.BuildInfo, bool)) {
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = fn
}

func TestCurrentVersionInfoFromBuildInfo(t *testing.T) {
	stubBuildInfo(t, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.23.4",
			Main:      debug.Module{Path: "github.com/aidanlsb/corvid", Version: "v1.2.3"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-02-14T17:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	})

	info := currentVersionInfo()
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "github.com/aidanlsb/corvid", info.ModulePath)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2026-02-14T17:00:00Z", info.CommitTime)
	assert.True(t, info.Modified)
	assert.Equal(t, "go1.23.4", info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestCurrentVersionInfoFallsBackToLdflags(t *testing.T) {
	stubBuildInfo(t, func() (*debug.BuildInfo, bool) { return nil, false })
	prevVersion, prevCommit := buildinfo.Version, buildinfo.Commit
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit = prevVersion, prevCommit })

	info := currentVersionInfo()
	assert.Equal(t, "devel", info.Version)
	assert.Equal(t, defaultModulePath, info.ModulePath)
	assert.Equal(t, runtime.Version(), info.GoVersion)

	buildinfo.Version, buildinfo.Commit = "v0.4.0", "feedface"
	info = currentVersionInfo()
	assert.Equal(t, "0.4.0", info.Version)
	assert.Equal(t, "feedface", info.Commit)
}

func TestVersionCommandJSONOutput(t *testing.T) {
	stubBuildInfo(t, func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main:     debug.Module{Path: "github.com/aidanlsb/corvid", Version: "(devel)"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}},
		}, true
	})

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))

	out, err := execute(t, "", "version", "--json", "--config", cfgPath)
	require.NoError(t, err)

	var resp struct {
		OK   bool        `json:"ok"`
		Data versionInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.True(t, resp.OK)
	assert.Equal(t, "devel", resp.Data.Version)
	assert.Equal(t, "deadbeef", resp.Data.Commit)
}
