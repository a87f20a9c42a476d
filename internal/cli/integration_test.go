//go:build integration

package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aidanlsb/corvid/internal/testutil"
)

// TestIntegration_ImportAndQuery drives the built binary through a full
// init, import and query cycle.
func TestIntegration_ImportAndQuery(t *testing.T) {
	r := testutil.NewTestRepo(t).WithNotes().Build()

	r.RunCLI("init").MustSucceed(t)
	result := r.RunCLI("import", r.Source).MustSucceed(t)
	assert.Equal(t, float64(7), result.DataNumber("nodes"))

	q := r.WriteQuery("owners.yaml", "select: ['@path']\n"+
		"from:\n  - child: projects\n  - child: '*'\n  - deref: {property: owner}\n")
	result = r.RunCLI("query", q, "--doc-order").MustSucceed(t)
	result.AssertRowCount(t, 2)
	assert.Equal(t, []string{"/people/ada", "/people/alan"}, result.Column("@path"))
}

func TestIntegration_QueryFromStdin(t *testing.T) {
	r := testutil.NewTestRepo(t).WithNotes().Build()
	r.RunCLI("init").MustSucceed(t)
	r.RunCLI("import", r.Source).MustSucceed(t)

	result := r.RunCLIWithStdin("select: ['@path']\nwhere: {contains: machine}\n", "query", "-")
	result.MustSucceed(t)
	assert.Equal(t, []string{"/projects/bombe"}, result.Column("@path"))
}

func TestIntegration_ReimportUpdatesNodes(t *testing.T) {
	r := testutil.NewTestRepo(t).WithNotes().Build()
	r.RunCLI("init").MustSucceed(t)
	r.RunCLI("import", r.Source).MustSucceed(t)

	r.WriteSource("projects/bombe.md", "---\ntype: project\nstatus: open\n---\n# Bombe\n")
	r.RunCLI("import", r.Source).MustSucceed(t)

	q := r.WriteQuery("open.yaml", "select: ['@path']\nwhere: {eq: {property: status, value: open}}\n")
	result := r.RunCLI("query", q, "--doc-order").MustSucceed(t)
	assert.Equal(t, []string{"/projects/bombe", "/projects/engine"}, result.Column("@path"))
}

func TestIntegration_Errors(t *testing.T) {
	r := testutil.NewTestRepo(t).WithNotes().Build()
	r.RunCLI("init").MustSucceed(t)

	r.RunCLI("explain", r.WriteQuery("q.yaml", "where: {type: person}\n"), "--node", "/nobody").
		MustFail(t, "NODE_NOT_FOUND")
	r.RunCLI("import", r.Source+"/readme.md").MustFail(t, "IMPORT_FAILED")
}
