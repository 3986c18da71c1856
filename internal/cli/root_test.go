package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/querycanvas/internal/cli/config"
	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/leapstack-labs/querycanvas/internal/cli/testutil"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_PlanFromProject(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	out, _, err := run(t, "plan", "canvases/sales.yaml")
	require.NoError(t, err)
	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "# Join Plan: sales")
	assert.Contains(t, out, "## Group 2\n1. `p` (promotions)")

	out, _, err = run(t, "plan", "canvases/sales.yaml", "-o", "json", "--tie-break", "lexical")
	require.NoError(t, err)
	var got output.PlanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"c", "o", "i", "p"}, got.Order)
}

func TestRoot_PlanCycleFails(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	out, _, err := run(t, "plan", "canvases/loop.yaml")
	require.ErrorIs(t, err, dag.ErrCycleDetected)
	assert.Contains(t, out, "- unresolved: b, c")
}

func TestExecute_PrintsErrorsOnce(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	tests := []struct {
		name      string
		args      []string
		wantErr   error
		wantPrint bool
	}{
		{name: "plan cycle", args: []string{"plan", "canvases/loop.yaml"}, wantErr: dag.ErrCycleDetected},
		{name: "validate cycle", args: []string{"validate", "canvases/loop.yaml"}, wantErr: dag.ErrCycleDetected},
		{name: "missing file", args: []string{"plan", "canvases/missing.yaml"}, wantPrint: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.ResetConfig()
			t.Cleanup(config.ResetConfig)

			cmd := NewRootCmd()
			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs(tt.args)

			var printed bytes.Buffer
			err := execute(context.Background(), cmd, &printed)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantPrint {
				assert.Contains(t, printed.String(), "Error: ")
				return
			}
			assert.Empty(t, printed.String())
			assert.Equal(t, 1, strings.Count(out.String()+errOut.String(), "cycle detected"),
				"failure detail is rendered exactly once")
		})
	}
}

func TestRoot_StateFlag(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	_, _, err := run(t, "--state", "custom/state.db", "canvas", "import", "canvases/sales.yaml")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "custom", "state.db"))
	assert.NoError(t, err, "state database created at the flag path")
	_, err = os.Stat(filepath.Join(root, ".querycanvas", "state.db"))
	assert.True(t, os.IsNotExist(err), "configured state path unused")
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	_, errOut, err := run(t, "-v", "validate", "canvases/sales.yaml")
	require.NoError(t, err)
	assert.Contains(t, errOut, "using config file")
	assert.Contains(t, errOut, "level=DEBUG")
}

func TestRoot_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "querycanvas.yaml"), []byte("planner:\n  tie_break: random\n"), 0600))
	t.Chdir(dir)

	_, _, err := run(t, "validate", "whatever.yaml")
	assert.ErrorContains(t, err, "unknown tie-break")
}

func TestRoot_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "state", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Nil(t, cmd.PersistentFlags().Lookup("env"), "no per-environment settings exist")

	_, _, err := run(t, "--env", "prod", "version")
	assert.ErrorContains(t, err, "unknown flag: --env")
}

func TestRoot_Version(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "querycanvas v"+Version)

	out, _, err = run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "querycanvas "+Version)
}

func TestRoot_Completion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, _, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "querycanvas")
		})
	}

	_, _, err := run(t, "completion", "tcsh")
	assert.Error(t, err)
}
