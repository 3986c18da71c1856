package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{name: "plan", cmd: NewPlanCommand(), use: "plan <canvas-file>", flags: []string{"tie-break", "levels", "watch", "save"}},
		{name: "validate", cmd: NewValidateCommand(), use: "validate <canvas-file>"},
		{name: "canvas", cmd: NewCanvasCommand(), use: "canvas"},
		{name: "connection", cmd: NewConnectionCommand(), use: "connection"},
		{name: "schema", cmd: NewSchemaCommand(), use: "schema <connection-id>", flags: []string{"table"}},
		{name: "serve", cmd: NewServeCommand(), use: "serve", flags: []string{"addr", "canvas-dir", "watch"}},
		{name: "version", cmd: NewVersionCommand("test"), use: "version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestSubcommands(t *testing.T) {
	tests := []struct {
		parent *cobra.Command
		want   []string
	}{
		{parent: NewCanvasCommand(), want: []string{"list", "show", "import", "export", "runs"}},
		{parent: NewConnectionCommand(), want: []string{"add", "list", "remove"}},
	}

	for _, tt := range tests {
		t.Run(tt.parent.Name(), func(t *testing.T) {
			for _, name := range tt.want {
				sub, _, err := tt.parent.Find([]string{name})
				require.NoError(t, err)
				assert.Equal(t, name, sub.Name())
			}
		})
	}
}

func TestConnectionAddRequiredFlags(t *testing.T) {
	cmd := newConnectionAddCommand()
	for _, flag := range []string{"type", "host", "database"} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f)
		assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag], "flag %q should be required", flag)
	}
}
