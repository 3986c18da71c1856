package commands

import (
	"fmt"

	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <canvas-file>",
		Short: "Check that a canvas can be scheduled",
		Long: `Check a canvas file without printing the plan.

Exits non-zero when a join references an unknown table, when the joins
form a cycle, or when the canvas exceeds the configured limits.`,
		Example: `  querycanvas validate canvases/sales.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	planOpts, err := cmdCtx.PlanOptions("", false)
	if err != nil {
		return err
	}

	doc, err := canvas.Load(path)
	if err != nil {
		return err
	}

	plan, planErr := doc.Plan(planOpts...)

	if r.EffectiveMode() == output.ModeJSON {
		out := newPlanOutput(doc, plan, planErr)
		if err := r.JSON(output.PlanOutput{
			OK: out.OK, Canvas: out.Canvas, Error: out.Error, Detail: out.Detail, Unvisited: out.Unvisited,
		}); err != nil {
			return err
		}
		return reported(planErr)
	}

	if planErr != nil {
		r.Error(fmt.Sprintf("%s is invalid: %v", path, planErr))
		return reported(planErr)
	}
	r.Success(fmt.Sprintf("%s is valid: %d tables, %d joins, %d groups",
		path, len(doc.Nodes), len(doc.Edges), len(plan.Groups)))
	return nil
}
