package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/state"
)

// isPlanError reports whether err came from the scheduler rather than I/O.
func isPlanError(err error) bool {
	return errors.Is(err, dag.ErrCycleDetected) ||
		errors.Is(err, dag.ErrMalformedGraph) ||
		errors.Is(err, dag.ErrGraphTooLarge)
}

// reportedError marks a failure the command has already rendered.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// reported wraps err so Execute does not print it a second time.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// newPlanOutput converts a scheduling result into its output shape.
func newPlanOutput(doc *canvas.Document, plan *dag.Plan, err error) output.PlanOutput {
	out := output.PlanOutput{OK: err == nil, Canvas: doc.Name}
	if err != nil {
		out.Error = string(state.StatusOf(err))
		out.Detail = err.Error()
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			out.Unvisited = cycle.Unvisited
		}
		return out
	}

	out.Groups = make([][]output.PlanNode, len(plan.Groups))
	for i, group := range plan.Groups {
		nodes := make([]output.PlanNode, 0, len(group))
		for _, id := range group {
			n, _ := doc.Node(id)
			nodes = append(nodes, output.PlanNode{ID: id, Table: n.Table})
		}
		out.Groups[i] = nodes
	}
	out.Order = plan.Order
	out.Levels = plan.Levels
	return out
}

func renderPlan(r *output.Renderer, doc *canvas.Document, plan *dag.Plan, planErr error) error {
	out := newPlanOutput(doc, plan, planErr)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		planMarkdown(r, doc, out)
	default:
		planText(r, doc, out)
	}
	return nil
}

func planTitle(out output.PlanOutput) string {
	if out.Canvas == "" {
		return "Join Plan"
	}
	return "Join Plan: " + out.Canvas
}

// tableSuffix shows the table name when it differs from the node id.
func tableSuffix(n output.PlanNode) string {
	if n.Table == "" || n.Table == n.ID {
		return ""
	}
	return " (" + n.Table + ")"
}

// planText outputs the plan in styled text format.
func planText(r *output.Renderer, doc *canvas.Document, out output.PlanOutput) {
	styles := r.Styles()

	r.Header(1, planTitle(out))

	if !out.OK {
		r.Error(out.Detail)
		if len(out.Unvisited) > 0 {
			r.Printf("  %s %s\n", styles.Muted.Render("unresolved:"), strings.Join(out.Unvisited, ", "))
		}
		return
	}

	for i, group := range out.Groups {
		r.Println(styles.Header2.Render(fmt.Sprintf("Group %d", i+1)))
		for j, n := range group {
			r.Printf("  %2d. %s%s\n", j+1, styles.Node.Render(n.ID), styles.Muted.Render(tableSuffix(n)))
		}
		if i < len(out.Levels) {
			for k, level := range out.Levels[i] {
				r.Printf("    %s %s\n", styles.Muted.Render(fmt.Sprintf("level %d:", k)), strings.Join(level, ", "))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d tables, %d joins, %d groups",
		len(doc.Nodes), len(doc.Edges), len(out.Groups))))
}

// planMarkdown outputs the plan in markdown format.
func planMarkdown(r *output.Renderer, doc *canvas.Document, out output.PlanOutput) {
	r.Println(output.FormatHeader(1, planTitle(out)))
	r.Println("")

	if !out.OK {
		r.Error(out.Detail)
		if len(out.Unvisited) > 0 {
			r.Printf("- unresolved: %s\n", strings.Join(out.Unvisited, ", "))
		}
		return
	}

	for i, group := range out.Groups {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Group %d", i+1)))
		for j, n := range group {
			r.Printf("%d. `%s`%s\n", j+1, n.ID, tableSuffix(n))
		}
		if i < len(out.Levels) {
			r.Println("")
			for k, level := range out.Levels[i] {
				r.Printf("- level %d: %s\n", k, strings.Join(level, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", len(doc.Nodes))))
	r.Println(output.FormatKeyValue("Joins", fmt.Sprintf("%d", len(doc.Edges))))
	r.Println(output.FormatKeyValue("Groups", fmt.Sprintf("%d", len(out.Groups))))
}
