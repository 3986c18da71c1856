package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/state"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces editor write bursts before re-planning.
const watchDebounce = 100 * time.Millisecond

// PlanOptions holds options for the plan command.
type PlanOptions struct {
	TieBreak string
	Levels   bool
	Watch    bool
	Save     bool
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan <canvas-file>",
		Short: "Schedule the joins of a canvas",
		Long: `Compute the execution plan for a canvas file.

Tables are split into independent join groups. Inside each group every
table comes after the tables it is joined from, so the joins can be
applied in order. Cycles and joins to unknown tables are reported
instead of a plan.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Plan a canvas
  querycanvas plan canvases/sales.yaml

  # Deterministic order regardless of placement order
  querycanvas plan canvases/sales.yaml --tie-break lexical

  # Show dependency levels inside each group
  querycanvas plan canvases/sales.yaml --levels

  # Store the canvas and record the run
  querycanvas plan canvases/sales.yaml --save

  # Re-plan whenever the file changes
  querycanvas plan canvases/sales.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.TieBreak, "tie-break", "", "Order among ready tables (input|lexical)")
	cmd.Flags().BoolVar(&opts.Levels, "levels", false, "Show dependency levels inside each group")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-plan when the file changes")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the canvas and record the plan run")

	_ = cmd.RegisterFlagCompletionFunc("tie-break", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(dag.TieBreakInput), string(dag.TieBreakLexical)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runPlan(cmd *cobra.Command, path string, opts *PlanOptions) error {
	cmdCtx := NewCommandContext(cmd)

	planOpts, err := cmdCtx.PlanOptions(opts.TieBreak, opts.Levels)
	if err != nil {
		return err
	}

	// store stays a nil interface unless --save is given.
	var store state.Store
	if opts.Save {
		sqlite, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer func() { _ = sqlite.Close() }()
		store = sqlite
	}

	planErr := planFile(cmdCtx, store, path, planOpts)
	if !opts.Watch {
		if isPlanError(planErr) {
			return reported(planErr)
		}
		return planErr
	}
	return watchPlan(cmd.Context(), cmdCtx, store, path, planOpts)
}

// planFile loads, plans and renders one canvas file. Plan failures are
// rendered and also returned.
func planFile(cmdCtx *CommandContext, store state.Store, path string, planOpts []dag.Option) error {
	doc, err := canvas.Load(path)
	if err != nil {
		return err
	}

	plan, planErr := doc.Plan(planOpts...)

	if store != nil {
		saved, err := store.SaveCanvas(doc)
		if err != nil {
			return err
		}
		run, err := store.RecordPlanRun(state.NewPlanRun(saved.ID, plan, planErr))
		if err != nil {
			return fmt.Errorf("failed to record plan run: %w", err)
		}
		cmdCtx.Logger.Debug("recorded plan run", "canvas", saved.Name, "run", run.ID, "status", run.Status)
	}

	if err := renderPlan(cmdCtx.Renderer, doc, plan, planErr); err != nil {
		return err
	}
	return planErr
}

// watchPlan re-plans path on every change until ctx is cancelled.
func watchPlan(ctx context.Context, cmdCtx *CommandContext, store state.Store, path string, planOpts []dag.Option) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	r := cmdCtx.Renderer
	r.Println(r.Styles().Muted.Render("Watching " + path + " (Ctrl+C to stop)"))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(watchDebounce)

		case <-pending:
			pending = nil
			r.Println("")
			if err := planFile(cmdCtx, store, path, planOpts); err != nil {
				cmdCtx.Logger.Debug("re-plan failed", "file", path, "error", err)
				if !isPlanError(err) {
					r.Error(err.Error())
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Error("watcher error", "error", err)
		}
	}
}
