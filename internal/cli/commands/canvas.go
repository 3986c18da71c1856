package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/leapstack-labs/querycanvas/internal/state"
	"github.com/spf13/cobra"
)

// timeLayout is how timestamps are printed in listings.
const timeLayout = "2006-01-02 15:04:05"

// NewCanvasCommand creates the canvas command group.
func NewCanvasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Manage saved canvases",
		Long: `Work with canvases stored in the state database.

Canvases are saved by "plan --save", by "canvas import" and by the API
server. A canvas can be referenced by id or by name.`,
	}

	cmd.AddCommand(newCanvasListCommand())
	cmd.AddCommand(newCanvasShowCommand())
	cmd.AddCommand(newCanvasImportCommand())
	cmd.AddCommand(newCanvasExportCommand())
	cmd.AddCommand(newCanvasRunsCommand())

	return cmd
}

func newCanvasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved canvases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				canvases, err := store.ListCanvases()
				if err != nil {
					return err
				}
				return renderCanvasList(cmdCtx.Renderer, canvases)
			})
		},
	}
}

func newCanvasShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <canvas>",
		Short: "Show the tables and joins of a canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				c, err := store.GetCanvas(args[0])
				if err != nil {
					return fmt.Errorf("canvas %q: %w", args[0], err)
				}
				return renderCanvas(cmdCtx.Renderer, c)
			})
		},
	}
}

func newCanvasImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <canvas-file>",
		Short: "Save a canvas file to the state database",
		Long: `Save a canvas file to the state database.

The canvas name comes from --name, then from the file's name field, then
from the file name. Importing under an existing name replaces that canvas.`,
		Example: `  querycanvas canvas import canvases/sales.yaml
  querycanvas canvas import draft.json --name sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				doc, err := canvas.Load(args[0])
				if err != nil {
					return err
				}
				if name != "" {
					doc.Name = name
				}
				saved, err := store.SaveCanvas(doc)
				if err != nil {
					return err
				}
				if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
					return cmdCtx.Renderer.JSON(canvasSummary(saved))
				}
				cmdCtx.Renderer.Success(fmt.Sprintf("Saved canvas %s (%s)", saved.Name, saved.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name to save the canvas under")
	return cmd
}

func newCanvasExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <canvas> <file>",
		Short: "Write a saved canvas to a file",
		Long: `Write a saved canvas to a file. The format follows the extension:
.json writes JSON, anything else writes YAML.`,
		Example: `  querycanvas canvas export sales canvases/sales.yaml`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				c, err := store.GetCanvas(args[0])
				if err != nil {
					return fmt.Errorf("canvas %q: %w", args[0], err)
				}
				if err := canvas.Save(args[1], c.Document); err != nil {
					return err
				}
				cmdCtx.Renderer.Success(fmt.Sprintf("Wrote %s to %s", c.Name, args[1]))
				return nil
			})
		},
	}
}

func newCanvasRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <canvas>",
		Short: "Show the plan history of a canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				c, err := store.GetCanvas(args[0])
				if err != nil {
					return fmt.Errorf("canvas %q: %w", args[0], err)
				}
				runs, err := store.ListPlanRuns(c.ID, limit)
				if err != nil {
					return err
				}
				return renderRuns(cmdCtx.Renderer, c.Name, runs)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

// withStore opens the state database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*CommandContext, state.Store) error) error {
	cmdCtx := NewCommandContext(cmd)
	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(cmdCtx, store)
}

func canvasSummary(c *state.Canvas) output.CanvasSummary {
	return output.CanvasSummary{
		ID:           c.ID,
		Name:         c.Name,
		ConnectionID: c.ConnectionID,
		Tables:       len(c.Document.Nodes),
		Joins:        len(c.Document.Edges),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
}

func renderCanvasList(r *output.Renderer, canvases []*state.Canvas) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]output.CanvasSummary, 0, len(canvases))
		for _, c := range canvases {
			out = append(out, canvasSummary(c))
		}
		return r.JSON(out)
	}

	r.Header(1, "Canvases")
	if len(canvases) == 0 {
		r.Println("No canvases saved.")
		return nil
	}

	rows := make([][]string, 0, len(canvases))
	for _, c := range canvases {
		rows = append(rows, []string{
			c.Name,
			c.ID,
			strconv.Itoa(len(c.Document.Nodes)),
			strconv.Itoa(len(c.Document.Edges)),
			c.UpdatedAt.Local().Format(timeLayout),
		})
	}
	r.Table([]string{"Name", "ID", "Tables", "Joins", "Updated"}, rows)
	return nil
}

func renderCanvas(r *output.Renderer, c *state.Canvas) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(c)
	}

	r.Header(1, "Canvas: "+c.Name)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("ID", c.ID))
		if c.ConnectionID != "" {
			r.Println(output.FormatKeyValue("Connection", c.ConnectionID))
		}
		r.Println("")
	} else {
		r.Printf("%s %s\n", r.Styles().Muted.Render("id:"), c.ID)
		if c.ConnectionID != "" {
			r.Printf("%s %s\n", r.Styles().Muted.Render("connection:"), c.ConnectionID)
		}
		r.Println("")
	}

	doc := c.Document
	r.Header(2, "Tables")
	if len(doc.Nodes) == 0 {
		r.Println("No tables placed.")
	} else {
		rows := make([][]string, 0, len(doc.Nodes))
		for _, n := range doc.Nodes {
			rows = append(rows, []string{n.ID, n.Table, strconv.Itoa(len(n.Columns))})
		}
		r.Table([]string{"ID", "Table", "Columns"}, rows)
	}
	r.Println("")

	r.Header(2, "Joins")
	if len(doc.Edges) == 0 {
		r.Println("No joins drawn.")
		return nil
	}
	rows := make([][]string, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		rows = append(rows, []string{doc.Label(e.Source), string(e.JoinType), doc.Label(e.Target)})
	}
	r.Table([]string{"From", "Join", "To"}, rows)
	return nil
}

func renderRuns(r *output.Renderer, name string, runs []*state.PlanRun) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.PlanRun{}
		}
		return r.JSON(runs)
	}

	r.Header(1, "Plan runs: "+name)
	if len(runs) == 0 {
		r.Println("No plan runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.CreatedAt.Local().Format(timeLayout),
			string(run.Status),
			strconv.Itoa(len(run.Groups)),
			run.Error,
		})
	}
	r.Table([]string{"Created", "Status", "Groups", "Error"}, rows)
	return nil
}
