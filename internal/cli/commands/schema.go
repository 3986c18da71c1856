package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var tables []string

	cmd := &cobra.Command{
		Use:   "schema <connection-id>",
		Short: "List the tables and columns behind a connection",
		Long: `Connect to a stored connection and list its tables and columns.

For MySQL the connection's database is read; for PostgreSQL the public
schema is read.`,
		Example: `  querycanvas schema 3f2a...
  querycanvas schema 3f2a... --table customers --table orders
  querycanvas schema 3f2a... -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args[0], tables)
		},
	}

	cmd.Flags().StringSliceVar(&tables, "table", nil, "Only show these tables")
	return cmd
}

func runSchema(cmd *cobra.Command, connID string, only []string) error {
	cmdCtx := NewCommandContext(cmd)

	box, err := cmdCtx.SecretBox()
	if err != nil {
		return err
	}

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	conn, err := store.GetConnection(connID)
	if err != nil {
		return fmt.Errorf("connection %q: %w", connID, err)
	}
	info, err := conn.ConnInfo(box)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), info)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", conn.Name, err)
	}
	defer func() { _ = db.Close() }()

	sch, err := schema.Introspect(cmd.Context(), db, info.Dialect, info.DefaultSchema())
	if err != nil {
		return err
	}
	filterTables(sch, only)

	return renderSchema(cmdCtx.Renderer, conn.Name, sch)
}

// filterTables drops every table not named in only. An empty list keeps all.
func filterTables(sch *schema.Schema, only []string) {
	if len(only) == 0 {
		return
	}
	keep := make(map[string]bool, len(only))
	for _, name := range only {
		keep[strings.ToLower(name)] = true
	}
	for name := range sch.Tables {
		if !keep[strings.ToLower(name)] {
			delete(sch.Tables, name)
		}
	}
}

func renderSchema(r *output.Renderer, connName string, sch *schema.Schema) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(sch)
	}

	r.Header(1, fmt.Sprintf("Schema: %s (%s)", connName, sch.Name))
	names := sch.TableNames()
	if len(names) == 0 {
		r.Println("No tables found.")
		return nil
	}

	for _, name := range names {
		r.Header(2, name)
		rows := make([][]string, 0, len(sch.Tables[name].Columns))
		for _, c := range sch.Tables[name].Columns {
			rows = append(rows, []string{c.Name, c.Type, yesNo(c.Nullable), yesNo(c.IsPrimaryKey)})
		}
		r.Table([]string{"Column", "Type", "Nullable", "Primary Key"}, rows)
		r.Println("")
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
