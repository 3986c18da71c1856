package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/leapstack-labs/querycanvas/internal/state"
	"github.com/spf13/cobra"
)

// openDatabase dials and verifies a user database. Tests replace it.
var openDatabase = schema.Open

// ConnectionAddOptions holds options for the connection add command.
type ConnectionAddOptions struct {
	Name        string
	Type        string
	Host        string
	Port        int
	Database    string
	User        string
	PasswordEnv string
	SkipVerify  bool
}

// NewConnectionCommand creates the connection command group.
func NewConnectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn"},
		Short:   "Manage stored database connections",
		Long: `Manage the database connections used for schema introspection.

Passwords are sealed with the key from secret_key (or the
QUERYCANVAS_SECRET_KEY environment variable) before they are stored and
are never printed.`,
	}

	cmd.AddCommand(newConnectionAddCommand())
	cmd.AddCommand(newConnectionListCommand())
	cmd.AddCommand(newConnectionRemoveCommand())

	return cmd
}

func newConnectionAddCommand() *cobra.Command {
	opts := &ConnectionAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Verify and store a connection",
		Example: `  # Password read from an environment variable
  export SHOP_DB_PASSWORD=...
  querycanvas connection add --name shop --type mysql --host db.internal \
    --database shop --user reader --password-env SHOP_DB_PASSWORD`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConnectionAdd(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Connection name (default: database name)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Database type (mysql|postgres)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Database host")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Database port (default: 3306 for mysql, 5432 for postgres)")
	cmd.Flags().StringVar(&opts.Database, "database", "", "Database name")
	cmd.Flags().StringVar(&opts.User, "user", "", "Database user")
	cmd.Flags().StringVar(&opts.PasswordEnv, "password-env", "", "Environment variable holding the password")
	cmd.Flags().BoolVar(&opts.SkipVerify, "skip-verify", false, "Store without connecting first")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("database")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(schema.DialectMySQL), string(schema.DialectPostgres)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runConnectionAdd(cmd *cobra.Command, opts *ConnectionAddOptions) error {
	cmdCtx := NewCommandContext(cmd)

	dialect, err := schema.ParseDialect(opts.Type)
	if err != nil {
		return err
	}
	port := opts.Port
	if port == 0 {
		port = schema.DefaultPort(dialect)
	}

	var password string
	if opts.PasswordEnv != "" {
		val, ok := os.LookupEnv(opts.PasswordEnv)
		if !ok {
			return fmt.Errorf("environment variable %s is not set", opts.PasswordEnv)
		}
		password = val
	}

	box, err := cmdCtx.SecretBox()
	if err != nil {
		return err
	}

	if !opts.SkipVerify {
		db, err := openDatabase(cmd.Context(), schema.ConnInfo{
			Dialect:  dialect,
			Host:     opts.Host,
			Port:     port,
			Database: opts.Database,
			User:     opts.User,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", opts.Host, err)
		}
		_ = db.Close()
	}

	sealed, err := box.Seal(password)
	if err != nil {
		return err
	}

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	conn, err := store.CreateConnection(&state.Connection{
		Name:              opts.Name,
		Type:              string(dialect),
		Host:              opts.Host,
		Port:              port,
		Database:          opts.Database,
		Username:          opts.User,
		EncryptedPassword: sealed,
	})
	if err != nil {
		return err
	}

	if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		return cmdCtx.Renderer.JSON(connectionSummary(conn))
	}
	cmdCtx.Renderer.Success(fmt.Sprintf("Added connection %s (%s)", conn.Name, conn.ID))
	return nil
}

func newConnectionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored connections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				conns, err := store.ListConnections()
				if err != nil {
					return err
				}
				return renderConnections(cmdCtx.Renderer, conns)
			})
		},
	}
}

func newConnectionRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <connection-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored connection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cmdCtx *CommandContext, store state.Store) error {
				if err := store.DeleteConnection(args[0]); err != nil {
					return fmt.Errorf("connection %q: %w", args[0], err)
				}
				cmdCtx.Renderer.Success("Removed connection " + args[0])
				return nil
			})
		},
	}
}

func connectionSummary(c *state.Connection) output.ConnectionSummary {
	return output.ConnectionSummary{
		ID:       c.ID,
		Name:     c.Name,
		Type:     c.Type,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
	}
}

func renderConnections(r *output.Renderer, conns []*state.Connection) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]output.ConnectionSummary, 0, len(conns))
		for _, c := range conns {
			out = append(out, connectionSummary(c))
		}
		return r.JSON(out)
	}

	r.Header(1, "Connections")
	if len(conns) == 0 {
		r.Println("No connections stored.")
		return nil
	}

	rows := make([][]string, 0, len(conns))
	for _, c := range conns {
		rows = append(rows, []string{c.Name, c.ID, c.Type, c.Host + ":" + strconv.Itoa(c.Port), c.Database, c.Username})
	}
	r.Table([]string{"Name", "ID", "Type", "Address", "Database", "User"}, rows)
	return nil
}
