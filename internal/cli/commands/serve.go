package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/querycanvas/internal/secret"
	"github.com/leapstack-labs/querycanvas/internal/server"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr      string
	CanvasDir string
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the querycanvas HTTP API",
		Long: `Start the HTTP API used by the canvas front end.

The API plans ad-hoc graphs and saved canvases, stores connections and
canvases, introspects schemas and streams change events. With --watch
the canvas directory is imported on start and re-imported as files change.`,
		Example: `  # Serve on the default address
  querycanvas serve

  # Serve on a custom address and watch the canvas directory
  querycanvas serve --addr 127.0.0.1:9000 --watch --canvas-dir boards`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Address to listen on (default: :8765)")
	cmd.Flags().StringVar(&opts.CanvasDir, "canvas-dir", "", "Directory of canvas files to import")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Import canvas files as they change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	// CLI flags override config file
	addr := cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	canvasDir := cfg.Server.CanvasDir
	if opts.CanvasDir != "" {
		canvasDir = opts.CanvasDir
	}
	watch := cfg.Server.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	var box *secret.Box
	if cfg.SecretKey != "" {
		var err error
		box, err = cmdCtx.SecretBox()
		if err != nil {
			return err
		}
	} else {
		cmdCtx.Renderer.Warning("secret_key is not set; connection endpoints are disabled")
	}

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv := server.NewServer(server.Config{
		Store:     store,
		Box:       box,
		Planner:   cfg.Planner,
		Addr:      addr,
		Logger:    cmdCtx.Logger,
		Watch:     watch,
		CanvasDir: canvasDir,
	})

	cmdCtx.Renderer.Println(fmt.Sprintf("Serving querycanvas API on %s", addr))
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return srv.Serve(ctx)
}
