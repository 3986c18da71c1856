// Package server provides the querycanvas HTTP API: planning, saved
// canvases, stored connections and live schema introspection.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/querycanvas/internal/config"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/leapstack-labs/querycanvas/internal/secret"
	"github.com/leapstack-labs/querycanvas/internal/server/notifier"
	"github.com/leapstack-labs/querycanvas/internal/state"
	"golang.org/x/sync/errgroup"
)

// Dialer opens a verified connection to a user database.
type Dialer func(ctx context.Context, info schema.ConnInfo) (*sql.DB, error)

// Config holds configuration for the API server.
type Config struct {
	Store   state.Store
	Box     *secret.Box // nil disables connection storage
	Planner *config.PlannerConfig
	Addr    string
	Logger  *slog.Logger
	Dial    Dialer

	// Watch imports canvas files from CanvasDir as they change.
	Watch     bool
	CanvasDir string
}

// Server is the HTTP API server.
type Server struct {
	store     state.Store
	box       *secret.Box
	planner   *config.PlannerConfig
	addr      string
	logger    *slog.Logger
	dial      Dialer
	watch     bool
	canvasDir string
	notifier  *notifier.Notifier
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dial := cfg.Dial
	if dial == nil {
		dial = schema.Open
	}
	planner := cfg.Planner
	if planner == nil {
		planner = &config.PlannerConfig{}
		config.ApplyPlannerDefaults(planner)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = config.DefaultAddr
	}

	return &Server{
		store:     cfg.Store,
		box:       cfg.Box,
		planner:   planner,
		addr:      addr,
		logger:    logger,
		dial:      dial,
		watch:     cfg.Watch,
		canvasDir: cfg.CanvasDir,
		notifier:  notifier.New(),
	}
}

// Notifier returns the server's change notifier.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	s.setupRoutes(r)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchCanvases(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// planOptions builds scheduler options from the server settings and the
// optional tieBreak and levels query parameters.
func (s *Server) planOptions(r *http.Request) ([]dag.Option, error) {
	planner := *s.planner
	if tb := r.URL.Query().Get("tieBreak"); tb != "" {
		planner.TieBreak = tb
	}
	opts, err := planner.Options()
	if err != nil {
		return nil, err
	}
	if r.URL.Query().Get("levels") == "true" {
		opts = append(opts, dag.WithLevels(true))
	}
	return opts, nil
}
