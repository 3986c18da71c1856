package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/server/notifier"
	"github.com/leapstack-labs/querycanvas/internal/state"
)

// watchDebounce coalesces bursts of writes from editors.
const watchDebounce = 100 * time.Millisecond

func isCanvasFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// importCanvasFile saves a canvas file, plans it and records the run.
func (s *Server) importCanvasFile(path string) error {
	doc, err := canvas.Load(path)
	if err != nil {
		return err
	}

	saved, err := s.store.SaveCanvas(doc)
	if err != nil {
		return err
	}

	opts, err := s.planner.Options()
	if err != nil {
		return err
	}
	plan, planErr := saved.Document.Plan(opts...)
	if _, err := s.store.RecordPlanRun(state.NewPlanRun(saved.ID, plan, planErr)); err != nil {
		return fmt.Errorf("failed to record plan run: %w", err)
	}

	s.logger.Info("imported canvas", "name", saved.Name, "file", path, "status", state.StatusOf(planErr))
	s.notifier.Publish(notifier.Event{Kind: notifier.CanvasImported, Canvas: saved.Name})
	return nil
}

// importCanvasDir imports every canvas file directly inside dir.
func (s *Server) importCanvasDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, e := range entries {
		if e.IsDir() || !isCanvasFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := s.importCanvasFile(path); err != nil {
			s.logger.Error("failed to import canvas", "file", path, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// watchCanvases imports the canvas directory, then re-imports files as they change.
func (s *Server) watchCanvases(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.canvasDir); err != nil {
		s.logger.Error("failed to watch canvas directory", "dir", s.canvasDir, "error", err)
		// Don't fail - continue without watching
	}
	if n, err := s.importCanvasDir(s.canvasDir); err == nil {
		s.logger.Debug("imported canvas directory", "dir", s.canvasDir, "count", n)
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isCanvasFile(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			var timer *time.Timer
			timer = time.AfterFunc(watchDebounce, func() {
				mu.Lock()
				if timers[path] == timer {
					delete(timers, path)
				}
				mu.Unlock()

				if err := s.importCanvasFile(path); err != nil {
					s.logger.Error("failed to import canvas", "file", path, "error", err)
				}
			})
			timers[path] = timer
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
