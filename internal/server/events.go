package server

import (
	"net/http"
	"sort"

	"github.com/leapstack-labs/querycanvas/internal/server/notifier"
	"github.com/starfederation/datastar-go/datastar"
)

// canvasSignals is the signal payload pushed to live clients.
type canvasSignals struct {
	Canvases []string `json:"canvases"`
	Changed  string   `json:"changed,omitempty"`
	Kind     string   `json:"kind,omitempty"`
}

// handleEvents is the long-lived SSE endpoint. Clients get the current
// canvas list on connect and again after every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	updates, cancel := s.notifier.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)

	if err := s.pushCanvasSignals(sse, notifier.Event{}); err != nil {
		_ = sse.ConsoleError(err)
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := s.pushCanvasSignals(sse, ev); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (s *Server) pushCanvasSignals(sse *datastar.ServerSentEventGenerator, ev notifier.Event) error {
	canvases, err := s.store.ListCanvases()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(canvases))
	for _, c := range canvases {
		names = append(names, c.Name)
	}
	sort.Strings(names)

	return sse.MarshalAndPatchSignals(canvasSignals{
		Canvases: names,
		Changed:  ev.Canvas,
		Kind:     string(ev.Kind),
	})
}
