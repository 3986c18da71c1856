package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/server/notifier"
)

type canvasSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ConnectionID string    `json:"connectionId,omitempty"`
	Tables       int       `json:"tables"`
	Joins        int       `json:"joins"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s *Server) handleListCanvases(w http.ResponseWriter, _ *http.Request) {
	canvases, err := s.store.ListCanvases()
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]canvasSummary, 0, len(canvases))
	for _, c := range canvases {
		out = append(out, canvasSummary{
			ID:           c.ID,
			Name:         c.Name,
			ConnectionID: c.ConnectionID,
			Tables:       len(c.Document.Nodes),
			Joins:        len(c.Document.Edges),
			UpdatedAt:    c.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveCanvas(w http.ResponseWriter, r *http.Request) {
	var doc canvas.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("invalid canvas: %v", err))
		return
	}
	if doc.Name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "canvas name is required")
		return
	}
	if err := doc.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	saved, err := s.store.SaveCanvas(&doc)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.notifier.Publish(notifier.Event{Kind: notifier.CanvasSaved, Canvas: saved.Name})
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCanvas(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
