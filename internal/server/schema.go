package server

import (
	"net/http"

	"github.com/leapstack-labs/querycanvas/internal/schema"
)

// handleSchema introspects the database behind a stored connection.
// The response groups tables under a single "default" schema key.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("connectionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "connectionId is required")
		return
	}
	if s.box == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "secret key is not configured")
		return
	}

	conn, err := s.store.GetConnection(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	info, err := conn.ConnInfo(s.box)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}

	db, err := s.dial(r.Context(), info)
	if err != nil {
		writeError(w, http.StatusBadGateway, codeConnectionFailed, err.Error())
		return
	}
	defer func() { _ = db.Close() }()

	sch, err := schema.Introspect(r.Context(), db, info.Dialect, info.DefaultSchema())
	if err != nil {
		writeError(w, http.StatusBadGateway, codeConnectionFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"schema": map[string]any{
			"default": sch.Tables,
		},
	})
}
