package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/leapstack-labs/querycanvas/internal/state"
)

type connectionRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleCreateConnection verifies the connection, seals the password and
// stores it. The password is never echoed back.
func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	if s.box == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "secret key is not configured")
		return
	}

	var req connectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("invalid connection: %v", err))
		return
	}
	dialect, err := schema.ParseDialect(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	if req.Host == "" || req.Database == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "host and database are required")
		return
	}
	if req.Port == 0 {
		req.Port = schema.DefaultPort(dialect)
	}

	db, err := s.dial(r.Context(), schema.ConnInfo{
		Dialect:  dialect,
		Host:     req.Host,
		Port:     req.Port,
		Database: req.Database,
		User:     req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.logger.Debug("connection check failed", "host", req.Host, "error", err)
		writeError(w, http.StatusBadGateway, codeConnectionFailed, err.Error())
		return
	}
	_ = db.Close()

	sealed, err := s.box.Seal(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}

	conn, err := s.store.CreateConnection(&state.Connection{
		Name:              req.Name,
		Type:              string(dialect),
		Host:              req.Host,
		Port:              req.Port,
		Database:          req.Database,
		Username:          req.Username,
		EncryptedPassword: sealed,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	conns, err := s.store.ListConnections()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if conns == nil {
		conns = []*state.Connection{}
	}
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteConnection(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
