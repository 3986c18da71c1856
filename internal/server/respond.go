package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/state"
)

// Error codes returned in the "error" field.
const (
	codeCycleDetected    = "cycle_detected"
	codeMalformedGraph   = "malformed_graph"
	codeGraphTooLarge    = "graph_too_large"
	codeInvalidRequest   = "invalid_request"
	codeNotFound         = "not_found"
	codeConnectionFailed = "connection_failed"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	OK        bool         `json:"ok"`
	Error     string       `json:"error"`
	Detail    string       `json:"detail,omitempty"`
	Unvisited []dag.NodeID `json:"unvisited,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}

// writePlanError maps a scheduling error to its response.
func writePlanError(w http.ResponseWriter, err error) {
	var cycle *dag.CycleError
	var malformed *dag.MalformedGraphError
	switch {
	case errors.As(err, &cycle):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     codeCycleDetected,
			Detail:    err.Error(),
			Unvisited: cycle.Unvisited,
		})
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadRequest, codeMalformedGraph, malformed.Detail)
	case errors.Is(err, dag.ErrGraphTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeGraphTooLarge, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// writeStoreError maps a store error to its response.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
