package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/server/notifier"
	"github.com/leapstack-labs/querycanvas/internal/state"
)

// planRequest accepts either a full canvas document or a bare graph whose
// nodes are plain id strings.
type planRequest struct {
	Nodes []nodeRef         `json:"nodes"`
	Edges []canvas.JoinEdge `json:"edges"`
}

type nodeRef struct {
	canvas.TableNode
}

func (n *nodeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &n.ID)
	}
	return json.Unmarshal(data, &n.TableNode)
}

func (p *planRequest) document() *canvas.Document {
	doc := &canvas.Document{
		Nodes: make([]canvas.TableNode, len(p.Nodes)),
		Edges: p.Edges,
	}
	for i, n := range p.Nodes {
		doc.Nodes[i] = n.TableNode
	}
	return doc
}

type planResponse struct {
	OK     bool             `json:"ok"`
	RunID  string           `json:"runId,omitempty"`
	Groups [][]dag.NodeID   `json:"groups"`
	Order  []dag.NodeID     `json:"order"`
	Levels [][][]dag.NodeID `json:"levels,omitempty"`
}

func newPlanResponse(plan *dag.Plan) planResponse {
	return planResponse{OK: true, Groups: plan.Groups, Order: plan.Order, Levels: plan.Levels}
}

// handlePlan schedules an ad-hoc graph.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("invalid plan request: %v", err))
		return
	}

	opts, err := s.planOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	plan, err := req.document().Plan(opts...)
	if err != nil {
		writePlanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

// handlePlanCanvas schedules a saved canvas and records the run.
func (s *Server) handlePlanCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCanvas(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	opts, err := s.planOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	plan, planErr := c.Document.Plan(opts...)
	run, err := s.store.RecordPlanRun(state.NewPlanRun(c.ID, plan, planErr))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.notifier.Publish(notifier.Event{Kind: notifier.PlanRecorded, Canvas: c.Name})

	if planErr != nil {
		writePlanError(w, planErr)
		return
	}
	resp := newPlanResponse(plan)
	resp.RunID = run.ID
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCanvas(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	runs, err := s.store.ListPlanRuns(c.ID, 50)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []*state.PlanRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}
