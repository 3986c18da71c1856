// Package state persists connections, saved canvases and plan runs in SQLite.
package state

import (
	"errors"
	"time"

	"github.com/leapstack-labs/querycanvas/internal/canvas"
	"github.com/leapstack-labs/querycanvas/internal/dag"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Connection is a stored database connection. The password is kept sealed.
type Connection struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Host              string    `json:"host"`
	Port              int       `json:"port"`
	Database          string    `json:"database"`
	Username          string    `json:"username"`
	EncryptedPassword string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Canvas is a saved canvas document.
type Canvas struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ConnectionID string           `json:"connectionId,omitempty"`
	Document     *canvas.Document `json:"document"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// PlanStatus is the outcome of a planning request.
type PlanStatus string

// Plan outcomes.
const (
	PlanStatusOK        PlanStatus = "ok"
	PlanStatusCycle     PlanStatus = "cycle"
	PlanStatusMalformed PlanStatus = "malformed"
	PlanStatusRejected  PlanStatus = "rejected"
)

// PlanRun records one planning request against a saved canvas.
type PlanRun struct {
	ID        string     `json:"id"`
	CanvasID  string     `json:"canvasId"`
	Status    PlanStatus `json:"status"`
	Groups    [][]string `json:"groups,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewPlanRun builds the run record for a scheduling result.
func NewPlanRun(canvasID string, plan *dag.Plan, err error) *PlanRun {
	run := &PlanRun{CanvasID: canvasID, Status: StatusOf(err)}
	if err != nil {
		run.Error = err.Error()
		return run
	}
	if plan != nil {
		run.Groups = plan.Groups
	}
	return run
}

// StatusOf classifies a scheduling error.
func StatusOf(err error) PlanStatus {
	switch {
	case err == nil:
		return PlanStatusOK
	case errors.Is(err, dag.ErrCycleDetected):
		return PlanStatusCycle
	case errors.Is(err, dag.ErrMalformedGraph):
		return PlanStatusMalformed
	default:
		return PlanStatusRejected
	}
}

// Store is the persistence interface used by the CLI and the HTTP API.
type Store interface {
	CreateConnection(c *Connection) (*Connection, error)
	GetConnection(id string) (*Connection, error)
	ListConnections() ([]*Connection, error)
	DeleteConnection(id string) error

	SaveCanvas(doc *canvas.Document) (*Canvas, error)
	GetCanvas(idOrName string) (*Canvas, error)
	ListCanvases() ([]*Canvas, error)

	RecordPlanRun(run *PlanRun) (*PlanRun, error)
	ListPlanRuns(canvasID string, limit int) ([]*PlanRun, error)

	Close() error
}
