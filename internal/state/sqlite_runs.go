package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// RecordPlanRun stores the outcome of planning a saved canvas.
func (s *SQLiteStore) RecordPlanRun(run *PlanRun) (*PlanRun, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	stored := *run
	stored.ID = generateID()
	stored.CreatedAt = time.Now().UTC()

	var groups sql.NullString
	if stored.Groups != nil {
		body, err := json.Marshal(stored.Groups)
		if err != nil {
			return nil, fmt.Errorf("failed to encode groups: %w", err)
		}
		groups = sql.NullString{String: string(body), Valid: true}
	}
	var errMsg sql.NullString
	if stored.Error != "" {
		errMsg = sql.NullString{String: stored.Error, Valid: true}
	}

	s.logger.Debug("recording plan run",
		slog.String("canvas_id", stored.CanvasID),
		slog.String("status", string(stored.Status)))

	_, err := s.db.Exec(
		`INSERT INTO plan_runs (id, canvas_id, status, plan_groups, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.CanvasID, string(stored.Status), groups, errMsg, formatTime(stored.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record plan run: %w", err)
	}
	return &stored, nil
}

// ListPlanRuns returns the most recent runs of a canvas, newest first.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListPlanRuns(canvasID string, limit int) ([]*PlanRun, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, canvas_id, status, plan_groups, error, created_at
		 FROM plan_runs WHERE canvas_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		canvasID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*PlanRun
	for rows.Next() {
		var r PlanRun
		var status, createdAt string
		var groups, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.CanvasID, &status, &groups, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan run: %w", err)
		}
		r.Status = PlanStatus(status)
		r.Error = errMsg.String
		if groups.Valid {
			if err := json.Unmarshal([]byte(groups.String), &r.Groups); err != nil {
				return nil, fmt.Errorf("corrupt plan run %s: %w", r.ID, err)
			}
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
