package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/querycanvas/internal/canvas"
)

// SaveCanvas stores a canvas document, replacing any canvas with the same name.
func (s *SQLiteStore) SaveCanvas(doc *canvas.Document) (*Canvas, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("canvas name is required")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode canvas: %w", err)
	}

	now := time.Now().UTC()
	id := generateID()
	var connID sql.NullString
	if doc.ConnectionID != "" {
		connID = sql.NullString{String: doc.ConnectionID, Valid: true}
	}

	s.logger.Debug("saving canvas", slog.String("name", doc.Name), slog.Int("nodes", len(doc.Nodes)))

	err = s.db.QueryRow(
		`INSERT INTO canvases (id, name, connection_id, document, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   connection_id = excluded.connection_id,
		   document = excluded.document,
		   updated_at = excluded.updated_at
		 RETURNING id`,
		id, doc.Name, connID, string(body), formatTime(now),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to save canvas: %w", err)
	}

	return &Canvas{
		ID:           id,
		Name:         doc.Name,
		ConnectionID: doc.ConnectionID,
		Document:     doc,
		UpdatedAt:    now,
	}, nil
}

// GetCanvas retrieves a canvas by id or by name.
func (s *SQLiteStore) GetCanvas(idOrName string) (*Canvas, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(
		`SELECT id, name, connection_id, document, updated_at FROM canvases WHERE id = ? OR name = ? LIMIT 1`,
		idOrName, idOrName,
	)
	c, err := scanCanvas(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("canvas %s: %w", idOrName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canvas: %w", err)
	}
	return c, nil
}

// ListCanvases returns all saved canvases ordered by name.
func (s *SQLiteStore) ListCanvases() ([]*Canvas, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT id, name, connection_id, document, updated_at FROM canvases ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Canvas
	for rows.Next() {
		c, err := scanCanvas(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan canvas: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCanvas(row rowScanner) (*Canvas, error) {
	var c Canvas
	var connID sql.NullString
	var body, updatedAt string
	if err := row.Scan(&c.ID, &c.Name, &connID, &body, &updatedAt); err != nil {
		return nil, err
	}
	c.ConnectionID = connID.String

	var doc canvas.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("corrupt canvas document %s: %w", c.ID, err)
	}
	c.Document = &doc

	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = t
	return &c, nil
}
