package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const connectionColumns = `id, name, type, host, port, database_name, username, encrypted_password, created_at`

// CreateConnection stores a connection and returns it with its id and timestamp set.
func (s *SQLiteStore) CreateConnection(c *Connection) (*Connection, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	stored := *c
	stored.ID = generateID()
	stored.CreatedAt = time.Now().UTC()
	if stored.Name == "" {
		stored.Name = stored.Database
	}

	s.logger.Debug("creating connection", slog.String("id", stored.ID), slog.String("name", stored.Name))

	_, err := s.db.Exec(
		`INSERT INTO connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Name, stored.Type, stored.Host, stored.Port, stored.Database,
		stored.Username, stored.EncryptedPassword, formatTime(stored.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	return &stored, nil
}

// GetConnection retrieves a connection by id.
func (s *SQLiteStore) GetConnection(id string) (*Connection, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return c, nil
}

// ListConnections returns all connections ordered by name.
func (s *SQLiteStore) ListConnections() ([]*Connection, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT ` + connectionColumns + ` FROM connections ORDER BY name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConnection removes a connection. Canvases pointing at it keep their document.
func (s *SQLiteStore) DeleteConnection(id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*Connection, error) {
	var c Connection
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Host, &c.Port, &c.Database,
		&c.Username, &c.EncryptedPassword, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}
