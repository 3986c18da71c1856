// Package schema reads table and column metadata from a live database so the
// canvas can offer tables to place. It speaks MySQL and PostgreSQL through
// information_schema.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Dialect names a supported database family.
type Dialect string

// Supported dialects.
const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect normalizes a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q (expected mysql or postgres)", s)
	}
}

// Column describes one table column.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
}

// Table is a table with its columns in ordinal order.
type Table struct {
	Name    string   `json:"-"`
	Columns []Column `json:"columns"`
}

// Schema maps table name to table.
type Schema struct {
	Name   string            `json:"-"`
	Tables map[string]*Table `json:"tables"`
}

// TableNames returns the table names sorted.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type queries struct {
	columns     string
	primaryKeys string
}

var dialectQueries = map[Dialect]queries{
	DialectMySQL: {
		columns: `SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		primaryKeys: `SELECT TABLE_NAME, COLUMN_NAME
FROM information_schema.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = ?
  AND CONSTRAINT_NAME = 'PRIMARY'`,
	},
	DialectPostgres: {
		columns: `SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`,
		primaryKeys: `SELECT kcu.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
WHERE tc.table_schema = $1
  AND tc.constraint_type = 'PRIMARY KEY'`,
	},
}

// Introspect reads every table of schemaName. For MySQL schemaName is the
// database name; for PostgreSQL it is the namespace (usually "public").
func Introspect(ctx context.Context, db *sql.DB, dialect Dialect, schemaName string) (*Schema, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	primary, err := readPrimaryKeys(ctx, db, q.primaryKeys, schemaName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q.columns, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	s := &Schema{Name: schemaName, Tables: make(map[string]*Table)}
	for rows.Next() {
		var table, column, colType, nullable string
		if err := rows.Scan(&table, &column, &colType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		t, ok := s.Tables[table]
		if !ok {
			t = &Table{Name: table}
			s.Tables[table] = t
		}
		t.Columns = append(t.Columns, Column{
			Name:         column,
			Type:         colType,
			Nullable:     strings.EqualFold(nullable, "YES"),
			IsPrimaryKey: primary[table+"."+column],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	return s, nil
}

func readPrimaryKeys(ctx context.Context, db *sql.DB, query, schemaName string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	primary := make(map[string]bool)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		primary[table+"."+column] = true
	}
	return primary, rows.Err()
}
