package schema

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// ConnectTimeout bounds dialing and the verification query.
const ConnectTimeout = 3 * time.Second

// ConnInfo is everything needed to reach a database.
type ConnInfo struct {
	Dialect  Dialect
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DefaultPort returns the conventional port for the dialect.
func DefaultPort(d Dialect) int {
	if d == DialectPostgres {
		return 5432
	}
	return 3306
}

// DefaultSchema returns the schema to introspect for a connection.
func (c ConnInfo) DefaultSchema() string {
	if c.Dialect == DialectPostgres {
		return "public"
	}
	return c.Database
}

// DriverName returns the database/sql driver for the dialect.
func (c ConnInfo) DriverName() string {
	if c.Dialect == DialectPostgres {
		return "pgx"
	}
	return "mysql"
}

// DSN builds the driver-specific data source name.
func (c ConnInfo) DSN() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort(c.Dialect)
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	switch c.Dialect {
	case DialectPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   addr,
			Path:   "/" + c.Database,
		}
		q := url.Values{}
		q.Set("connect_timeout", strconv.Itoa(int(ConnectTimeout.Seconds())))
		u.RawQuery = q.Encode()
		return u.String()
	default:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = c.Database
		cfg.Timeout = ConnectTimeout
		return cfg.FormatDSN()
	}
}

// Open opens and pings a database.
func Open(ctx context.Context, c ConnInfo) (*sql.DB, error) {
	db, err := sql.Open(c.DriverName(), c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", c.Dialect, err)
	}
	if err := Verify(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Verify checks that the database answers a trivial query.
func Verify(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	var ok int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&ok); err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	return nil
}
