// Package sqldb implements the repository interfaces on top of database/sql.
//
// Three backends are supported through small dialect tables:
//   - mysql    — MySQL / MariaDB via github.com/go-sql-driver/mysql (the default)
//   - postgres — via github.com/jackc/pgx/v5/stdlib
//   - sqlite   — via modernc.org/sqlite (pure Go, used by the tests)
//
// DATABASE/SQL OVERVIEW:
// sql.Open(driverName, dataSourceName) only prepares a handle; nothing is dialled
// until the first query. Open below pings immediately so an unreachable host or a
// rejected password surfaces as a connection error before any schema work.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// BLANK IMPORTS:
	// Each driver registers itself with database/sql in its init() function.
	_ "github.com/go-sql-driver/mysql" // "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx"
	_ "modernc.org/sqlite"             // "sqlite"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/config"
)

// dialect captures the few statements that differ between backends.
type dialect struct {
	driver string // database/sql driver name
	schema string
	insert string
	// insertReturnsID is set when insert ends in RETURNING id
	// (postgres has no LastInsertId).
	insertReturnsID bool
	// setup runs once right after the connection is verified.
	setup []string
}

const selectEntries = `SELECT id, name, message, created_at FROM entries ORDER BY id DESC`

var dialects = map[string]dialect{
	config.DriverMySQL: {
		driver: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS entries (
    id INT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)
ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		insert: `INSERT INTO entries (name, message) VALUES (?, ?)`,
	},
	config.DriverPostgres: {
		driver: "pgx",
		schema: `CREATE TABLE IF NOT EXISTS entries (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
		insert:          `INSERT INTO entries (name, message) VALUES ($1, $2) RETURNING id`,
		insertReturnsID: true,
	},
	config.DriverSQLite: {
		driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
		insert: `INSERT INTO entries (name, message) VALUES (?, ?)`,
		setup: []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
		},
	},
}

// DB is a single request-scoped connection to the storage backend.
type DB struct {
	conn    *sql.DB
	dialect dialect
	session string
	logger  *slog.Logger
}

// Open connects to the backend described by cfg and verifies the connection.
// Every failure here is an apperror.ErrConnection carrying the driver's reason.
//
// The handle is capped at one open connection: the guestbook opens a fresh
// connection per request and releases it with Close, it does not pool.
func Open(ctx context.Context, cfg config.Database) (*DB, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, apperror.ConnectionFailed(fmt.Errorf("unknown database driver %q", cfg.Driver))
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, apperror.ConnectionFailed(err)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, apperror.ConnectionFailed(err)
	}
	conn.SetMaxOpenConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, apperror.ConnectionFailed(err)
	}

	for _, stmt := range d.setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, apperror.ConnectionFailed(fmt.Errorf("%s: %w", stmt, err))
		}
	}

	return newDB(conn, d), nil
}

func newDB(conn *sql.DB, d dialect) *DB {
	return &DB{
		conn:    conn,
		dialect: d,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// Close releases the connection.
func (db *DB) Close() error {
	err := db.conn.Close()
	db.logger.Debug("database session closed", slog.String("session", db.session))
	return err
}

// EnsureSchema creates the entries table if it is missing. CREATE TABLE IF NOT
// EXISTS is a no-op on an existing table, so this is safe on every request.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, db.dialect.schema); err != nil {
		return fmt.Errorf("sqldb: creating entries table: %w", err)
	}
	return nil
}
