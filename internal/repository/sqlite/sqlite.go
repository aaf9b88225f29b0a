// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces (user.go, project.go).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/sunhaksan.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect — Ping surfaces a bad path or
	// permissions problem now instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// needed for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; projects.user_id
	// references users(id), so turn them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	// github_id is UNIQUE but nullable: manually registered members have
	// no GitHub identity until their first sign-in. SQLite treats NULLs
	// as distinct in UNIQUE indexes, so unlinked members never collide.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL UNIQUE,
			name         TEXT NOT NULL DEFAULT '',
			github_id    INTEGER UNIQUE,
			github_login TEXT NOT NULL DEFAULT '',
			bio          TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// github_id is the remote repository's numeric identifier — UNIQUE so
	// the same repository cannot be registered twice. topics and tags are
	// JSON-serialized string arrays; tags may be NULL.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			github_id   INTEGER NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			full_name   TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			html_url    TEXT NOT NULL,
			homepage    TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL DEFAULT '',
			topics      TEXT NOT NULL DEFAULT '[]',
			stars       INTEGER NOT NULL DEFAULT 0,
			forks       INTEGER NOT NULL DEFAULT 0,
			watchers    INTEGER NOT NULL DEFAULT 0,
			visibility  TEXT NOT NULL DEFAULT 'INTERNAL'
			            CHECK (visibility IN ('PUBLIC', 'INTERNAL', 'PRIVATE')),
			featured    INTEGER NOT NULL DEFAULT 0,
			category    TEXT NOT NULL DEFAULT '',
			tags        TEXT,
			user_id     TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
		CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column (e.g. "users.email"). The driver doesn't export a typed
// error for this, so we match the message — fragile in theory, but the
// modernc driver's constraint message format has been stable for years.
//
// Mapping the constraint here (and not only pre-checking in the service)
// matters: two racing inserts with the same key still yield exactly one
// success and one Conflict.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint
// failure — with foreign_keys=ON, deleting a user still referenced by
// projects.user_id fails this way.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
