// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 needs CGo and a C compiler; modernc.org/sqlite is a
// pure Go translation of SQLite, so cross-compilation stays trivial and
// the binary remains self-contained.
//
// One file on disk holds everything; tests open ":memory:" and get a
// fresh, throwaway database per test.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under
	// the name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.UserRepository and
// repository.SongRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, configures it, and runs
// migrations. Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an actual connection now — a bad path or permissions problem
	// should fail here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed during a write — a must for a web server
	// sharing one database file across request goroutines.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// SQLite ships with foreign keys off; songs.user_id references
	// users.id, so turn them on.
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

// Close closes the connection pool. Callers should defer this right after
// New so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                   TEXT PRIMARY KEY,
			first_name           TEXT NOT NULL,
			last_name            TEXT NOT NULL,
			email                TEXT NOT NULL UNIQUE,
			password_hash        TEXT NOT NULL,
			email_verified       INTEGER NOT NULL DEFAULT 0,
			verification_token   TEXT,
			verification_expires DATETIME,
			created_at           DATETIME NOT NULL,
			updated_at           DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_verification_token
			ON users(verification_token);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS songs (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL REFERENCES users(id),
			youtube_url        TEXT NOT NULL,
			youtube_id         TEXT NOT NULL,
			song_name          TEXT NOT NULL,
			start_time_seconds INTEGER NOT NULL DEFAULT 0,
			guest_name         TEXT NOT NULL DEFAULT '',
			created_at         DATETIME NOT NULL,
			updated_at         DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_songs_user_created
			ON songs(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating songs table: %w", err)
	}

	return nil
}
