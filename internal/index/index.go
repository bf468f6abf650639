// Package index provides the SQLite-backed card index, study persistence and
// optional FTS5 card search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS sources (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	header     TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cards (
	id       TEXT PRIMARY KEY,
	source   TEXT NOT NULL REFERENCES sources(path) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	name     TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL DEFAULT '',
	answer   TEXT NOT NULL DEFAULT '',
	paths    TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_cards_source ON cards(source, position);

CREATE TABLE IF NOT EXISTS studies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	selection  TEXT NOT NULL DEFAULT '[]',
	finished   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reviews (
	study_id    TEXT NOT NULL REFERENCES studies(id) ON DELETE CASCADE,
	card_id     TEXT NOT NULL,
	rating      TEXT NOT NULL,
	reviewed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(study_id, card_id)
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
