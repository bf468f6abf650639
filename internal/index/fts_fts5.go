//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
			id UNINDEXED,
			source UNINDEXED,
			name,
			question,
			answer,
			paths,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsertCard(tx *sql.Tx, id, source string, c CardRow) error {
	_, _ = tx.Exec(`DELETE FROM cards_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO cards_fts (id, source, name, question, answer, paths) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, c.Name, c.Question, c.Answer, strings.Join(c.Paths, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteSource(tx *sql.Tx, source string) error {
	if _, err := tx.Exec(`DELETE FROM cards_fts WHERE source = ?`, source); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// SearchCards performs an FTS5 full-text search and returns matching cards with snippets.
func (db *DB) SearchCards(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       name,
		       source,
		       snippet(cards_fts, 3, '<b>', '</b>', '...', 32)
		FROM cards_fts
		WHERE cards_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
