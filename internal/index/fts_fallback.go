//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the cards table.
	return nil
}

func ftsUpsertCard(_ *sql.Tx, _, _ string, _ CardRow) error {
	// Card text already lives in the cards table.
	return nil
}

func ftsDeleteSource(_ *sql.Tx, _ string) error { return nil }

// SearchCards performs a LIKE-based search over card names, questions,
// answers and paths (fallback when FTS5 is not compiled in).
func (db *DB) SearchCards(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, name, source, substr(question, 1, 200)
		FROM cards
		WHERE name LIKE ? OR question LIKE ? OR answer LIKE ? OR paths LIKE ?
		ORDER BY source, position
		LIMIT ?
	`, like, like, like, like, limit)
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
