package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/flashdeck/internal/deck"
)

// SourceRow represents a row in the sources table.
type SourceRow struct {
	Path      string
	Checksum  string
	Header    string
	UpdatedAt time.Time
	Cards     int
}

// CardRow represents a row in the cards table.
type CardRow struct {
	ID       string
	Name     string
	Question string
	Answer   string
	Paths    []string
}

// SearchResult represents one card search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// UpsertSource inserts or replaces a source file and all of its cards within
// a transaction. A card ID already owned by another source moves to this one;
// a repeated ID within cards is skipped.
func (db *DB) UpsertSource(s SourceRow, cards []CardRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO sources (path, checksum, header, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			header     = excluded.header,
			updated_at = excluded.updated_at
	`, s.Path, s.Checksum, s.Header, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert source: %w", err)
	}

	if err := ftsDeleteSource(tx, s.Path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE source = ?`, s.Path); err != nil {
		return fmt.Errorf("index: clear cards: %w", err)
	}

	if len(cards) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO cards (id, source, position, name, question, answer, paths)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source   = excluded.source,
				position = excluded.position,
				name     = excluded.name,
				question = excluded.question,
				answer   = excluded.answer,
				paths    = excluded.paths
		`)
		if err != nil {
			return fmt.Errorf("index: prepare card insert: %w", err)
		}
		defer stmt.Close()
		seen := make(map[string]struct{}, len(cards))
		for i, c := range cards {
			// First occurrence of an ID within a source wins.
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			pathsJSON, _ := json.Marshal(nonNil(c.Paths))
			if _, err := stmt.Exec(c.ID, s.Path, i, c.Name, c.Question, c.Answer, string(pathsJSON)); err != nil {
				return fmt.Errorf("index: insert card %s: %w", c.ID, err)
			}
			if err := ftsUpsertCard(tx, c.ID, s.Path, c); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// DeleteSource removes a source file and its cards.
func (db *DB) DeleteSource(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDeleteSource(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete cards: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sources WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete source: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a source, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM sources WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed source.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListSources returns every indexed source with its card count, ordered by path.
func (db *DB) ListSources() ([]SourceRow, error) {
	rows, err := db.conn.Query(`
		SELECT s.path, s.checksum, s.header, s.updated_at, COUNT(c.id)
		FROM sources s
		LEFT JOIN cards c ON c.source = s.path
		GROUP BY s.path
		ORDER BY s.path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list sources: %w", err)
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		if err := rows.Scan(&s.Path, &s.Checksum, &s.Header, &s.UpdatedAt, &s.Cards); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Records returns every indexed card as a deck record, ordered by source path
// and position within the source.
func (db *DB) Records(ctx context.Context) ([]deck.Record, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.name, c.question, c.answer, c.paths, c.source, s.header
		FROM cards c
		JOIN sources s ON s.path = c.source
		ORDER BY c.source, c.position
	`)
	if err != nil {
		return nil, fmt.Errorf("index: records: %w", err)
	}
	defer rows.Close()

	var out []deck.Record
	for rows.Next() {
		var (
			r         deck.Record
			pathsJSON string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Question, &r.Answer, &pathsJSON, &r.Source, &r.Header); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(pathsJSON), &r.Paths); err != nil {
			return nil, fmt.Errorf("index: decode paths of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
