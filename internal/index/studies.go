package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/study"
)

// SaveStudy inserts or replaces a study row. Reviews are written separately
// through RecordReview.
func (db *DB) SaveStudy(s *study.Study) error {
	selJSON, _ := json.Marshal(nonNil(s.Selection))
	_, err := db.conn.Exec(`
		INSERT INTO studies (id, name, created_at, selection, finished)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name      = excluded.name,
			selection = excluded.selection,
			finished  = excluded.finished
	`, s.ID, s.Name, s.CreatedAt, string(selJSON), s.Finished)
	if err != nil {
		return fmt.Errorf("index: save study: %w", err)
	}
	return nil
}

// GetStudy loads a study with its reviews. It returns apperr.ErrNotFound for
// an unknown id.
func (db *DB) GetStudy(id string) (*study.Study, error) {
	row := db.conn.QueryRow(`SELECT id, name, created_at, selection, finished FROM studies WHERE id = ?`, id)
	s, err := scanStudy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get study: %w", err)
	}
	if err := db.loadReviews(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListStudies returns every study, newest first, with reviews loaded.
func (db *DB) ListStudies() ([]*study.Study, error) {
	rows, err := db.conn.Query(`SELECT id, name, created_at, selection, finished FROM studies ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("index: list studies: %w", err)
	}
	var out []*study.Study
	for rows.Next() {
		s, err := scanStudy(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("index: scan study: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, s := range out {
		if err := db.loadReviews(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteStudy removes a study and its reviews.
func (db *DB) DeleteStudy(id string) error {
	res, err := db.conn.Exec(`DELETE FROM studies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("index: delete study: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RecordReview stores the latest rating of a card within a study.
func (db *DB) RecordReview(studyID, cardID string, r study.Rating) error {
	_, err := db.conn.Exec(`
		INSERT INTO reviews (study_id, card_id, rating, reviewed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(study_id, card_id) DO UPDATE SET
			rating      = excluded.rating,
			reviewed_at = excluded.reviewed_at
	`, studyID, cardID, string(r), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: record review: %w", err)
	}
	return nil
}

// FinishStudy marks a study as finished.
func (db *DB) FinishStudy(id string) error {
	res, err := db.conn.Exec(`UPDATE studies SET finished = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("index: finish study: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(row rowScanner) (*study.Study, error) {
	var (
		s       study.Study
		selJSON string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.CreatedAt, &selJSON, &s.Finished); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(selJSON), &s.Selection); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	s.Reviews = map[string]study.Rating{}
	return &s, nil
}

func (db *DB) loadReviews(s *study.Study) error {
	rows, err := db.conn.Query(`SELECT card_id, rating FROM reviews WHERE study_id = ?`, s.ID)
	if err != nil {
		return fmt.Errorf("index: load reviews: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cardID, rating string
		if err := rows.Scan(&cardID, &rating); err != nil {
			return err
		}
		s.Reviews[cardID] = study.Rating(rating)
	}
	return rows.Err()
}
