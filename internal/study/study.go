// Package study defines named card selections and their cached summaries.
package study

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/flashdeck/internal/deck"
)

// Rating is how well a card was answered during a study.
type Rating string

const (
	RatingAgain Rating = "Again"
	RatingHard  Rating = "Hard"
	RatingGood  Rating = "Good"
	RatingEasy  Rating = "Easy"
)

// ParseRating accepts a rating name in any letter case.
func ParseRating(s string) (Rating, error) {
	for _, r := range []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy} {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("study: unknown rating %q", s)
}

// Study is a persisted selection of cards, identified by card IDs so that it
// survives deck reloads.
type Study struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Selection []string          `json:"selection"`
	Reviews   map[string]Rating `json:"reviews"`
	Finished  bool              `json:"finished"`

	mu         sync.Mutex
	summaryGen uint64
	summary    []deck.Item
}

// New creates an unfinished study over the given card IDs.
func New(name string, selection []string, now time.Time) *Study {
	return &Study{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now.UTC(),
		Selection: selection,
		Reviews:   map[string]Rating{},
	}
}

// Resolve maps the selection onto d, dropping IDs d does not know.
func (s *Study) Resolve(d *deck.Deck) []deck.CardID {
	out := make([]deck.CardID, 0, len(s.Selection))
	for _, id := range s.Selection {
		if c, ok := d.CardByID(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns the selection summary against d. The result is computed
// once per snapshot; a different snapshot recomputes it.
func (s *Study) Summary(d *deck.Deck) []deck.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil && s.summaryGen == d.Generation() {
		return s.summary
	}
	s.summary = d.Summarize(s.Resolve(d))
	if s.summary == nil {
		s.summary = []deck.Item{}
	}
	s.summaryGen = d.Generation()
	return s.summary
}

// Remaining returns the selected card IDs that have no review yet.
func (s *Study) Remaining() []string {
	var out []string
	for _, id := range s.Selection {
		if _, ok := s.Reviews[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
