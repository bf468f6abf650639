package deckservice

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/deck"
	"github.com/starford/flashdeck/internal/study"
)

// StudyView is the API representation of a study. Summary is only filled in
// by GetStudy and the mutating calls.
type StudyView struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	CreatedAt time.Time               `json:"created_at"`
	Finished  bool                    `json:"finished"`
	Selection []string                `json:"selection"`
	Reviews   map[string]study.Rating `json:"reviews"`
	Remaining []string                `json:"remaining"`
	Missing   []string                `json:"missing"`
	Summary   []SummaryItem           `json:"summary,omitempty"`
}

// CreateStudy persists a new study over cardIDs. Every ID must name a card of
// the current snapshot; duplicates are dropped.
func (s *Service) CreateStudy(_ context.Context, name string, cardIDs []string) (*StudyView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalid)
	}
	d := s.cat.Current()
	var (
		sel     []string
		unknown []string
	)
	seen := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := d.CardByID(id); !ok {
			unknown = append(unknown, id)
			continue
		}
		sel = append(sel, id)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown cards %s", apperr.ErrInvalid, strings.Join(unknown, ", "))
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("%w: selection is empty", apperr.ErrInvalid)
	}

	st := study.New(name, sel, time.Now())
	if err := s.db.SaveStudy(st); err != nil {
		return nil, err
	}

	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	s.studies[st.ID] = st
	return s.view(st, d, true), nil
}

// ListStudies returns every study, newest first, without summaries.
func (s *Service) ListStudies(_ context.Context) ([]StudyView, error) {
	list, err := s.db.ListStudies()
	if err != nil {
		return nil, err
	}
	d := s.cat.Current()

	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	out := make([]StudyView, 0, len(list))
	for _, st := range list {
		if cached, ok := s.studies[st.ID]; ok {
			st = cached
		} else {
			s.studies[st.ID] = st
		}
		out = append(out, *s.view(st, d, false))
	}
	return out, nil
}

// GetStudy returns a study with its summary against the current snapshot.
func (s *Service) GetStudy(_ context.Context, id string) (*StudyView, error) {
	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	st, err := s.lookupStudy(id)
	if err != nil {
		return nil, err
	}
	return s.view(st, s.cat.Current(), true), nil
}

// DeleteStudy removes a study and its reviews.
func (s *Service) DeleteStudy(_ context.Context, id string) error {
	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	if err := s.db.DeleteStudy(id); err != nil {
		return err
	}
	delete(s.studies, id)
	return nil
}

// ReviewCard records a rating for one selected card of an unfinished study.
func (s *Service) ReviewCard(_ context.Context, id, cardID, rating string) (*StudyView, error) {
	r, err := study.ParseRating(rating)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	st, err := s.lookupStudy(id)
	if err != nil {
		return nil, err
	}
	if st.Finished {
		return nil, fmt.Errorf("%w: study is finished", apperr.ErrConflict)
	}
	if !slices.Contains(st.Selection, cardID) {
		return nil, fmt.Errorf("%w: card %q is not part of the study", apperr.ErrInvalid, cardID)
	}
	if err := s.db.RecordReview(st.ID, cardID, r); err != nil {
		return nil, err
	}
	st.Reviews[cardID] = r
	return s.view(st, s.cat.Current(), false), nil
}

// FinishStudy marks a study as finished. Finishing twice is not an error.
func (s *Service) FinishStudy(_ context.Context, id string) (*StudyView, error) {
	s.studyMu.Lock()
	defer s.studyMu.Unlock()
	st, err := s.lookupStudy(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.FinishStudy(st.ID); err != nil {
		return nil, err
	}
	st.Finished = true
	return s.view(st, s.cat.Current(), false), nil
}

// lookupStudy returns the cached study or loads it. Callers hold studyMu.
func (s *Service) lookupStudy(id string) (*study.Study, error) {
	if st, ok := s.studies[id]; ok {
		return st, nil
	}
	st, err := s.db.GetStudy(id)
	if err != nil {
		return nil, err
	}
	s.studies[id] = st
	return st, nil
}

// view snapshots st for output. Callers hold studyMu.
func (s *Service) view(st *study.Study, d *deck.Deck, withSummary bool) *StudyView {
	v := &StudyView{
		ID:        st.ID,
		Name:      st.Name,
		CreatedAt: st.CreatedAt,
		Finished:  st.Finished,
		Selection: slices.Clone(nonNilSlice(st.Selection)),
		Reviews:   maps.Clone(st.Reviews),
		Remaining: nonNilSlice(st.Remaining()),
		Missing:   []string{},
	}
	if v.Reviews == nil {
		v.Reviews = map[string]study.Rating{}
	}
	for _, id := range st.Selection {
		if _, ok := d.CardByID(id); !ok {
			v.Missing = append(v.Missing, id)
		}
	}
	if withSummary {
		v.Summary = summaryItems(d, st.Summary(d))
	}
	return v
}
