package study

import (
	"slices"
	"testing"
	"time"

	"github.com/starford/flashdeck/internal/deck"
)

func TestParseRating(t *testing.T) {
	r, err := ParseRating("good")
	if err != nil || r != RatingGood {
		t.Errorf("ParseRating(good) = %q, %v", r, err)
	}
	if _, err := ParseRating("meh"); err == nil {
		t.Error("expected error for unknown rating")
	}
}

func TestNew(t *testing.T) {
	s := New("exam", []string{"c1"}, time.Now())
	if s.ID == "" {
		t.Error("expected generated id")
	}
	if s.Reviews == nil {
		t.Error("reviews map should be initialised")
	}
}

func TestSummaryCachedPerSnapshot(t *testing.T) {
	records := []deck.Record{
		{ID: "c1", Paths: []string{"root.A"}},
		{ID: "c2", Paths: []string{"root.B"}},
	}
	d := deck.Build(records)
	s := New("s", []string{"c1", "missing"}, time.Now())

	first := s.Summary(d)
	a, _ := d.TagByPath("root.A")
	if !slices.Equal(first, []deck.Item{deck.TagItem(a)}) {
		t.Fatalf("summary = %v", first)
	}
	if &s.Summary(d)[0] != &first[0] {
		t.Error("summary should be memoised for the same snapshot")
	}

	// A rebuild with c2 removed makes root.A's parent fully selected.
	rebuilt := deck.Build(records[:1])
	got := s.Summary(rebuilt)
	root, _ := rebuilt.TagByPath("root")
	if !slices.Equal(got, []deck.Item{deck.TagItem(root)}) {
		t.Errorf("summary after rebuild = %v, want [root]", got)
	}
}

func TestSummaryEmptySelection(t *testing.T) {
	d := deck.Build([]deck.Record{{ID: "c1", Paths: []string{"a"}}})
	s := New("empty", nil, time.Now())
	if got := s.Summary(d); got == nil || len(got) != 0 {
		t.Errorf("summary = %v, want empty non-nil", got)
	}
}

func TestRemaining(t *testing.T) {
	s := New("s", []string{"c1", "c2", "c3"}, time.Now())
	s.Reviews["c2"] = RatingEasy
	if got := s.Remaining(); !slices.Equal(got, []string{"c1", "c3"}) {
		t.Errorf("remaining = %v", got)
	}
}
