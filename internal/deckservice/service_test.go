package deckservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/catalog"
	"github.com/starford/flashdeck/internal/checksum"
	"github.com/starford/flashdeck/internal/deck"
	"github.com/starford/flashdeck/internal/testutil"
)

type recorder struct {
	mu      sync.Mutex
	sources []string
	reloads int
}

func (r *recorder) SourceChanged(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, kind+":"+path)
}

func (r *recorder) DeckReloaded(*deck.Deck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads++
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sources)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv writes a small deck, loads it and returns the service.
//
//	math.algebra: c1, c2
//	math.analysis: c3
//	exam: c1
func testEnv(t *testing.T) (*Service, string, *recorder) {
	t.Helper()
	deckDir, store := testutil.TestDeck(t)
	testutil.WriteSource(t, deckDir, "algebra.typ",
		"#import \"common.typ\": *\n",
		testutil.CardSource("c1", "Groups", "math.algebra", "exam"),
		testutil.CardSource("c2", "Rings", "math.algebra"),
	)
	testutil.WriteSource(t, deckDir, "analysis/limits.typ",
		testutil.CardSource("c3", "Limits", "math.analysis"),
	)

	db := testutil.TestDB(t)
	logger := testLogger()
	rec := &recorder{}
	svc := NewService(store, db, catalog.New(db, logger), logger, WithNotifier(rec))
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc, deckDir, rec
}

func TestReload(t *testing.T) {
	deckDir, store := testutil.TestDeck(t)
	testutil.WriteSource(t, deckDir, "a.typ", testutil.CardSource("x", "X", "t"))
	db := testutil.TestDB(t)
	svc := NewService(store, db, catalog.New(db, testLogger()), testLogger())

	if svc.Ready() {
		t.Fatal("service should not be ready before the first reload")
	}
	res, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if res.Indexed != 1 || res.Cards != 1 || res.Tags != 1 || res.Roots != 1 {
		t.Errorf("result = %+v", res)
	}
	if !svc.Ready() || svc.Deck().Generation() != res.Generation {
		t.Error("snapshot not published")
	}
}

func TestTree(t *testing.T) {
	svc, _, _ := testEnv(t)
	tree := svc.Tree(context.Background())
	if len(tree) != 2 || tree[0].Path != "math" || tree[1].Path != "exam" {
		t.Fatalf("roots = %+v", tree)
	}
	math := tree[0]
	if math.Cards != 3 || len(math.Children) != 2 {
		t.Errorf("math = %+v", math)
	}
	if math.Children[0].Name != "algebra" || math.Children[0].Cards != 2 {
		t.Errorf("algebra = %+v", math.Children[0])
	}
}

func TestGetTag(t *testing.T) {
	svc, _, _ := testEnv(t)
	tag, err := svc.GetTag(context.Background(), "math.algebra")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if tag.Parent != "math" || !slices.Equal(tag.Ancestors, []string{"math"}) {
		t.Errorf("tag = %+v", tag)
	}
	if len(tag.Cards) != 2 || tag.TotalCards != 2 || tag.Cards[0].Source != "algebra.typ" {
		t.Errorf("cards = %+v", tag.Cards)
	}

	if _, err := svc.GetTag(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListCards(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	all, total, err := svc.ListCards(ctx, "", 0, 0)
	if err != nil || total != 3 || len(all) != 3 {
		t.Fatalf("all = %+v total=%d err=%v", all, total, err)
	}

	page, total, _ := svc.ListCards(ctx, "math", 1, 1)
	if total != 3 || len(page) != 1 || page[0].ID != "c2" {
		t.Errorf("page = %+v total=%d", page, total)
	}

	past, _, _ := svc.ListCards(ctx, "", 10, 99)
	if len(past) != 0 {
		t.Errorf("offset past end = %+v", past)
	}

	if _, _, err := svc.ListCards(ctx, "nope", 10, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetCard(t *testing.T) {
	svc, _, _ := testEnv(t)
	c, err := svc.GetCard(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if !slices.Equal(c.Tags, []string{"math.algebra", "exam"}) {
		t.Errorf("tags = %v", c.Tags)
	}
	if c.Header != "#import \"common.typ\": *\n" || c.Question != "\nQuestion c1?\n" {
		t.Errorf("card = %+v", c)
	}
	if _, err := svc.GetCard(context.Background(), "zz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	svc, _, _ := testEnv(t)
	res, err := svc.Search(context.Background(), "Limits", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "c3" {
		t.Errorf("results = %+v", res)
	}
	if _, err := svc.Search(context.Background(), "", 10); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty query err = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc, _, _ := testEnv(t)
	sum := svc.Summarize(context.Background(), []string{"c1", "c2", "c3", "c1", "ghost"})
	if sum.Cards != 3 || !slices.Equal(sum.Unknown, []string{"ghost"}) {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.Items) != 1 || sum.Items[0].Kind != "tag" || sum.Items[0].Path != "math" || sum.Items[0].Cards != 3 {
		t.Errorf("items = %+v", sum.Items)
	}

	// c3 covers math.analysis on its own; c2 is only half of math.algebra.
	sum = svc.Summarize(context.Background(), []string{"c3", "c2"})
	got := map[string]string{}
	for _, it := range sum.Items {
		got[it.Kind] = it.Path + it.ID
	}
	if len(sum.Items) != 2 || got["tag"] != "math.analysis" || got["card"] != "c2" {
		t.Errorf("items = %+v", sum.Items)
	}

	empty := svc.Summarize(context.Background(), nil)
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("empty selection items = %#v", empty.Items)
	}
}

func TestPutSource(t *testing.T) {
	svc, _, rec := testEnv(t)
	ctx := context.Background()

	content := []byte(testutil.CardSource("c4", "Series", "math.analysis"))
	src, created, err := svc.PutSource(ctx, "series.typ", content, "")
	if err != nil {
		t.Fatalf("PutSource: %v", err)
	}
	if !created || src.Cards != 1 || src.Checksum != checksum.Sum(content) {
		t.Errorf("source = %+v created=%v", src, created)
	}
	if _, err := svc.GetCard(ctx, "c4"); err != nil {
		t.Errorf("new card not visible: %v", err)
	}
	if !slices.Contains(rec.events(), "created:series.typ") {
		t.Errorf("events = %v", rec.events())
	}

	updated := []byte(testutil.CardSource("c4", "Power series", "math.analysis"))
	if _, _, err := svc.PutSource(ctx, "series.typ", updated, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale If-Match err = %v, want ErrConflict", err)
	}
	_, created, err = svc.PutSource(ctx, "series.typ", updated, `"`+src.Checksum+`"`)
	if err != nil || created {
		t.Fatalf("update err=%v created=%v", err, created)
	}
	c, _ := svc.GetCard(ctx, "c4")
	if c.Name != "Power series" {
		t.Errorf("name = %q", c.Name)
	}
}

func TestPutSource_Invalid(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	if _, _, err := svc.PutSource(ctx, "notes.md", []byte("x"), ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("wrong extension err = %v", err)
	}
	if _, _, err := svc.PutSource(ctx, "bad.typ", []byte("#card(oops\n"), ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("unparsable err = %v", err)
	}
	if _, _, err := svc.PutSource(ctx, "../escape.typ", []byte(""), ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("escape err = %v", err)
	}
	if _, _, err := svc.PutSource(ctx, "missing.typ", []byte(""), "abc"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("If-Match on missing err = %v", err)
	}
}

func TestGetAndListSources(t *testing.T) {
	svc, deckDir, _ := testEnv(t)
	ctx := context.Background()
	testutil.WriteSource(t, deckDir, "broken.typ", "#card(broken\n")

	list, err := svc.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	byPath := map[string]bool{}
	for _, s := range list {
		byPath[s.Path] = s.Indexed
	}
	if len(list) != 3 || !byPath["algebra.typ"] || !byPath["analysis/limits.typ"] || byPath["broken.typ"] {
		t.Errorf("sources = %+v", list)
	}

	src, err := svc.GetSource(ctx, "analysis/limits.typ")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if src.Cards != 1 || src.Content == "" {
		t.Errorf("source = %+v", src)
	}
	if _, err := svc.GetSource(ctx, "nope.typ"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSource(t *testing.T) {
	svc, _, rec := testEnv(t)
	ctx := context.Background()

	if err := svc.DeleteSource(ctx, "algebra.typ", "wrong"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if err := svc.DeleteSource(ctx, "algebra.typ", ""); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if svc.Deck().NumCards() != 1 {
		t.Errorf("cards = %d, want 1", svc.Deck().NumCards())
	}
	if _, err := svc.GetTag(ctx, "exam"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("tag only reached by deleted cards should be gone")
	}
	if !slices.Contains(rec.events(), "deleted:algebra.typ") {
		t.Errorf("events = %v", rec.events())
	}
	if err := svc.DeleteSource(ctx, "algebra.typ", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestMoveSource(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	if _, err := svc.MoveSource(ctx, "algebra.typ", "analysis/limits.typ"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	src, err := svc.MoveSource(ctx, "algebra.typ", "algebra/groups.typ")
	if err != nil {
		t.Fatalf("MoveSource: %v", err)
	}
	if src.Path != "algebra/groups.typ" {
		t.Errorf("path = %q", src.Path)
	}
	c, err := svc.GetCard(ctx, "c1")
	if err != nil || c.Source != "algebra/groups.typ" {
		t.Errorf("card after move = %+v, %v", c, err)
	}
	if _, err := svc.GetSource(ctx, "algebra.typ"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("old path should be gone")
	}
}

func TestStudyLifecycle(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	st, err := svc.CreateStudy(ctx, "algebra", []string{"c1", "c2", "c1"})
	if err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}
	if !slices.Equal(st.Selection, []string{"c1", "c2"}) {
		t.Errorf("selection = %v", st.Selection)
	}
	if len(st.Summary) != 1 || st.Summary[0].Path != "math.algebra" {
		t.Errorf("summary = %+v", st.Summary)
	}

	if _, err := svc.ReviewCard(ctx, st.ID, "c1", "good"); err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}
	if _, err := svc.ReviewCard(ctx, st.ID, "c3", "good"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("review outside selection err = %v", err)
	}
	if _, err := svc.ReviewCard(ctx, st.ID, "c2", "meh"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad rating err = %v", err)
	}

	got, err := svc.GetStudy(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStudy: %v", err)
	}
	if got.Reviews["c1"] != "Good" || !slices.Equal(got.Remaining, []string{"c2"}) {
		t.Errorf("study = %+v", got)
	}

	if _, err := svc.FinishStudy(ctx, st.ID); err != nil {
		t.Fatalf("FinishStudy: %v", err)
	}
	if _, err := svc.ReviewCard(ctx, st.ID, "c2", "easy"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("review after finish err = %v", err)
	}

	list, _ := svc.ListStudies(ctx)
	if len(list) != 1 || !list[0].Finished || list[0].Summary != nil {
		t.Errorf("list = %+v", list)
	}

	if err := svc.DeleteStudy(ctx, st.ID); err != nil {
		t.Fatalf("DeleteStudy: %v", err)
	}
	if _, err := svc.GetStudy(ctx, st.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateStudy_Invalid(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()
	if _, err := svc.CreateStudy(ctx, "", []string{"c1"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("no name err = %v", err)
	}
	if _, err := svc.CreateStudy(ctx, "x", nil); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty selection err = %v", err)
	}
	if _, err := svc.CreateStudy(ctx, "x", []string{"c1", "ghost"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("unknown card err = %v", err)
	}
}

func TestStudySummaryFollowsReload(t *testing.T) {
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	st, _ := svc.CreateStudy(ctx, "rings", []string{"c2"})
	if len(st.Summary) != 1 || st.Summary[0].Kind != "card" {
		t.Fatalf("summary = %+v", st.Summary)
	}

	// c1 leaves math.algebra, so c2 alone now covers the tag.
	moved := []byte("#import \"common.typ\": *\n" +
		testutil.CardSource("c1", "Groups", "exam") +
		testutil.CardSource("c2", "Rings", "math.algebra"))
	if _, _, err := svc.PutSource(ctx, "algebra.typ", moved, ""); err != nil {
		t.Fatalf("PutSource: %v", err)
	}

	got, _ := svc.GetStudy(ctx, st.ID)
	if len(got.Summary) != 1 || got.Summary[0].Kind != "tag" || got.Summary[0].Path != "math.algebra" {
		t.Errorf("summary after reload = %+v", got.Summary)
	}

	_ = svc.DeleteSource(ctx, "algebra.typ", "")
	got, _ = svc.GetStudy(ctx, st.ID)
	if !slices.Equal(got.Missing, []string{"c2"}) || len(got.Summary) != 0 {
		t.Errorf("study after delete = %+v", got)
	}
}

func TestWatch_PicksUpNewFile(t *testing.T) {
	svc, deckDir, rec := testEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	testutil.WriteSource(t, deckDir, "fresh.typ", testutil.CardSource("c9", "Fresh", "new.topic"))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := svc.GetCard(ctx, "c9"); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if _, err := svc.GetCard(ctx, "c9"); err != nil {
		t.Fatal("watcher change did not reach the snapshot")
	}
	if !slices.Contains(rec.events(), "created:fresh.typ") {
		t.Errorf("events = %v", rec.events())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop")
	}
}
