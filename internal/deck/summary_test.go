package deck

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

func selectIDs(t *testing.T, d *Deck, ids ...string) []CardID {
	t.Helper()
	out := make([]CardID, len(ids))
	for i, id := range ids {
		out[i] = mustCard(t, d, id)
	}
	return out
}

func TestSummarize_Empty(t *testing.T) {
	d := Build([]Record{{ID: "c1", Paths: []string{"root"}}})
	if got := d.Summarize(nil); len(got) != 0 {
		t.Errorf("summary = %v, want empty", got)
	}
}

func TestSummarize_SingleDirectoryFullySelected(t *testing.T) {
	d := Build([]Record{{ID: "c1", Paths: []string{"root"}}})
	got := d.Summarize(selectIDs(t, d, "c1"))
	want := []Item{TagItem(mustTag(t, d, "root"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want %v", got, want)
	}
}

func TestSummarize_ParentPreferred(t *testing.T) {
	d := Build([]Record{
		{ID: "c1", Paths: []string{"root.A"}},
		{ID: "c2", Paths: []string{"root.B"}},
	})
	got := d.Summarize(selectIDs(t, d, "c1", "c2"))
	want := []Item{TagItem(mustTag(t, d, "root"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [root]", got)
	}
}

func TestSummarize_PartialParent(t *testing.T) {
	d := Build([]Record{
		{ID: "c1", Paths: []string{"root.A"}},
		{ID: "c2", Paths: []string{"root.B"}},
	})
	got := d.Summarize(selectIDs(t, d, "c1"))
	want := []Item{TagItem(mustTag(t, d, "root.A"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [root.A]", got)
	}
}

func TestSummarize_PreferBiggerTag(t *testing.T) {
	records := []Record{
		{ID: "unselected", Paths: []string{"root.Unselected"}},
		{ID: "c1", Paths: []string{"root.Small", "root.Big"}},
	}
	ids := []string{"c1"}
	for i := 2; i <= 10; i++ {
		id := fmt.Sprintf("c%d", i)
		records = append(records, Record{ID: id, Paths: []string{"root.Big"}})
		ids = append(ids, id)
	}
	d := Build(records)

	got := d.Summarize(selectIDs(t, d, ids...))
	want := []Item{TagItem(mustTag(t, d, "root.Big"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [root.Big]", got)
	}
}

func TestSummarize_DisjointPartialCoverage(t *testing.T) {
	d := Build([]Record{
		{ID: "c1", Paths: []string{"root.A"}},
		{ID: "c2", Paths: []string{"root.B"}},
		{ID: "c3", Paths: []string{"root.B"}},
	})
	got := d.Summarize(selectIDs(t, d, "c1", "c2"))
	want := []Item{TagItem(mustTag(t, d, "root.A")), CardItem(mustCard(t, d, "c2"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [root.A c2]", got)
	}
}

func TestSummarize_SharedNodeAcrossRoots(t *testing.T) {
	// c1 lives under two roots; each root scan reaches it.
	d := Build([]Record{
		{ID: "c1", Paths: []string{"x.a", "y.b"}},
		{ID: "c2", Paths: []string{"x.a"}},
		{ID: "c3", Paths: []string{"y.b"}},
	})
	got := d.Summarize(selectIDs(t, d, "c1"))
	want := []Item{CardItem(mustCard(t, d, "c1"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [c1]", got)
	}
}

func TestSummarize_OverlappingTagsStayDisjoint(t *testing.T) {
	d := Build([]Record{
		{ID: "c1", Paths: []string{"x"}},
		{ID: "c2", Paths: []string{"x", "y"}},
		{ID: "c3", Paths: []string{"y"}},
	})
	got := d.Summarize(selectIDs(t, d, "c1", "c2", "c3"))
	want := []Item{TagItem(mustTag(t, d, "x")), CardItem(mustCard(t, d, "c3"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [x c3]", got)
	}
}

func TestSummarize_CardWithoutLocations(t *testing.T) {
	d := Build([]Record{
		{ID: "loose"},
		{ID: "c1", Paths: []string{"root"}},
	})
	got := d.Summarize(selectIDs(t, d, "loose", "c1"))
	want := []Item{TagItem(mustTag(t, d, "root")), CardItem(mustCard(t, d, "loose"))}
	if !slices.Equal(got, want) {
		t.Errorf("summary = %v, want [root loose]", got)
	}
}

func TestSummarize_IgnoresForeignAndDuplicateHandles(t *testing.T) {
	d := Build([]Record{{ID: "c1", Paths: []string{"root"}}})
	got := d.Summarize([]CardID{0, 0, 42, -1})
	if len(got) != 1 || got[0] != TagItem(mustTag(t, d, "root")) {
		t.Errorf("summary = %v, want [root]", got)
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	d := randomDeck(rand.New(rand.NewPCG(7, 7)), 40)
	sel := []CardID{1, 3, 5, 7, 11, 13, 17, 19, 23}
	first := d.Summarize(sel)
	second := d.Summarize(sel)
	if !slices.Equal(first, second) {
		t.Errorf("summaries differ:\n%v\n%v", first, second)
	}
}

func TestSummarize_CoverageProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 200; round++ {
		d := randomDeck(r, 1+r.IntN(30))

		var sel []CardID
		want := make(map[CardID]struct{})
		for c := 0; c < d.NumCards(); c++ {
			if r.IntN(2) == 0 {
				sel = append(sel, CardID(c))
				want[CardID(c)] = struct{}{}
			}
		}

		got := d.Summarize(sel)
		seen := make(map[CardID]Item)
		for _, it := range got {
			for _, c := range d.Leaves(it) {
				if _, ok := want[c]; !ok {
					t.Fatalf("round %d: item %v covers unselected card %d", round, it, c)
				}
				if prev, dup := seen[c]; dup {
					t.Fatalf("round %d: card %d covered by %v and %v", round, c, prev, it)
				}
				seen[c] = it
			}
		}
		if len(seen) != len(want) {
			t.Fatalf("round %d: covered %d cards, want %d", round, len(seen), len(want))
		}
	}
}

func TestSummaryCards(t *testing.T) {
	d := Build([]Record{
		{ID: "c1", Paths: []string{"root.A"}},
		{ID: "c2", Paths: []string{"root.B"}},
	})
	items := []Item{TagItem(mustTag(t, d, "root")), CardItem(mustCard(t, d, "c1"))}
	got := d.SummaryCards(items)
	if !slices.Equal(got, selectIDs(t, d, "c1", "c2")) {
		t.Errorf("cards = %v", got)
	}
}

// randomDeck files n cards under up to three paths drawn from a small tree,
// leaving some cards without any location.
func randomDeck(r *rand.Rand, n int) *Deck {
	paths := []string{
		"a", "a.x", "a.x.1", "a.x.2", "a.y",
		"b", "b.x", "b.z.deep",
		"c",
	}
	records := make([]Record, n)
	for i := range records {
		k := r.IntN(4)
		ps := make([]string, k)
		for j := range ps {
			ps[j] = paths[r.IntN(len(paths))]
		}
		records[i] = Record{ID: fmt.Sprintf("card-%d", i), Paths: ps}
	}
	return Build(records)
}
