package deck

import "slices"

// Summarize reduces a selection of cards to the items that cover it: every
// selected card is a leaf of exactly one returned item and no returned item
// has a leaf outside the selection. Whole tags are preferred over their
// parts, and larger items over smaller ones.
//
// The scan starts at the roots of the selected cards' locations. A node whose
// leaves are all selected is taken as a candidate without descending into it;
// otherwise its children are scanned. Candidates are then ordered by leaf
// count, largest first and in discovery order among equals, and accepted
// greedily while they still cover an uncovered card. A candidate that shares
// some but not all of its cards with accepted items is split into its
// children.
//
// The result is in acceptance order; the children of a split candidate take
// its place in that order.
//
// Selected cards with no location are not reachable from any root and are
// appended as single-card items. Handles that do not belong to d and repeated
// handles are ignored.
func (d *Deck) Summarize(selected []CardID) []Item {
	sel := make(map[CardID]struct{}, len(selected))
	order := make([]CardID, 0, len(selected))
	for _, c := range selected {
		if !d.validCard(c) {
			continue
		}
		if _, dup := sel[c]; dup {
			continue
		}
		sel[c] = struct{}{}
		order = append(order, c)
	}
	if len(order) == 0 {
		return nil
	}

	var roots []TagID
	rootSeen := make(map[TagID]struct{})
	for _, c := range order {
		for _, loc := range d.cards[c].Locations {
			r := d.Root(loc)
			if _, ok := rootSeen[r]; ok {
				continue
			}
			rootSeen[r] = struct{}{}
			roots = append(roots, r)
		}
	}

	var candidates []Item
	found := make(map[Item]struct{})
	for _, r := range roots {
		d.collectCandidates(TagItem(r), sel, func(it Item) {
			if _, ok := found[it]; ok {
				return
			}
			found[it] = struct{}{}
			candidates = append(candidates, it)
		})
	}

	slices.SortStableFunc(candidates, func(a, b Item) int {
		return d.LeafCount(b) - d.LeafCount(a)
	})

	covered := make(map[CardID]struct{}, len(order))
	var out []Item
	var accept func(it Item)
	accept = func(it Item) {
		leaves := d.Leaves(it)
		fresh := 0
		for _, c := range leaves {
			if _, ok := covered[c]; !ok {
				fresh++
			}
		}
		switch {
		case fresh == 0:
			return
		case fresh < len(leaves):
			// Overlaps an accepted item through a card filed under two
			// tags; only the parts that are still uncovered may be taken.
			for _, child := range d.Children(it) {
				accept(child)
			}
			return
		}
		out = append(out, it)
		for _, c := range leaves {
			covered[c] = struct{}{}
		}
	}
	for _, it := range candidates {
		accept(it)
	}

	for _, c := range order {
		if _, ok := covered[c]; !ok {
			out = append(out, CardItem(c))
			covered[c] = struct{}{}
		}
	}
	return out
}

// collectCandidates emits it when all of its leaves are selected and
// otherwise recurses into its children.
func (d *Deck) collectCandidates(it Item, sel map[CardID]struct{}, emit func(Item)) {
	leaves := d.Leaves(it)
	if len(leaves) > 0 && containsAll(sel, leaves) {
		emit(it)
		return
	}
	for _, child := range d.Children(it) {
		d.collectCandidates(child, sel, emit)
	}
}

func containsAll(set map[CardID]struct{}, cards []CardID) bool {
	for _, c := range cards {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

// SummaryCards expands summary items back into the set of cards they cover,
// in item order.
func (d *Deck) SummaryCards(items []Item) []CardID {
	var out []CardID
	seen := make(map[CardID]struct{})
	for _, it := range items {
		for _, c := range d.Leaves(it) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
