package deck

// Kind distinguishes the two Item variants.
type Kind uint8

const (
	KindTag Kind = iota + 1
	KindCard
)

func (k Kind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindCard:
		return "card"
	default:
		return "unknown"
	}
}

// Item is either a Tag or a Card of a Deck. Items are comparable and equal
// items denote the same node.
type Item struct {
	Kind Kind
	ID   int
}

// TagItem wraps a tag handle.
func TagItem(id TagID) Item { return Item{Kind: KindTag, ID: int(id)} }

// CardItem wraps a card handle.
func CardItem(id CardID) Item { return Item{Kind: KindCard, ID: int(id)} }

// AsTag returns the tag handle if the item is a tag.
func (i Item) AsTag() (TagID, bool) { return TagID(i.ID), i.Kind == KindTag }

// AsCard returns the card handle if the item is a card.
func (i Item) AsCard() (CardID, bool) { return CardID(i.ID), i.Kind == KindCard }

// Name returns the display name: the last path segment of a tag, the name of a card.
func (d *Deck) Name(it Item) string {
	switch it.Kind {
	case KindTag:
		return d.tags[it.ID].Name
	case KindCard:
		return d.cards[it.ID].Name
	}
	return ""
}

// Parents returns a card's location tags, or a tag's immediate parent.
func (d *Deck) Parents(it Item) []Item {
	switch it.Kind {
	case KindTag:
		if p, ok := d.tags[it.ID].Parent(); ok {
			return []Item{TagItem(p)}
		}
	case KindCard:
		locs := d.cards[it.ID].Locations
		out := make([]Item, len(locs))
		for i, t := range locs {
			out[i] = TagItem(t)
		}
		return out
	}
	return nil
}

// Children returns a tag's child tags followed by its direct cards. Cards have none.
func (d *Deck) Children(it Item) []Item {
	if it.Kind != KindTag {
		return nil
	}
	tag := &d.tags[it.ID]
	out := make([]Item, 0, len(tag.children)+len(tag.direct))
	for _, c := range tag.children {
		out = append(out, TagItem(c))
	}
	for _, c := range tag.direct {
		out = append(out, CardItem(c))
	}
	return out
}

// Leaves returns the cards reachable from the item: the card itself, or a
// tag's indirect cards.
func (d *Deck) Leaves(it Item) []CardID {
	switch it.Kind {
	case KindTag:
		return d.tags[it.ID].indirect
	case KindCard:
		return []CardID{CardID(it.ID)}
	}
	return nil
}

// LeafCount returns len(d.Leaves(it)) without allocating.
func (d *Deck) LeafCount(it Item) int {
	switch it.Kind {
	case KindTag:
		return len(d.tags[it.ID].indirect)
	case KindCard:
		return 1
	}
	return 0
}
