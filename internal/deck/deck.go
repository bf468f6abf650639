// Package deck models cards filed under hierarchical dot-delimited tags and
// computes compact summaries of card selections.
//
// A Deck is an immutable snapshot: tags and cards are stored in arenas owned
// by the snapshot and reference each other only through TagID and CardID
// handles. Handles are meaningless outside the Deck that issued them.
package deck

import "sync/atomic"

// TagID addresses a tag inside one Deck.
type TagID int

// CardID addresses a card inside one Deck.
type CardID int

var generations atomic.Uint64

// Card is a leaf of the hierarchy.
type Card struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Header    string  `json:"header,omitempty"`
	Source    string  `json:"source,omitempty"`
	Locations []TagID `json:"-"`
}

// Tag is an interior node keyed by its full dotted path.
type Tag struct {
	FullPath  string
	Name      string
	Ancestors []TagID

	children []TagID
	childSet map[TagID]struct{}

	direct    []CardID
	directSet map[CardID]struct{}

	indirect    []CardID
	indirectSet map[CardID]struct{}
}

func newTag(fullPath string, ancestors []TagID) Tag {
	return Tag{
		FullPath:    fullPath,
		Name:        lastSegment(fullPath),
		Ancestors:   ancestors,
		childSet:    make(map[TagID]struct{}),
		directSet:   make(map[CardID]struct{}),
		indirectSet: make(map[CardID]struct{}),
	}
}

// Parent returns the immediate parent tag, if any.
func (t *Tag) Parent() (TagID, bool) {
	if len(t.Ancestors) == 0 {
		return 0, false
	}
	return t.Ancestors[len(t.Ancestors)-1], true
}

// Children returns the direct child tags in registration order.
func (t *Tag) Children() []TagID { return t.children }

// DirectCards returns the cards filed immediately under the tag.
func (t *Tag) DirectCards() []CardID { return t.direct }

// IndirectCards returns every card reachable through the tag or its descendants.
func (t *Tag) IndirectCards() []CardID { return t.indirect }

// HasCard reports whether c is among the tag's indirect cards.
func (t *Tag) HasCard(c CardID) bool {
	_, ok := t.indirectSet[c]
	return ok
}

func (t *Tag) addChild(child TagID) {
	if _, ok := t.childSet[child]; ok {
		return
	}
	t.childSet[child] = struct{}{}
	t.children = append(t.children, child)
}

func (t *Tag) addCard(c CardID) {
	if _, ok := t.directSet[c]; !ok {
		t.directSet[c] = struct{}{}
		t.direct = append(t.direct, c)
	}
	t.addCardIndirect(c)
}

func (t *Tag) addCardIndirect(c CardID) {
	if _, ok := t.indirectSet[c]; ok {
		return
	}
	t.indirectSet[c] = struct{}{}
	t.indirect = append(t.indirect, c)
}

// Deck is one immutable snapshot of the tag forest and its cards.
type Deck struct {
	generation uint64

	tags   []Tag
	byPath map[string]TagID
	roots  []TagID

	cards []Card
	byID  map[string]CardID
}

// Empty returns a snapshot with no tags and no cards.
func Empty() *Deck {
	return Build(nil)
}

// Generation identifies the snapshot. Every Build yields a new value.
func (d *Deck) Generation() uint64 { return d.generation }

// Cards returns every card of the snapshot in build order.
func (d *Deck) Cards() []Card { return d.cards }

// Roots returns the root tags in the order they were first reached.
func (d *Deck) Roots() []TagID { return d.roots }

// NumTags returns the number of tags in the snapshot.
func (d *Deck) NumTags() int { return len(d.tags) }

// NumCards returns the number of cards in the snapshot.
func (d *Deck) NumCards() int { return len(d.cards) }

// Tag returns the tag addressed by id. It panics on a foreign handle.
func (d *Deck) Tag(id TagID) *Tag { return &d.tags[id] }

// Card returns the card addressed by id. It panics on a foreign handle.
func (d *Deck) Card(id CardID) *Card { return &d.cards[id] }

// TagByPath looks a tag up by its full dotted path.
func (d *Deck) TagByPath(path string) (TagID, bool) {
	id, ok := d.byPath[path]
	return id, ok
}

// CardByID looks a card up by its external identifier.
func (d *Deck) CardByID(id string) (CardID, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// Root returns the first ancestor of t, or t itself when it has none.
func (d *Deck) Root(t TagID) TagID {
	tag := &d.tags[t]
	if len(tag.Ancestors) == 0 {
		return t
	}
	return tag.Ancestors[0]
}

func (d *Deck) validCard(id CardID) bool { return id >= 0 && int(id) < len(d.cards) }
