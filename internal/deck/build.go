package deck

import "strings"

// Separator splits a tag path into segments.
const Separator = "."

// Record is one card as supplied by a card source, with its raw tag paths.
type Record struct {
	ID       string
	Name     string
	Question string
	Answer   string
	Header   string
	Source   string
	Paths    []string
}

// Build constructs the tag forest for records and returns the finished
// snapshot. Tags are created lazily the first time a path or one of its
// prefixes is seen; a path's ancestors always exist before the path itself.
//
// Empty segments ("a..b", "a.") are kept as tags named "". A record whose ID
// was already seen is skipped.
func Build(records []Record) *Deck {
	b := builder{
		d: &Deck{
			generation: generations.Add(1),
			byPath:     make(map[string]TagID),
			byID:       make(map[string]CardID, len(records)),
			cards:      make([]Card, 0, len(records)),
		},
		rootSeen: make(map[TagID]struct{}),
	}
	for _, r := range records {
		b.addRecord(r)
	}
	return b.d
}

type builder struct {
	d        *Deck
	rootSeen map[TagID]struct{}
}

func (b *builder) addRecord(r Record) {
	d := b.d
	if _, dup := d.byID[r.ID]; dup {
		return
	}
	id := CardID(len(d.cards))
	d.byID[r.ID] = id
	d.cards = append(d.cards, Card{
		ID:       r.ID,
		Name:     r.Name,
		Question: r.Question,
		Answer:   r.Answer,
		Header:   r.Header,
		Source:   r.Source,
	})

	var locations []TagID
	seen := make(map[TagID]struct{}, len(r.Paths))
	for _, p := range r.Paths {
		t := b.resolve(p)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		locations = append(locations, t)

		d.tags[t].addCard(id)
		for _, a := range d.tags[t].Ancestors {
			d.tags[a].addCardIndirect(id)
		}
	}
	d.cards[id].Locations = locations
}

// resolve returns the tag for path, creating it and its ancestors on first use.
func (b *builder) resolve(path string) TagID {
	d := b.d
	if t, ok := d.byPath[path]; ok {
		return t
	}

	var ancestors []TagID
	for i := 0; i < len(path); i++ {
		if path[i] != Separator[0] || i == 0 {
			continue
		}
		ancestors = append(ancestors, b.resolve(path[:i]))
	}

	t := TagID(len(d.tags))
	d.tags = append(d.tags, newTag(path, ancestors))
	d.byPath[path] = t

	if len(ancestors) > 0 {
		d.tags[ancestors[len(ancestors)-1]].addChild(t)
	}
	root := t
	if len(ancestors) > 0 {
		root = ancestors[0]
	}
	if _, ok := b.rootSeen[root]; !ok {
		b.rootSeen[root] = struct{}{}
		d.roots = append(d.roots, root)
	}
	return t
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+len(Separator):]
	}
	return path
}
