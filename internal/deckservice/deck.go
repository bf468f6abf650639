package deckservice

import (
	"context"
	"fmt"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/deck"
	"github.com/starford/flashdeck/internal/index"
)

const (
	defaultCardLimit = 50
	maxCardLimit     = 500
)

// TagNode is a tag with its subtree, as returned by Tree.
type TagNode struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Cards    int       `json:"cards"`
	Children []TagNode `json:"children"`
}

// TagRef is a lightweight tag reference.
type TagRef struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Cards int    `json:"cards"`
}

// CardRef is a lightweight card reference.
type CardRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// TagDetail is the full representation of one tag.
type TagDetail struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Parent     string    `json:"parent,omitempty"`
	Ancestors  []string  `json:"ancestors"`
	Children   []TagRef  `json:"children"`
	Cards      []CardRef `json:"cards"`
	TotalCards int       `json:"total_cards"`
}

// CardDetail is the full representation of one card.
type CardDetail struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Header   string   `json:"header,omitempty"`
	Source   string   `json:"source"`
	Tags     []string `json:"tags"`
}

// SummaryItem is one element of a selection summary: a tag standing for all
// of its cards, or a single card.
type SummaryItem struct {
	Kind  string `json:"kind"`
	Path  string `json:"path,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Cards int    `json:"cards"`
}

// Summary is the result of summarizing a selection.
type Summary struct {
	Items   []SummaryItem `json:"items"`
	Cards   int           `json:"cards"`
	Unknown []string      `json:"unknown"`
}

// Tree returns the whole tag forest, roots in first-seen order.
func (s *Service) Tree(_ context.Context) []TagNode {
	d := s.cat.Current()
	out := make([]TagNode, 0, len(d.Roots()))
	for _, r := range d.Roots() {
		out = append(out, tagNode(d, r))
	}
	return out
}

func tagNode(d *deck.Deck, id deck.TagID) TagNode {
	t := d.Tag(id)
	n := TagNode{
		Path:     t.FullPath,
		Name:     t.Name,
		Cards:    len(t.IndirectCards()),
		Children: make([]TagNode, 0, len(t.Children())),
	}
	for _, c := range t.Children() {
		n.Children = append(n.Children, tagNode(d, c))
	}
	return n
}

// GetTag returns a tag by its full path.
func (s *Service) GetTag(_ context.Context, path string) (*TagDetail, error) {
	d := s.cat.Current()
	id, ok := d.TagByPath(path)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	t := d.Tag(id)
	out := &TagDetail{
		Path:       t.FullPath,
		Name:       t.Name,
		Ancestors:  make([]string, 0, len(t.Ancestors)),
		Children:   make([]TagRef, 0, len(t.Children())),
		Cards:      make([]CardRef, 0, len(t.DirectCards())),
		TotalCards: len(t.IndirectCards()),
	}
	for _, a := range t.Ancestors {
		out.Ancestors = append(out.Ancestors, d.Tag(a).FullPath)
	}
	if p, ok := t.Parent(); ok {
		out.Parent = d.Tag(p).FullPath
	}
	for _, c := range t.Children() {
		ct := d.Tag(c)
		out.Children = append(out.Children, TagRef{Path: ct.FullPath, Name: ct.Name, Cards: len(ct.IndirectCards())})
	}
	for _, c := range t.DirectCards() {
		out.Cards = append(out.Cards, cardRef(d, c))
	}
	return out, nil
}

func cardRef(d *deck.Deck, id deck.CardID) CardRef {
	c := d.Card(id)
	return CardRef{ID: c.ID, Name: c.Name, Source: c.Source}
}

// ListCards returns a page of cards and the total count. With a tag, the
// cards under that tag or any of its descendants are listed.
func (s *Service) ListCards(_ context.Context, tag string, limit, offset int) ([]CardRef, int, error) {
	if limit <= 0 {
		limit = defaultCardLimit
	}
	limit = min(limit, maxCardLimit)
	offset = max(offset, 0)

	d := s.cat.Current()
	var ids []deck.CardID
	if tag != "" {
		t, ok := d.TagByPath(tag)
		if !ok {
			return nil, 0, apperr.ErrNotFound
		}
		ids = d.Tag(t).IndirectCards()
	} else {
		ids = make([]deck.CardID, d.NumCards())
		for i := range ids {
			ids[i] = deck.CardID(i)
		}
	}

	total := len(ids)
	start := min(offset, total)
	end := min(start+limit, total)
	out := make([]CardRef, 0, end-start)
	for _, c := range ids[start:end] {
		out = append(out, cardRef(d, c))
	}
	return out, total, nil
}

// GetCard returns a card by ID.
func (s *Service) GetCard(_ context.Context, id string) (*CardDetail, error) {
	d := s.cat.Current()
	cid, ok := d.CardByID(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	c := d.Card(cid)
	out := &CardDetail{
		ID:       c.ID,
		Name:     c.Name,
		Question: c.Question,
		Answer:   c.Answer,
		Header:   c.Header,
		Source:   c.Source,
		Tags:     make([]string, 0, len(c.Locations)),
	}
	for _, t := range c.Locations {
		out.Tags = append(out.Tags, d.Tag(t).FullPath)
	}
	return out, nil
}

// Search delegates full-text card search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalid)
	}
	res, err := s.db.SearchCards(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Summarize condenses a selection of card IDs against the current snapshot.
// IDs the snapshot does not know are reported in Unknown.
func (s *Service) Summarize(_ context.Context, cardIDs []string) *Summary {
	d := s.cat.Current()
	sel := make([]deck.CardID, 0, len(cardIDs))
	unknown := []string{}
	seen := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := d.CardByID(id); ok {
			sel = append(sel, c)
		} else {
			unknown = append(unknown, id)
		}
	}
	return &Summary{
		Items:   summaryItems(d, d.Summarize(sel)),
		Cards:   len(sel),
		Unknown: unknown,
	}
}

func summaryItems(d *deck.Deck, items []deck.Item) []SummaryItem {
	out := make([]SummaryItem, 0, len(items))
	for _, it := range items {
		si := SummaryItem{Kind: it.Kind.String(), Name: d.Name(it), Cards: d.LeafCount(it)}
		if t, ok := it.AsTag(); ok {
			si.Path = d.Tag(t).FullPath
		} else if c, ok := it.AsCard(); ok {
			si.ID = d.Card(c).ID
		}
		out = append(out, si)
	}
	return out
}
