// Package parser extracts cards from deck source files.
//
// A source file is an optional preamble followed by card blocks:
//
//	#card("id", "Name", ("math.algebra", "exam.final",))
//	question
//	#answer
//	answer
//
// The preamble is shared by every card of the file.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Ext is the file extension of deck sources.
const Ext = ".typ"

const (
	cardMarker   = "#card"
	answerMarker = "#answer"
)

// Files starting with one of these markers are support files, not decks.
var skipMarkers = []string{"//![FLASHBANG IGNORE]", "//![FLASHBANG INCLUDE]"}

var (
	headerRe = regexp.MustCompile(`^#card\s*\(\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*\(\s*((?:"[^"]*"\s*(?:,\s*)?)*)\)\s*\)`)
	pathRe   = regexp.MustCompile(`"([^"]*)"`)
)

// Card is one parsed card block.
type Card struct {
	ID       string
	Name     string
	Paths    []string
	Question string
	Answer   string
}

// Result holds the output of parsing a source file.
type Result struct {
	Header  string
	Cards   []Card
	Skipped bool
}

// Error reports a malformed card block.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parser: line %d: %s", e.Line, e.Msg)
}

// Parse extracts the preamble and card blocks from raw source bytes.
func Parse(data []byte) (*Result, error) {
	src := string(data)
	for _, m := range skipMarkers {
		if strings.HasPrefix(src, m) {
			return &Result{Skipped: true}, nil
		}
	}

	first := strings.Index(src, cardMarker)
	if first < 0 {
		return &Result{}, nil
	}

	res := &Result{}
	if header := src[:first]; strings.TrimSpace(header) != "" {
		res.Header = header
	}

	for _, off := range blockOffsets(src, first) {
		card, err := parseBlock(src, off)
		if err != nil {
			return nil, err
		}
		res.Cards = append(res.Cards, *card)
	}
	return res, nil
}

// blockOffsets returns the start offset of every card block, the first at from.
func blockOffsets(src string, from int) []int {
	offs := []int{from}
	for pos := from + len(cardMarker); ; {
		i := strings.Index(src[pos:], cardMarker)
		if i < 0 {
			return offs
		}
		offs = append(offs, pos+i)
		pos += i + len(cardMarker)
	}
}

// parseBlock parses the card block starting at off and ending at the next
// card marker or the end of src.
func parseBlock(src string, off int) (*Card, error) {
	end := len(src)
	if i := strings.Index(src[off+len(cardMarker):], cardMarker); i >= 0 {
		end = off + len(cardMarker) + i
	}
	block := src[off:end]

	m := headerRe.FindStringSubmatch(block)
	if m == nil {
		return nil, &Error{Line: lineOf(src, off), Msg: "malformed #card header"}
	}
	var paths []string
	for _, p := range pathRe.FindAllStringSubmatch(m[3], -1) {
		paths = append(paths, p[1])
	}

	rest := block[len(m[0]):]
	ans := strings.Index(rest, answerMarker)
	if ans < 0 {
		return nil, &Error{Line: lineOf(src, off), Msg: fmt.Sprintf("card %q has no %s", m[1], answerMarker)}
	}

	return &Card{
		ID:       m[1],
		Name:     m[2],
		Paths:    paths,
		Question: rest[:ans],
		Answer:   rest[ans+len(answerMarker):],
	}, nil
}

func lineOf(src string, off int) int {
	return strings.Count(src[:off], "\n") + 1
}
