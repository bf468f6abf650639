package parser

import (
	"errors"
	"slices"
	"testing"
)

func TestParse_HeaderAndCards(t *testing.T) {
	input := []byte(`#import "lib.typ": *

#card("c1", "Group axioms", ("math.algebra", "exam.final",))
What are the group axioms?
#answer
Closure, associativity, identity, inverses.
#card("c2", "Ring", ("math.algebra"))
Define a ring.
#answer
An abelian group with a compatible multiplication.
`)
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header != "#import \"lib.typ\": *\n\n" {
		t.Errorf("header = %q", r.Header)
	}
	if len(r.Cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2", len(r.Cards))
	}

	c := r.Cards[0]
	if c.ID != "c1" || c.Name != "Group axioms" {
		t.Errorf("card = %+v", c)
	}
	if !slices.Equal(c.Paths, []string{"math.algebra", "exam.final"}) {
		t.Errorf("paths = %v", c.Paths)
	}
	if c.Question != "\nWhat are the group axioms?\n" {
		t.Errorf("question = %q", c.Question)
	}
	if c.Answer != "\nClosure, associativity, identity, inverses.\n" {
		t.Errorf("answer = %q", c.Answer)
	}
	if r.Cards[1].Answer != "\nAn abelian group with a compatible multiplication.\n" {
		t.Errorf("last answer = %q", r.Cards[1].Answer)
	}
}

func TestParse_NoHeader(t *testing.T) {
	r, err := Parse([]byte("#card(\"a\", \"A\", ())\nq\n#answer\na"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header != "" {
		t.Errorf("header = %q, want empty", r.Header)
	}
	if len(r.Cards) != 1 || len(r.Cards[0].Paths) != 0 {
		t.Errorf("cards = %+v", r.Cards)
	}
}

func TestParse_WhitespaceOnlyHeaderDropped(t *testing.T) {
	r, err := Parse([]byte("\n\n  #card(\"a\",\"A\",(\"x\"))q#answer a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header != "" {
		t.Errorf("header = %q, want empty", r.Header)
	}
}

func TestParse_NoCards(t *testing.T) {
	r, err := Parse([]byte("= Just a document\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Cards) != 0 || r.Skipped {
		t.Errorf("result = %+v", r)
	}
}

func TestParse_SkipMarkers(t *testing.T) {
	for _, m := range skipMarkers {
		r, err := Parse([]byte(m + "\n#card(\"a\", \"A\", ())\nq\n#answer\na"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Skipped || len(r.Cards) != 0 {
			t.Errorf("%s: result = %+v, want skipped", m, r)
		}
	}
}

func TestParse_MalformedHeader(t *testing.T) {
	_, err := Parse([]byte("intro\n\n#card(\"a\", missing-quotes, ())\nq\n#answer\na"))
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if perr.Line != 3 {
		t.Errorf("line = %d, want 3", perr.Line)
	}
}

func TestParse_MissingAnswer(t *testing.T) {
	_, err := Parse([]byte("#card(\"a\", \"A\", ())\nq\n#card(\"b\", \"B\", ())\nq\n#answer\na"))
	if err == nil {
		t.Fatal("expected error for card without #answer")
	}
}

func TestBlockOffsets(t *testing.T) {
	src := "xx#card..#card..#card"
	got := blockOffsets(src, 2)
	if !slices.Equal(got, []int{2, 9, 16}) {
		t.Errorf("offsets = %v", got)
	}
}
