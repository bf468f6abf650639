package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/flashdeck/internal/deckservice"
)

func TestRenderSummary(t *testing.T) {
	sum := &deckservice.Summary{
		Items: []deckservice.SummaryItem{
			{Kind: "tag", Path: "math.algebra", Name: "algebra", Cards: 2},
			{Kind: "card", ID: "c3", Name: "Limits", Cards: 1},
		},
		Cards:   3,
		Unknown: []string{"ghost"},
	}

	var out, errOut bytes.Buffer
	renderSummary(&out, &errOut, sum)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want title plus two items", lines)
	}
	if !strings.Contains(lines[0], "3 cards in 2 items") {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.Contains(lines[1], "math.algebra") || !strings.Contains(lines[1], "2 cards") {
		t.Errorf("tag line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "c3") || !strings.Contains(lines[2], "Limits") {
		t.Errorf("card line = %q", lines[2])
	}
	if !strings.Contains(errOut.String(), "unknown card: ghost") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRenderSummary_PlainWhenNotTerminal(t *testing.T) {
	sum := &deckservice.Summary{
		Items:   []deckservice.SummaryItem{{Kind: "tag", Path: "math", Name: "math", Cards: 3}},
		Cards:   3,
		Unknown: []string{"ghost"},
	}

	var out, errOut bytes.Buffer
	renderSummary(&out, &errOut, sum)

	for name, got := range map[string]string{"stdout": out.String(), "stderr": errOut.String()} {
		if strings.Contains(got, "\x1b[") {
			t.Errorf("%s contains escape sequences: %q", name, got)
		}
	}
}
