package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/flashdeck/internal/deckservice"
)

const columnWidth = 40

type summaryStyles struct {
	title, kind, tag, card, count lipgloss.Style
}

// newSummaryStyles binds the styles to w, so color is only emitted when w
// itself is a terminal.
func newSummaryStyles(w io.Writer) summaryStyles {
	r := lipgloss.NewRenderer(w)
	return summaryStyles{
		title: r.NewStyle().Underline(true),
		kind:  r.NewStyle().Width(5),
		tag:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Width(columnWidth),
		card:  r.NewStyle().Foreground(lipgloss.Color("7")).Width(columnWidth),
		count: r.NewStyle().Faint(true),
	}
}

// renderSummary writes one line per summary item to w and unknown IDs to errw.
func renderSummary(w, errw io.Writer, sum *deckservice.Summary) {
	st := newSummaryStyles(w)
	warn := lipgloss.NewRenderer(errw).NewStyle().Foreground(lipgloss.Color("11"))

	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("%d cards in %d items", sum.Cards, len(sum.Items))))
	for _, it := range sum.Items {
		var b strings.Builder
		b.WriteString(st.kind.Render(it.Kind))
		if it.Kind == "tag" {
			b.WriteString(st.tag.Render(it.Path))
			b.WriteString(st.count.Render(fmt.Sprintf("%d cards", it.Cards)))
		} else {
			b.WriteString(st.card.Render(it.ID))
			b.WriteString(st.count.Render(it.Name))
		}
		fmt.Fprintln(w, b.String())
	}
	for _, id := range sum.Unknown {
		fmt.Fprintln(errw, warn.Render("unknown card: "+id))
	}
}
