package mcpserver

// CardFormatContract describes the deck source format that LLM consumers
// should follow when writing card files.
const CardFormatContract = `# Flashdeck Card Format Contract

A deck is a directory of ` + "`" + `.typ` + "`" + ` source files. Each file holds any number of cards.

## Structure

` + "```" + `typst
#import "common.typ": *          // OPTIONAL header, shared by every card of the file

#card("group-axioms", "Group axioms", ("math.algebra", "exam.final",))
What are the group axioms?
#answer
Closure, associativity, identity and inverses.

#card("ring", "Ring", ("math.algebra",))
Define a ring.
#answer
An abelian group with a compatible associative multiplication.
` + "```" + `

## Rules

1. **Header.** Everything before the first ` + "`" + `#card` + "`" + ` is the file header. It is
   attached to every card of the file and may be empty.
2. **Card line.** ` + "`" + `#card("<id>", "<name>", (<paths>))` + "`" + ` starts a card. The id must
   be unique across the whole deck. A repeated id within a file is ignored after
   its first occurrence; across files the most recently written file owns it.
3. **Paths.** Each path is a quoted, dot-separated tag path such as ` + "`" + `"math.algebra"` + "`" + `.
   A card may have several paths or none. A trailing comma is allowed.
   Every prefix of a path is a tag too: ` + "`" + `math.algebra` + "`" + ` lives under ` + "`" + `math` + "`" + `.
4. **Question and answer.** The text after the card line up to ` + "`" + `#answer` + "`" + ` is the
   question; the text after ` + "`" + `#answer` + "`" + ` up to the next ` + "`" + `#card` + "`" + ` is the answer.
   Every card MUST contain ` + "`" + `#answer` + "`" + `.
5. **Skipped files.** A file starting with ` + "`" + `//![FLASHBANG IGNORE]` + "`" + ` or
   ` + "`" + `//![FLASHBANG INCLUDE]` + "`" + ` holds no cards (use it for shared imports).
6. **File paths** end with ` + "`" + `.typ` + "`" + ` and use forward slashes. Hidden files and
   directories are ignored.
7. **Errors.** A malformed card line or a missing ` + "`" + `#answer` + "`" + ` rejects the whole file.

## Selections

Tools that take a selection accept card ids separated by commas. The summary
of a selection lists the largest tags whose cards are all selected, then the
remaining cards one by one.
`
