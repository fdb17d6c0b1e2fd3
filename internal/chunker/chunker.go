// Package chunker splits normalized text into size-bounded chunks for
// translation. Chunks break on sentence boundaries where possible and on
// word boundaries otherwise, never inside a word.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// DefaultBudget is the chunk size used when none is configured
const DefaultBudget = 3000

// sentenceEnd matches terminal punctuation followed by whitespace
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Chunk is one ordered piece of the source text
type Chunk struct {
	Index int
	Text  string
}

// Chunker splits text under a fixed budget
type Chunker struct {
	budget int
}

// New returns a Chunker with the given budget; non-positive means DefaultBudget
func New(budget int) *Chunker {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Chunker{budget: budget}
}

func (c *Chunker) Budget() int {
	return c.budget
}

func (c *Chunker) Split(text string) []Chunk {
	return Split(text, c.budget)
}

// Length returns the size of s in UTF-16 code units, the unit budgets are
// expressed in
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace.
// The punctuation stays with its sentence; the whitespace is discarded.
func Sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// Split greedily packs sentences into chunks of at most budget code units,
// joining sentences with a single space. A sentence longer than the budget
// is packed word by word; a single word longer than the budget becomes its
// own chunk.
func Split(text string, budget int) []Chunk {
	if budget <= 0 {
		budget = DefaultBudget
	}

	var (
		texts   []string
		current string
		curLen  int
	)
	emit := func() {
		if current != "" {
			texts = append(texts, current)
		}
		current, curLen = "", 0
	}

	for _, sentence := range Sentences(strings.TrimSpace(text)) {
		if sentence == "" {
			continue
		}
		sLen := Length(sentence)

		if current != "" && curLen+1+sLen <= budget {
			current += " " + sentence
			curLen += 1 + sLen
			continue
		}
		if current == "" && sLen <= budget {
			current, curLen = sentence, sLen
			continue
		}

		emit()
		if sLen <= budget {
			current, curLen = sentence, sLen
			continue
		}

		// Over-long sentence: pack words, keep the remainder open so the next
		// sentence can join it.
		for _, word := range strings.Fields(sentence) {
			wLen := Length(word)
			switch {
			case current == "":
				current, curLen = word, wLen
			case curLen+1+wLen <= budget:
				current += " " + word
				curLen += 1 + wLen
			default:
				emit()
				current, curLen = word, wLen
			}
		}
	}
	emit()

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Index: i, Text: t}
	}
	return chunks
}

// Join reassembles chunk texts in index order separated by paragraph breaks
func Join(parts []string) string {
	return strings.Join(parts, "\n\n")
}
