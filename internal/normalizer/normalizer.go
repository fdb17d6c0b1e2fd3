// Package normalizer cleans extracted PDF text before it is chunked and
// translated: it removes code points outside the supported scripts,
// collapses whitespace, drops fragment lines and repairs common mojibake.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pdf-translator/internal/types"
)

// Options configures a Normalizer
type Options struct {
	// MinLineLength drops lines whose trimmed length is at or below it
	MinLineLength int
	// PreserveParagraphs keeps newlines so later stages can see paragraph
	// breaks. Otherwise all whitespace collapses to single spaces.
	PreserveParagraphs bool
	// KeepShortLines disables the short line filter. Text that is about to
	// be laid out keeps headings like "서론" and list labels like "1.".
	KeepShortLines bool
	// Repairs replaces DefaultRepairTable when non-nil
	Repairs []types.Replacement
}

// Normalizer is safe for concurrent use; it holds no mutable state.
type Normalizer struct {
	minLineLength int
	preserve      bool
	keepShort     bool
	repairs       []types.Replacement
}

// New builds a Normalizer. A zero MinLineLength means 2.
func New(opts Options) *Normalizer {
	n := &Normalizer{
		minLineLength: opts.MinLineLength,
		preserve:      opts.PreserveParagraphs,
		keepShort:     opts.KeepShortLines,
		repairs:       opts.Repairs,
	}
	if n.minLineLength <= 0 {
		n.minLineLength = 2
	}
	if n.repairs == nil {
		n.repairs = DefaultRepairTable
	}
	return n
}

// FromConfig builds a Normalizer using the text settings of cfg, appending
// any configured repairs to the default table.
func FromConfig(cfg types.TextConfig) *Normalizer {
	return New(Options{
		MinLineLength:      cfg.MinLineLength,
		PreserveParagraphs: cfg.PreserveParagraphs,
		Repairs:            configRepairs(cfg),
	})
}

// ForLayout builds the Normalizer applied to text right before rendering.
// It filters, collapses and repairs like FromConfig but keeps line breaks
// and every non-blank line.
func ForLayout(cfg types.TextConfig) *Normalizer {
	return New(Options{
		PreserveParagraphs: true,
		KeepShortLines:     true,
		Repairs:            configRepairs(cfg),
	})
}

func configRepairs(cfg types.TextConfig) []types.Replacement {
	repairs := make([]types.Replacement, 0, len(DefaultRepairTable)+len(cfg.ExtraRepairs))
	repairs = append(repairs, DefaultRepairTable...)
	return append(repairs, cfg.ExtraRepairs...)
}

// Allowed reports whether r belongs to the accepted character set: printable
// ASCII, Latin-1 Supplement through Latin Extended-B, and the Hangul blocks.
func Allowed(r rune) bool {
	switch {
	case r >= 0x20 && r <= 0x7E:
		return true
	case r >= 0x80 && r <= 0x24F:
		return true
	case r >= 0x1100 && r <= 0x11FF:
		return true
	case r >= 0x3130 && r <= 0x318F:
		return true
	case r >= 0xAC00 && r <= 0xD7AF:
		return true
	}
	return false
}

// Normalize returns the cleaned text. It never fails; the result may be empty.
func (n *Normalizer) Normalize(text string) string {
	text = n.filter(text)
	text = n.collapse(text)
	if !n.keepShort {
		text = n.dropShortLines(text)
	}
	text = n.repair(text)
	// repairs can leave doubled or trailing spaces behind
	return n.collapse(text)
}

func (n *Normalizer) filter(text string) string {
	if n.preserve {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' && n.preserve:
			sb.WriteRune('\n')
		case r == '\r' && n.preserve:
			// CRLF and lone CR both become LF
			sb.WriteRune('\n')
		case Allowed(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// collapse turns whitespace runs into one space. In paragraph mode a run
// containing one newline becomes "\n" and a run with two or more becomes
// "\n\n".
func (n *Normalizer) collapse(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	inSpace := false
	newlines := 0
	flush := func() {
		if !inSpace {
			return
		}
		switch {
		case !n.preserve || newlines == 0:
			sb.WriteByte(' ')
		case newlines == 1:
			sb.WriteByte('\n')
		default:
			sb.WriteString("\n\n")
		}
		inSpace = false
		newlines = 0
	}

	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			if r == '\n' {
				newlines++
			}
			continue
		}
		flush()
		sb.WriteRune(r)
	}

	return strings.TrimSpace(sb.String())
}

func (n *Normalizer) dropShortLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		// an empty line between two kept lines is a paragraph break
		if trimmed == "" && n.preserve && i > 0 && len(kept) > 0 && kept[len(kept)-1] != "" {
			kept = append(kept, "")
			continue
		}
		if utf8.RuneCountInString(trimmed) > n.minLineLength {
			kept = append(kept, trimmed)
		}
	}
	for len(kept) > 0 && kept[len(kept)-1] == "" {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, "\n")
}

func (n *Normalizer) repair(text string) string {
	for _, r := range n.repairs {
		if r.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, r.From, r.To)
	}
	return text
}
