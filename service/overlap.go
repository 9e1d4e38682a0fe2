package service

import (
	"sort"
	"strings"

	"guidesearch-backend/models"
)

// DefaultMinOverlap is the shortest boundary overlap worth stripping.
// Anything shorter is more likely a common phrase than real chunking
// overlap.
const DefaultMinOverlap = 50

// FindOverlap returns the longest string that is both a suffix of a and a
// prefix of b and at least minLength runes long, or "" when no such
// overlap exists. The scan runs from the longest possible overlap down,
// so the first hit wins. Comparison is rune-based; corpus text includes
// Japanese and must never be split mid-character.
func FindOverlap(a, b string, minLength int) string {
	if minLength < 1 {
		minLength = 1
	}

	ra := []rune(a)
	rb := []rune(b)

	max := len(ra)
	if len(rb) < max {
		max = len(rb)
	}

	for length := max; length >= minLength; length-- {
		if string(ra[len(ra)-length:]) == string(rb[:length]) {
			return string(rb[:length])
		}
	}
	return ""
}

// StitchContext merges a match's context windows into one contiguous text
// block. Windows are ordered by document position; the matched chunk is
// the anchor and is kept verbatim, while every other window has
// duplicated boundary text stripped. Overlap detection always runs
// against a neighbor's original content, not its stripped form, so
// stripping one window never cascades into the next.
//
// The second return value is false when the match carries no context
// windows at all. That is a legitimate state, not an error.
func StitchContext(match models.ChunkMatch, minOverlap int) (string, bool) {
	if len(match.ContextChunks) == 0 {
		return "", false
	}

	windows := make([]models.ContextChunk, len(match.ContextChunks))
	copy(windows, match.ContextChunks)
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Position < windows[j].Position
	})

	parts := make([]string, 0, len(windows))
	for i, w := range windows {
		if w.ChunkID == match.ID {
			parts = append(parts, w.Content)
			continue
		}

		text := w.Content
		if i > 0 {
			if overlap := FindOverlap(windows[i-1].Content, text, minOverlap); overlap != "" {
				text = text[len(overlap):]
			}
		}
		if i < len(windows)-1 {
			if overlap := FindOverlap(text, windows[i+1].Content, minOverlap); overlap != "" {
				text = text[:len(text)-len(overlap)]
			}
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n"), true
}
