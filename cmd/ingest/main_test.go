package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	in := "Title   line\twith\ttabs\n\n\n  Second   paragraph.  \n\nThird."
	got := normalizeText(in)
	assert.Equal(t, "Title line with tabs\n\nSecond paragraph.\n\nThird.", got)
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := splitText("short document", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short document", chunks[0])
}

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, splitText("", 1000, 100))
}

func TestSplitTextCoversWholeDocument(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("Sentence number content goes here. ")
	}
	text := strings.TrimSpace(b.String())

	chunks := splitText(text, 1000, 100)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000)
		assert.NotEmpty(t, c)
	}

	// The last chunk must reach the end of the document.
	tail := text[len(text)-40:]
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], tail))
}

func TestSplitTextConsecutiveChunksOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("Overlapping chunk material for splitting. ")
	}
	text := strings.TrimSpace(b.String())

	chunks := splitText(text, 500, 100)
	require.Greater(t, len(chunks), 1)

	// Each chunk starts with text the previous one already ended with.
	for i := 1; i < len(chunks); i++ {
		head := []rune(chunks[i])
		if len(head) > 50 {
			head = head[:50]
		}
		assert.Contains(t, chunks[i-1], strings.TrimSpace(string(head)))
	}
}
