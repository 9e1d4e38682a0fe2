package service

import (
	"strings"
	"testing"

	"guidesearch-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOverlap(t *testing.T) {
	tests := []struct {
		name      string
		a         string
		b         string
		minLength int
		want      string
	}{
		{
			name:      "suffix of a matches prefix of b",
			a:         "hello world",
			b:         "world peace",
			minLength: 5,
			want:      "world",
		},
		{
			name:      "below minimum length",
			a:         "hello world",
			b:         "world peace",
			minLength: 6,
			want:      "",
		},
		{
			name:      "inputs shorter than minimum",
			a:         "ab",
			b:         "ba",
			minLength: 3,
			want:      "",
		},
		{
			name:      "no shared text",
			a:         "alpha",
			b:         "omega",
			minLength: 1,
			want:      "",
		},
		{
			name:      "identical strings overlap entirely",
			a:         "repeated",
			b:         "repeated",
			minLength: 1,
			want:      "repeated",
		},
		{
			name:      "empty inputs",
			a:         "",
			b:         "anything",
			minLength: 1,
			want:      "",
		},
		{
			name:      "multibyte text",
			a:         "前の文。共通部分です",
			b:         "共通部分です。次の文",
			minLength: 3,
			want:      "共通部分です",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindOverlap(tt.a, tt.b, tt.minLength))
		})
	}
}

func TestFindOverlapPrefersLongest(t *testing.T) {
	// "aba" is both a valid overlap and a prefix of the longer "ababa";
	// the scan must return the longest one.
	got := FindOverlap("xxababa", "ababayy", 1)
	assert.Equal(t, "ababa", got)
}

func newMatch(content string, windows ...models.ContextChunk) models.ChunkMatch {
	m := models.ChunkMatch{
		ID:            uuid.New(),
		GuidelineID:   uuid.New(),
		Content:       content,
		Similarity:    0.9,
		ContextChunks: windows,
	}
	for i := range m.ContextChunks {
		if m.ContextChunks[i].Content == content {
			m.ContextChunks[i].ChunkID = m.ID
		}
	}
	return m
}

func TestStitchContextEmptyWindows(t *testing.T) {
	match := newMatch("some content")

	text, ok := StitchContext(match, 5)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestStitchContextAnchorKeptVerbatim(t *testing.T) {
	head := strings.Repeat("H", 10)
	tail := strings.Repeat("T", 10)
	anchor := head + " body " + tail

	match := newMatch(anchor,
		models.ContextChunk{ChunkID: uuid.New(), Content: "before " + head, Position: 0},
		models.ContextChunk{Content: anchor, Position: 1},
		models.ContextChunk{ChunkID: uuid.New(), Content: tail + " after", Position: 2},
	)

	text, ok := StitchContext(match, 5)
	require.True(t, ok)

	// Neighbors lose the duplicated boundary text; the anchor never does.
	assert.Equal(t, "before \n\n"+anchor+"\n\n after", text)
	assert.Equal(t, 1, strings.Count(text, head))
	assert.Equal(t, 1, strings.Count(text, tail))
}

func TestStitchContextOrdersByPosition(t *testing.T) {
	match := newMatch("middle",
		models.ContextChunk{ChunkID: uuid.New(), Content: "last", Position: 7},
		models.ContextChunk{Content: "middle", Position: 6},
		models.ContextChunk{ChunkID: uuid.New(), Content: "first", Position: 5},
	)

	text, ok := StitchContext(match, 50)
	require.True(t, ok)
	assert.Equal(t, "first\n\nmiddle\n\nlast", text)
}

func TestStitchContextStripsAgainstOriginalNeighbor(t *testing.T) {
	// The middle window is the anchor. The trailing window's leading text
	// duplicates the anchor's tail; the anchor stays intact and the
	// neighbor is trimmed.
	tail := strings.Repeat("t", 12)
	anchor := "anchor body " + tail

	match := newMatch(anchor,
		models.ContextChunk{Content: anchor, Position: 3},
		models.ContextChunk{ChunkID: uuid.New(), Content: tail + " trailing body", Position: 4},
	)

	text, ok := StitchContext(match, 6)
	require.True(t, ok)
	assert.Equal(t, anchor+"\n\n trailing body", text)
}

func TestStitchContextShortOverlapKept(t *testing.T) {
	// Shared text below the minimum stays duplicated; stripping common
	// short phrases would corrupt the windows.
	match := newMatch("one two",
		models.ContextChunk{Content: "one two", Position: 0},
		models.ContextChunk{ChunkID: uuid.New(), Content: "two three", Position: 1},
	)

	text, ok := StitchContext(match, 50)
	require.True(t, ok)
	assert.Equal(t, "one two\n\ntwo three", text)
}

func TestStitchContextDoesNotMutateInput(t *testing.T) {
	match := newMatch("b",
		models.ContextChunk{ChunkID: uuid.New(), Content: "c", Position: 2},
		models.ContextChunk{Content: "b", Position: 1},
		models.ContextChunk{ChunkID: uuid.New(), Content: "a", Position: 0},
	)

	_, ok := StitchContext(match, 50)
	require.True(t, ok)

	assert.Equal(t, 2, match.ContextChunks[0].Position)
	assert.Equal(t, 1, match.ContextChunks[1].Position)
	assert.Equal(t, 0, match.ContextChunks[2].Position)
}
