package models

import (
	"github.com/google/uuid"
)

// ContextChunk is a neighbor of a matched chunk, carried only so the
// surrounding text can be stitched back together. Position is the chunk's
// index within its document and is the only valid ordering key; arrival
// order from the store is not guaranteed.
type ContextChunk struct {
	ChunkID  uuid.UUID `json:"chunk_id"`
	Content  string    `json:"content"`
	Position int       `json:"position"`
}

// ChunkMatch is a passage-level hit from the chunk index. GuidelineID
// always references a document matched in the same query's summary stage.
// ContextChunks includes the matched chunk itself alongside its neighbors.
type ChunkMatch struct {
	ID            uuid.UUID      `json:"id"`
	GuidelineID   uuid.UUID      `json:"guideline_id"`
	Content       string         `json:"content"`
	Similarity    float64        `json:"similarity"` // cosine similarity in [0,1]
	ContextChunks []ContextChunk `json:"context_chunks,omitempty"`
}
