package models

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingStatus tracks how far a guideline has progressed through the
// offline ingest pipeline.
type EmbeddingStatus string

const (
	EmbeddingPending    EmbeddingStatus = "pending"
	EmbeddingProcessing EmbeddingStatus = "processing"
	EmbeddingCompleted  EmbeddingStatus = "completed"
	EmbeddingFailed     EmbeddingStatus = "failed"
)

// Guideline represents one regulatory guideline document in the corpus
type Guideline struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Version         string          `json:"version"`
	AdoptedDate     string          `json:"adopted_date"`
	DocumentType    string          `json:"document_type"` // "Guidelines", "Opinion", "Recommendation", ...
	Summary         string          `json:"summary"`
	SourceFilename  string          `json:"source_filename"`
	StoragePath     string          `json:"storage_path,omitempty"`
	PageCount       int             `json:"page_count,omitempty"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GuidelineSummaryMatch is a document-level hit from the summary index.
// Matches are scoped to a single query and never mutated after retrieval.
type GuidelineSummaryMatch struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Similarity   float64   `json:"similarity"` // cosine similarity in [0,1]
	Version      string    `json:"version"`
	AdoptedDate  string    `json:"adopted_date"`
	DocumentType string    `json:"document_type"`
	Summary      string    `json:"summary"`
}
