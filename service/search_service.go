package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"guidesearch-backend/models"

	"github.com/google/uuid"
)

// Default retrieval tuning. Thresholds are cosine similarities in [0,1].
const (
	DefaultSummaryThreshold = 0.4
	DefaultChunkThreshold   = 0.45
	DefaultSummaryLimit     = 5
	DefaultContextSize      = 1
	DefaultTopN             = 5

	// chunkFetchLimit bounds the store-side fetch; the authoritative
	// rank/filter pass narrows it to TopN afterwards.
	chunkFetchLimit = 20
)

var (
	ErrEmbeddingFailed     = errors.New("failed to generate query embedding")
	ErrSummarySearchFailed = errors.New("summary search unavailable")
	ErrGenerationFailed    = errors.New("failed to generate answer")
)

// SummarySearcher queries the document-level summary index.
type SummarySearcher interface {
	SearchSummaries(ctx context.Context, embedding []float64, threshold float64, limit int) ([]models.GuidelineSummaryMatch, error)
}

// ChunkSearcher queries the chunk index, restricted to the given
// documents, returning each match with its surrounding context windows.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, embedding []float64, guidelineIDs []uuid.UUID, threshold float64, contextSize, limit int) ([]models.ChunkMatch, error)
}

// SearchService orchestrates the question-answering pipeline: embed the
// query, run the two-stage similarity search, rank and filter the
// passages, stitch their context windows and hand the assembled context
// to the generation service.
type SearchService struct {
	summaryIndex SummarySearcher
	chunkIndex   ChunkSearcher
	embedder     Embedder
	generator    Generator
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithSummaryIndex sets the document-level summary index
func SearchWithSummaryIndex(idx SummarySearcher) SearchServiceOption {
	return func(s *SearchService) {
		s.summaryIndex = idx
	}
}

// SearchWithChunkIndex sets the chunk-level index
func SearchWithChunkIndex(idx ChunkSearcher) SearchServiceOption {
	return func(s *SearchService) {
		s.chunkIndex = idx
	}
}

// SearchWithEmbedder sets the query embedder
func SearchWithEmbedder(e Embedder) SearchServiceOption {
	return func(s *SearchService) {
		s.embedder = e
	}
}

// SearchWithGenerator sets the answer generator
func SearchWithGenerator(g Generator) SearchServiceOption {
	return func(s *SearchService) {
		s.generator = g
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchOptions carries the per-request retrieval tuning knobs.
type SearchOptions struct {
	SummaryThreshold float64
	ChunkThreshold   float64
	SummaryLimit     int
	ContextSize      int
	TopN             int
	MinOverlap       int
}

// DefaultSearchOptions returns the production defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		SummaryThreshold: DefaultSummaryThreshold,
		ChunkThreshold:   DefaultChunkThreshold,
		SummaryLimit:     DefaultSummaryLimit,
		ContextSize:      DefaultContextSize,
		TopN:             DefaultTopN,
		MinOverlap:       DefaultMinOverlap,
	}
}

// RetrievalResult is the output of the two-stage search.
type RetrievalResult struct {
	Summaries []models.GuidelineSummaryMatch
	Chunks    []models.ChunkMatch
}

// Empty reports the scope-empty state: no document cleared the summary
// threshold, so no chunk search was attempted.
func (r *RetrievalResult) Empty() bool {
	return len(r.Summaries) == 0
}

// Retrieve runs the two-stage similarity search. Stage 1 matches whole
// documents against the summary index; stage 2 searches chunks strictly
// within the matched documents. When stage 1 comes back empty the chunk
// index is never consulted: a chunk search without a document scope would
// run against the whole corpus.
//
// A stage-2 store failure is downgraded to an empty chunk list, since an
// answer generated from document summaries alone beats no answer. A
// stage-1 failure propagates; without it there is no retrieval scope at
// all.
func (s *SearchService) Retrieve(ctx context.Context, embedding []float64, opts SearchOptions) (*RetrievalResult, error) {
	if s.summaryIndex == nil {
		return nil, errors.New("summary index not set")
	}
	if s.chunkIndex == nil {
		return nil, errors.New("chunk index not set")
	}

	summaries, err := s.summaryIndex.SearchSummaries(ctx, embedding, opts.SummaryThreshold, opts.SummaryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarySearchFailed, err)
	}
	if len(summaries) == 0 {
		return &RetrievalResult{}, nil
	}

	ids := make([]uuid.UUID, 0, len(summaries))
	for _, m := range summaries {
		ids = append(ids, m.ID)
	}

	chunks, err := s.chunkIndex.SearchChunks(ctx, embedding, ids, opts.ChunkThreshold, opts.ContextSize, chunkFetchLimit)
	if err != nil {
		log.Printf("Warning: chunk search failed, continuing with summaries only: %v", err)
		chunks = nil
	}

	return &RetrievalResult{
		Summaries: summaries,
		Chunks:    dropMalformed(chunks),
	}, nil
}

// dropMalformed removes records the store returned without their required
// fields. One bad record never fails the batch.
func dropMalformed(chunks []models.ChunkMatch) []models.ChunkMatch {
	kept := make([]models.ChunkMatch, 0, len(chunks))
	for _, c := range chunks {
		if c.ID == uuid.Nil || c.GuidelineID == uuid.Nil || c.Content == "" {
			log.Printf("Warning: dropping malformed chunk match (id=%s, guideline=%s)", c.ID, c.GuidelineID)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// RankAndFilter re-applies the similarity threshold, orders matches by
// descending similarity and caps the result at topN. The store-side
// threshold is advisory only; this pass is authoritative. The sort is
// stable, so equal similarities keep their retrieval order.
func RankAndFilter(chunks []models.ChunkMatch, threshold float64, topN int) []models.ChunkMatch {
	filtered := make([]models.ChunkMatch, 0, len(chunks))
	for _, c := range chunks {
		if c.Similarity >= threshold {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})

	if topN > 0 && len(filtered) > topN {
		filtered = filtered[:topN]
	}
	return filtered
}

// RankedSection is one displayed passage: the matched chunk plus its
// stitched surrounding context.
type RankedSection struct {
	Chunk      models.ChunkMatch `json:"chunk"`
	Context    string            `json:"context,omitempty"`
	HasContext bool              `json:"has_context"`
}

// SearchResult is the complete answer payload for one query.
type SearchResult struct {
	Query      string                         `json:"query"`
	Answer     string                         `json:"answer"`
	Guidelines []models.GuidelineSummaryMatch `json:"guidelines"`
	Sections   []RankedSection                `json:"sections"`
	ScopeEmpty bool                           `json:"scope_empty"`
}

// Search runs the full pipeline for one query. On an empty retrieval
// scope the generation service still runs with a bare context, so it can
// answer that no relevant guidance was found.
func (s *SearchService) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	retrieval, err := s.Retrieve(ctx, embedding, opts)
	if err != nil {
		return nil, err
	}

	ranked := RankAndFilter(retrieval.Chunks, opts.ChunkThreshold, opts.TopN)

	sections := make([]RankedSection, 0, len(ranked))
	for _, chunk := range ranked {
		text, ok := StitchContext(chunk, opts.MinOverlap)
		sections = append(sections, RankedSection{
			Chunk:      chunk,
			Context:    text,
			HasContext: ok,
		})
	}

	contextBlock := s.BuildContext(query, retrieval.Summaries, ranked)

	answer, err := s.generator.GenerateAnswer(ctx, query, contextBlock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &SearchResult{
		Query:      query,
		Answer:     answer,
		Guidelines: retrieval.Summaries,
		Sections:   sections,
		ScopeEmpty: retrieval.Empty(),
	}, nil
}

// BuildContext assembles the context block handed to the generation
// service: guideline metadata first, then the ranked passages in order.
// The assembled record is also logged for offline answer-quality review;
// that log never affects control flow.
func (s *SearchService) BuildContext(query string, summaries []models.GuidelineSummaryMatch, chunks []models.ChunkMatch) string {
	var b strings.Builder

	b.WriteString("Guidelines Information:\n")
	for _, m := range summaries {
		fmt.Fprintf(&b, "\nGuideline: %s\n", m.Title)
		fmt.Fprintf(&b, "Version: %s\n", m.Version)
		fmt.Fprintf(&b, "Adopted Date: %s\n", m.AdoptedDate)
	}

	b.WriteString("\nRelevant Sections:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "\n%s\n", c.Content)
	}

	logContextDetails(query, summaries, chunks)

	return b.String()
}

func logContextDetails(query string, summaries []models.GuidelineSummaryMatch, chunks []models.ChunkMatch) {
	log.Printf("=== Generation Context ===")
	log.Printf("Query: %s", query)
	log.Printf("Relevant chunks: %d", len(chunks))
	for i, c := range chunks {
		log.Printf("Chunk %d: similarity=%.3f content=%q", i+1, c.Similarity, truncateText(c.Content, 200))
	}
	for _, m := range summaries {
		log.Printf("Guideline: %s (version %s)", m.Title, m.Version)
	}
	log.Printf("==========================")
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
