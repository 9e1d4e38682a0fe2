package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingDimensions is the width of every stored vector. Provider
// embeddings are truncated to the leading dimensions and re-normalized,
// which keeps the index small while retrieval quality on this corpus
// stays flat.
const EmbeddingDimensions = 256

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// Embedder produces a fixed-length, L2-normalized query vector.
// Identical text must yield identical vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// normalizeEmbedding truncates raw to dims dimensions and L2-normalizes
// the result. A zero vector is returned as-is.
func normalizeEmbedding(raw []float64, dims int) []float64 {
	if len(raw) > dims {
		raw = raw[:dims]
	}

	var norm float64
	for _, v := range raw {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return raw
	}

	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / norm
	}
	return out
}

// OpenAIEmbedder embeds queries with text-embedding-3-small.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API
func NewOpenAIEmbedder(client *openai.Client) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: client,
		model:  openai.SmallEmbedding3,
	}
}

// EmbedQuery generates the query embedding, retrying transient failures
// with exponential backoff.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: e.model,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = errors.New("no embeddings returned")
			continue
		}

		raw := make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			raw[i] = float64(v)
		}
		return normalizeEmbedding(raw, EmbeddingDimensions), nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", maxRetries, lastErr)
}

// GeminiEmbedder embeds queries with the Gemini embedding model.
type GeminiEmbedder struct {
	model *genai.EmbeddingModel
}

// NewGeminiEmbedder creates an embedder backed by the Gemini API
func NewGeminiEmbedder(client *genai.Client) *GeminiEmbedder {
	em := client.EmbeddingModel("text-embedding-004")
	em.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{model: em}
}

// EmbedQuery generates the query embedding, retrying transient failures
// with exponential backoff.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		res, err := e.model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			lastErr = err
			continue
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			lastErr = errors.New("no embedding returned")
			continue
		}

		raw := make([]float64, len(res.Embedding.Values))
		for i, v := range res.Embedding.Values {
			raw[i] = float64(v)
		}
		return normalizeEmbedding(raw, EmbeddingDimensions), nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", maxRetries, lastErr)
}
