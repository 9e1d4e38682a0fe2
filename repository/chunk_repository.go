package repository

import (
	"context"
	"fmt"

	"guidesearch-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository handles database operations for guideline content chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// SearchChunks performs the document-scoped passage search. Chunks whose
// guideline is not in guidelineIDs are excluded in SQL, never
// post-filtered, so the scope is enforced at the store level. Each match
// comes back with a window of contextSize neighbor chunks on each side,
// the matched chunk included.
func (r *ChunkRepository) SearchChunks(
	ctx context.Context,
	embedding []float64,
	guidelineIDs []uuid.UUID,
	threshold float64,
	contextSize, limit int,
) ([]models.ChunkMatch, error) {
	if len(guidelineIDs) == 0 {
		return nil, nil
	}
	if len(embedding) != embeddingDims {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDims, len(embedding))
	}

	vectorStr := formatVector(embedding)
	ids := make([]string, 0, len(guidelineIDs))
	for _, id := range guidelineIDs {
		ids = append(ids, id.String())
	}

	query := `
		SELECT
			id,
			guideline_id,
			chunk_index,
			content,
			1 - (embedding <=> $1::vector) AS similarity
		FROM guideline_chunks
		WHERE guideline_id = ANY($2::uuid[])
		  AND 1 - (embedding <=> $1::vector) >= $3
		ORDER BY embedding <=> $1::vector
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, vectorStr, ids, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query guideline chunks: %w", err)
	}
	defer rows.Close()

	var matches []models.ChunkMatch
	var positions []int
	for rows.Next() {
		var m models.ChunkMatch
		var position int
		err := rows.Scan(
			&m.ID,
			&m.GuidelineID,
			&position,
			&m.Content,
			&m.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches = append(matches, m)
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk matches: %w", err)
	}

	for i := range matches {
		contextChunks, err := r.contextWindow(ctx, matches[i].GuidelineID, positions[i], contextSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load context window: %w", err)
		}
		matches[i].ContextChunks = contextChunks
	}

	return matches, nil
}

// contextWindow loads the chunks surrounding position within a document,
// inclusive of the chunk at position itself.
func (r *ChunkRepository) contextWindow(ctx context.Context, guidelineID uuid.UUID, position, contextSize int) ([]models.ContextChunk, error) {
	lo := position - contextSize
	if lo < 0 {
		lo = 0
	}

	query := `
		SELECT id, content, chunk_index
		FROM guideline_chunks
		WHERE guideline_id = $1 AND chunk_index BETWEEN $2 AND $3
		ORDER BY chunk_index`

	rows, err := r.db.Query(ctx, query, guidelineID, lo, position+contextSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.ContextChunk
	for rows.Next() {
		var c models.ContextChunk
		if err := rows.Scan(&c.ChunkID, &c.Content, &c.Position); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// Insert stores one content chunk with its embedding
func (r *ChunkRepository) Insert(ctx context.Context, guidelineID uuid.UUID, chunkIndex int, content string, embedding []float64) error {
	if len(embedding) != embeddingDims {
		return fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDims, len(embedding))
	}

	query := `
		INSERT INTO guideline_chunks (guideline_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4::vector)`

	_, err := r.db.Exec(ctx, query, guidelineID, chunkIndex, content, formatVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// DeleteByGuideline removes all chunks of a document, used before
// re-ingesting it.
func (r *ChunkRepository) DeleteByGuideline(ctx context.Context, guidelineID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM guideline_chunks WHERE guideline_id = $1`, guidelineID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
