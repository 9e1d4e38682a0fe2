package repository

import (
	"context"
	"fmt"
	"strings"

	"guidesearch-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// embeddingDims must match the vector() width in the schema.
const embeddingDims = 256

// GuidelineRepository handles database operations for guideline documents
// and their summary embeddings
type GuidelineRepository struct {
	db *pgxpool.Pool
}

// NewGuidelineRepository creates a new guideline repository
func NewGuidelineRepository(db *pgxpool.Pool) *GuidelineRepository {
	return &GuidelineRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SearchSummaries returns the documents whose summary embedding clears
// threshold, best match first, at most limit rows. Only fully ingested
// documents are searchable.
func (r *GuidelineRepository) SearchSummaries(
	ctx context.Context,
	embedding []float64,
	threshold float64,
	limit int,
) ([]models.GuidelineSummaryMatch, error) {
	if len(embedding) != embeddingDims {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDims, len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			title,
			version,
			adopted_date,
			document_type,
			summary,
			1 - (summary_embedding <=> $1::vector) AS similarity
		FROM guidelines
		WHERE embedding_status = 'completed'
		  AND 1 - (summary_embedding <=> $1::vector) >= $2
		ORDER BY summary_embedding <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, vectorStr, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query guideline summaries: %w", err)
	}
	defer rows.Close()

	var matches []models.GuidelineSummaryMatch
	for rows.Next() {
		var m models.GuidelineSummaryMatch
		err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Version,
			&m.AdoptedDate,
			&m.DocumentType,
			&m.Summary,
			&m.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary matches: %w", err)
	}

	return matches, nil
}

// Create inserts a new guideline record
func (r *GuidelineRepository) Create(ctx context.Context, g *models.Guideline) error {
	query := `
		INSERT INTO guidelines (
			id, title, source_filename, storage_path, embedding_status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRow(
		ctx, query,
		g.ID,
		g.Title,
		g.SourceFilename,
		g.StoragePath,
		g.EmbeddingStatus,
	).Scan(&g.CreatedAt)
}

// GetByID retrieves a guideline by ID
func (r *GuidelineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Guideline, error) {
	g := &models.Guideline{}
	query := `
		SELECT id, title, version, adopted_date, document_type, summary,
		       source_filename, storage_path, page_count, embedding_status, created_at
		FROM guidelines
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.Title,
		&g.Version,
		&g.AdoptedDate,
		&g.DocumentType,
		&g.Summary,
		&g.SourceFilename,
		&g.StoragePath,
		&g.PageCount,
		&g.EmbeddingStatus,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// List retrieves all guidelines, newest first
func (r *GuidelineRepository) List(ctx context.Context) ([]*models.Guideline, error) {
	query := `
		SELECT id, title, version, adopted_date, document_type, summary,
		       source_filename, storage_path, page_count, embedding_status, created_at
		FROM guidelines
		ORDER BY created_at DESC`

	return r.queryGuidelines(ctx, query)
}

// ListByStatus retrieves all guidelines in the given ingest state
func (r *GuidelineRepository) ListByStatus(ctx context.Context, status models.EmbeddingStatus) ([]*models.Guideline, error) {
	query := `
		SELECT id, title, version, adopted_date, document_type, summary,
		       source_filename, storage_path, page_count, embedding_status, created_at
		FROM guidelines
		WHERE embedding_status = $1
		ORDER BY created_at`

	return r.queryGuidelines(ctx, query, status)
}

func (r *GuidelineRepository) queryGuidelines(ctx context.Context, query string, args ...interface{}) ([]*models.Guideline, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guidelines: %w", err)
	}
	defer rows.Close()

	var guidelines []*models.Guideline
	for rows.Next() {
		g := &models.Guideline{}
		err := rows.Scan(
			&g.ID,
			&g.Title,
			&g.Version,
			&g.AdoptedDate,
			&g.DocumentType,
			&g.Summary,
			&g.SourceFilename,
			&g.StoragePath,
			&g.PageCount,
			&g.EmbeddingStatus,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guideline: %w", err)
		}
		guidelines = append(guidelines, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guidelines: %w", err)
	}

	return guidelines, nil
}

// UpdateMetadata stores the extracted metadata, generated summary and the
// summary embedding produced by the ingest pipeline.
func (r *GuidelineRepository) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	title, version, adoptedDate, documentType, summary string,
	pageCount int,
	summaryEmbedding []float64,
) error {
	if len(summaryEmbedding) != embeddingDims {
		return fmt.Errorf("embedding must be %d dimensions, got %d", embeddingDims, len(summaryEmbedding))
	}

	query := `
		UPDATE guidelines
		SET title = $2,
		    version = $3,
		    adopted_date = $4,
		    document_type = $5,
		    summary = $6,
		    page_count = $7,
		    summary_embedding = $8::vector
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, title, version, adoptedDate, documentType, summary, pageCount, formatVector(summaryEmbedding))
	if err != nil {
		return fmt.Errorf("failed to update guideline metadata: %w", err)
	}
	return nil
}

// UpdateEmbeddingStatus moves a guideline through the ingest lifecycle
func (r *GuidelineRepository) UpdateEmbeddingStatus(ctx context.Context, id uuid.UUID, status models.EmbeddingStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE guidelines SET embedding_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update embedding status: %w", err)
	}
	return nil
}
