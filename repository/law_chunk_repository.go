package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"contractguard-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDimensions is the width of the law_chunks.embedding column
const EmbeddingDimensions = 768

// LawChunkRepository handles database operations for statutory text chunks
type LawChunkRepository struct {
	db *pgxpool.Pool
}

// NewLawChunkRepository creates a new law chunk repository
func NewLawChunkRepository(db *pgxpool.Pool) *LawChunkRepository {
	return &LawChunkRepository{db: db}
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func checkDimensions(embedding []float32) error {
	if len(embedding) != EmbeddingDimensions {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}
	return nil
}

// SearchSimilar returns the limit chunks closest to embedding by cosine distance
func (r *LawChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.LawChunk, error) {
	if err := checkDimensions(embedding); err != nil {
		return nil, err
	}

	query := `
		SELECT
			id,
			source,
			page,
			chunk_index,
			content,
			storage_path,
			created_at,
			embedding <=> $1::vector AS distance
		FROM law_chunks
		ORDER BY
			embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query law chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.LawChunk
	for rows.Next() {
		var chunk models.LawChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Page,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.StoragePath,
			&chunk.CreatedAt,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan law chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating law chunks: %w", err)
	}

	return chunks, nil
}

// InsertChunks stores chunks in one transaction and returns how many were written
func (r *LawChunkRepository) InsertChunks(ctx context.Context, chunks []models.LawChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		if err := checkDimensions(chunk.Embedding); err != nil {
			return 0, fmt.Errorf("chunk %d of %s: %w", chunk.ChunkIndex, chunk.Source, err)
		}
		batch.Queue(`
			INSERT INTO law_chunks (source, page, chunk_index, content, storage_path, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)`,
			chunk.Source,
			chunk.Page,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.StoragePath,
			formatVector(chunk.Embedding),
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert law chunk %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit law chunks: %w", err)
	}
	return len(chunks), nil
}

// CountBySource returns how many chunks are stored for a source document
func (r *LawChunkRepository) CountBySource(ctx context.Context, source string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM law_chunks WHERE source = $1`, source).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count law chunks: %w", err)
	}
	return n, nil
}
