package models

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LawChunk represents a chunk of statutory text stored in the vector index
type LawChunk struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	Page        int       `json:"page"`
	ChunkIndex  int       `json:"chunk_index"`
	Content     string    `json:"content"`
	StoragePath *string   `json:"storage_path,omitempty"`
	Embedding   []float32 `json:"-"`
	Distance    float64   `json:"distance,omitempty"` // Vector similarity distance
	CreatedAt   time.Time `json:"created_at"`
}

// SourceFile returns the base name of the chunk's source document
func (c LawChunk) SourceFile() string {
	if c.Source == "" {
		return "Unknown"
	}
	return filepath.Base(c.Source)
}
