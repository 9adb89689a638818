package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"contractguard-backend/config"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact exists under a key
var ErrNotFound = errors.New("artifact not found")

// Kind groups artifacts under a key prefix
type Kind string

const (
	KindLawDocument Kind = "laws"
	KindHarness     Kind = "harnesses"
)

// Storage keeps ingested law documents and generated harnesses
type Storage interface {
	// Put stores data and returns the key it can be fetched with
	Put(ctx context.Context, kind Kind, id uuid.UUID, filename string, data io.Reader) (string, error)

	// Get opens the artifact stored under key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the artifact; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// New creates the backend selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// artifactKey builds kind/ab/<id>_<name><ext>, sharded on the id prefix
func artifactKey(kind Kind, id uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, base)

	s := id.String()
	return fmt.Sprintf("%s/%s/%s_%s%s", kind, s[:2], s, base, ext)
}

// ContentType guesses the MIME type of an artifact from its extension
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".go":
		return "text/x-go; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
