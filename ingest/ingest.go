// Package ingest loads statutory PDFs, splits them into overlapping chunks
// and stores their embeddings for retrieval.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"contractguard-backend/models"
	"contractguard-backend/storage"

	"github.com/google/uuid"
)

// Embedder turns chunk texts into retrieval document vectors
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks
type ChunkStore interface {
	CountBySource(ctx context.Context, source string) (int, error)
	InsertChunks(ctx context.Context, chunks []models.LawChunk) (int, error)
}

// Summary counts what one run did
type Summary struct {
	Documents int
	Skipped   int
	Pages     int
	Chunks    int
}

// Ingester loads, chunks, embeds and stores law documents
type Ingester struct {
	embedder Embedder
	store    ChunkStore
	archive  storage.Storage
	splitter Splitter
	load     func(path string) ([]Page, error)
	logger   *slog.Logger
}

type Option func(*Ingester)

// WithArchive keeps a copy of every ingested PDF in artifact storage
func WithArchive(s storage.Storage) Option {
	return func(i *Ingester) {
		i.archive = s
	}
}

func WithSplitter(s Splitter) Option {
	return func(i *Ingester) {
		i.splitter = s
	}
}

// WithLoader replaces the PDF reader
func WithLoader(load func(path string) ([]Page, error)) Option {
	return func(i *Ingester) {
		i.load = load
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Ingester) {
		i.logger = l
	}
}

func NewIngester(embedder Embedder, store ChunkStore, opts ...Option) *Ingester {
	i := &Ingester{
		embedder: embedder,
		store:    store,
		splitter: DefaultSplitter(),
		load:     LoadPDF,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestDir ingests every PDF in dir, skipping documents already stored
func (i *Ingester) IngestDir(ctx context.Context, dir string) (Summary, error) {
	paths, err := ListPDFs(dir)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, path := range paths {
		pages, chunks, skipped, err := i.IngestFile(ctx, path)
		if err != nil {
			return sum, err
		}
		if skipped {
			sum.Skipped++
			continue
		}
		sum.Documents++
		sum.Pages += pages
		sum.Chunks += chunks
	}
	return sum, nil
}

// IngestFile ingests one PDF and reports its page and chunk counts
func (i *Ingester) IngestFile(ctx context.Context, path string) (pages, chunks int, skipped bool, err error) {
	existing, err := i.store.CountBySource(ctx, path)
	if err != nil {
		return 0, 0, false, err
	}
	if existing > 0 {
		i.logger.Info("document already ingested, skipping", "source", path, "chunks", existing)
		return 0, 0, true, nil
	}

	loaded, err := i.load(path)
	if err != nil {
		return 0, 0, false, err
	}

	var records []models.LawChunk
	for _, page := range loaded {
		for idx, text := range i.splitter.Split(page.Text) {
			records = append(records, models.LawChunk{
				Source:     path,
				Page:       page.Number,
				ChunkIndex: idx,
				Content:    text,
			})
		}
	}
	if len(records) == 0 {
		i.logger.Warn("no text extracted", "source", path)
		return len(loaded), 0, false, nil
	}

	if i.archive != nil {
		key, err := i.archiveFile(ctx, path)
		if err != nil {
			return 0, 0, false, err
		}
		for n := range records {
			records[n].StoragePath = &key
		}
	}

	texts := make([]string, len(records))
	for n, r := range records {
		texts[n] = r.Content
	}
	vectors, err := i.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to embed %s: %w", path, err)
	}
	if len(vectors) != len(records) {
		return 0, 0, false, fmt.Errorf("failed to embed %s: got %d vectors for %d chunks", path, len(vectors), len(records))
	}
	for n := range records {
		records[n].Embedding = vectors[n]
	}

	written, err := i.store.InsertChunks(ctx, records)
	if err != nil {
		return 0, 0, false, err
	}

	i.logger.Info("document ingested", "source", path, "pages", len(loaded), "chunks", written)
	return len(loaded), written, false, nil
}

func (i *Ingester) archiveFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for archiving: %w", path, err)
	}
	defer f.Close()

	key, err := i.archive.Put(ctx, storage.KindLawDocument, uuid.New(), filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return key, nil
}
