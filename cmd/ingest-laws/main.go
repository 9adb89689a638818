package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contractguard-backend/config"
	"contractguard-backend/gemini"
	"contractguard-backend/ingest"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/repository"
	"contractguard-backend/storage"
)

func main() {
	dirFlag := flag.String("dir", "", "directory of law PDFs (defaults to LAWS_DIR)")
	fileFlag := flag.String("file", "", "ingest a single PDF instead of a directory")
	archive := flag.Bool("archive", true, "copy source PDFs to artifact storage")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dirFlag, *fileFlag, *archive); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dir, file string, archive bool) error {
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required to embed law chunks")
	}

	db, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	llm, err := gemini.New(ctx, cfg.Gemini.APIKey, gemini.WithEmbeddingModel(cfg.Gemini.EmbeddingModel))
	if err != nil {
		return err
	}
	defer llm.Close()

	opts := []ingest.Option{ingest.WithLogger(slog.Default())}
	if archive {
		artifacts, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		opts = append(opts, ingest.WithArchive(artifacts))
	}

	ingester := ingest.NewIngester(llm, repository.NewLawChunkRepository(db), opts...)
	start := time.Now()

	if file != "" {
		pages, chunks, skipped, err := ingester.IngestFile(ctx, file)
		if err != nil {
			return err
		}
		if skipped {
			fmt.Printf("%s is already ingested\n", file)
			return nil
		}
		fmt.Printf("Ingested %s: %d pages, %d chunks in %s\n", file, pages, chunks, time.Since(start).Round(time.Second))
		return nil
	}

	if dir == "" {
		dir = cfg.Laws.Dir
	}
	sum, err := ingester.IngestDir(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Println("\nLaw ingestion complete!")
	fmt.Printf("   Documents: %d ingested, %d skipped\n", sum.Documents, sum.Skipped)
	fmt.Printf("   Pages: %d\n", sum.Pages)
	fmt.Printf("   Chunks: %d\n", sum.Chunks)
	fmt.Printf("   Elapsed: %s\n", time.Since(start).Round(time.Second))
	return nil
}
