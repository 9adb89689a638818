package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"contractguard-backend/config"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/repository"
)

const lawChunksSQL = `
CREATE TABLE law_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Source PDF and position within it
    source TEXT NOT NULL,
    page INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,

    content TEXT NOT NULL,
    storage_path TEXT,

    embedding vector(768) NOT NULL,

    created_at TIMESTAMP DEFAULT NOW(),

    CONSTRAINT law_chunk_order_unique UNIQUE (source, page, chunk_index)
);`

const policiesSQL = `
CREATE TABLE policies (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    name VARCHAR(255) NOT NULL,
    legal_framework VARCHAR(255) NOT NULL DEFAULT '',
    company_name VARCHAR(255) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',

    ocl_code TEXT NOT NULL,
    category VARCHAR(255) NOT NULL DEFAULT 'Uncategorized',
    keywords TEXT[] NOT NULL DEFAULT '{}',
    policy_type VARCHAR(16) NOT NULL CHECK (policy_type IN ('OCL', 'STRING')),
    properties JSONB NOT NULL DEFAULT '{}'::jsonb,

    harness_path TEXT,

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`

func main() {
	reset := flag.Bool("reset", false, "drop existing tables first")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	pool, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *reset {
		for _, table := range []string{"law_chunks", "policies"} {
			if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
				slog.Error("failed to drop table", "table", table, "error", err)
				os.Exit(1)
			}
			slog.Info("dropped table", "table", table)
		}
	}

	tables := []struct {
		name string
		sql  string
	}{
		{"law_chunks", lawChunksSQL},
		{"policies", policiesSQL},
	}
	for _, t := range tables {
		if _, err := pool.Exec(ctx, t.sql); err != nil {
			slog.Error("failed to create table", "table", t.name, "error", err)
			os.Exit(1)
		}
		slog.Info("created table", "table", t.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Vector similarity search (IVFFlat)",
			sql: `CREATE INDEX idx_law_chunks_embedding ON law_chunks
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100);`,
		},
		{
			name: "Source document filtering",
			sql:  "CREATE INDEX idx_law_chunks_source ON law_chunks(source);",
		},
		{
			name: "Policy category filtering",
			sql:  "CREATE INDEX idx_policies_category ON policies(category);",
		},
		{
			name: "Policy keyword search",
			sql:  "CREATE INDEX idx_policies_keywords ON policies USING gin (keywords);",
		},
	}

	created := 0
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			slog.Warn("failed to create index", "index", idx.name, "error", err)
			continue
		}
		created++
		slog.Info("created index", "index", idx.name)
	}

	fmt.Println("\nDatabase schema created successfully!")
	fmt.Println("   Tables: law_chunks, policies")
	fmt.Printf("   Indexes: %d of %d created\n", created, len(indexes))
}
