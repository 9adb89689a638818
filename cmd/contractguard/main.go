// Command contractguard checks contracts against the law index and turns
// policy sentences into OCL constraints from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"contractguard-backend/config"
	"contractguard-backend/gemini"
	"contractguard-backend/metrics"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/repository"
	"contractguard-backend/service"
	"contractguard-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "contractguard",
		Short: "Contract compliance checks against Egyptian law",
		Long: `contractguard retrieves the statutes relevant to a contract from the
law index, flags clauses that violate them and scores the contract.

It can also convert natural-language company policies into OCL
constraints and store them for the API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(analyzeCmd(&flags))
	cmd.AddCommand(convertPolicyCmd(&flags))
	cmd.AddCommand(tokenCmd(&flags))

	return cmd
}

// loadConfig reads configuration and sends logs to stderr so they do not
// interleave with the report on stdout
func (f *globalFlags) loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	slog.SetDefault(logger.New(&logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, os.Stderr))

	return cfg, nil
}

func (f *globalFlags) colorize() bool {
	return !f.noColor && term.IsTerminal(int(os.Stdout.Fd()))
}

// deps holds the connections a command needs
type deps struct {
	db        *pgxpool.Pool
	llm       *gemini.Client
	artifacts storage.Storage
	metrics   *metrics.Metrics
}

func newDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	db, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	llm, err := gemini.New(ctx, cfg.Gemini.APIKey,
		gemini.WithGenerationModel(cfg.Gemini.GenerationModel),
		gemini.WithEmbeddingModel(cfg.Gemini.EmbeddingModel),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	artifacts, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		llm.Close()
		db.Close()
		return nil, err
	}

	return &deps{db: db, llm: llm, artifacts: artifacts, metrics: metrics.New()}, nil
}

func (d *deps) Close() {
	d.llm.Close()
	d.db.Close()
}

func (d *deps) analysisService(cfg *config.Config) *service.AnalysisService {
	retriever := service.NewLawRetriever(d.llm, repository.NewLawChunkRepository(d.db),
		service.WithMaxLaws(cfg.Retrieval.MaxLaws),
	)
	return service.NewAnalysisService(
		service.WithRetriever(retriever),
		service.WithMetrics(d.metrics),
	)
}

func (d *deps) policyService() *service.PolicyService {
	return service.NewPolicyService(
		service.PolicyWithGenerator(d.llm),
		service.PolicyWithStore(repository.NewPolicyRepository(d.db)),
		service.PolicyWithArtifacts(d.artifacts),
		service.PolicyWithMetrics(d.metrics),
	)
}
