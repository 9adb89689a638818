package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contractguard-backend/config"
	"contractguard-backend/gemini"
	"contractguard-backend/handlers"
	"contractguard-backend/ingest"
	"contractguard-backend/metrics"
	"contractguard-backend/middleware"
	"contractguard-backend/pkg/logger"
	"contractguard-backend/repository"
	"contractguard-backend/service"
	"contractguard-backend/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	if !config.LoadDotEnv() {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	ctx := context.Background()

	db, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to initialize postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("postgres connection established")

	artifacts, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set")
	}
	llm, err := gemini.New(ctx, cfg.Gemini.APIKey,
		gemini.WithGenerationModel(cfg.Gemini.GenerationModel),
		gemini.WithEmbeddingModel(cfg.Gemini.EmbeddingModel),
	)
	if err != nil {
		slog.Error("failed to initialize gemini", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	m := metrics.New()

	lawRepo := repository.NewLawChunkRepository(db)
	policyRepo := repository.NewPolicyRepository(db)

	retriever := service.NewLawRetriever(llm, lawRepo, service.WithMaxLaws(cfg.Retrieval.MaxLaws))
	analysisService := service.NewAnalysisService(
		service.WithRetriever(retriever),
		service.WithMetrics(m),
	)
	policyService := service.NewPolicyService(
		service.PolicyWithGenerator(llm),
		service.PolicyWithStore(policyRepo),
		service.PolicyWithArtifacts(artifacts),
		service.PolicyWithMetrics(m),
	)

	ingester := ingest.NewIngester(llm, lawRepo, ingest.WithArchive(artifacts))

	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	policyHandler := handlers.NewPolicyHandler(policyService)
	artifactHandler := handlers.NewArtifactHandler(ingester, artifacts, cfg.Laws.Dir)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(m.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	if cfg.Auth.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(&cfg.Auth))
	} else {
		slog.Warn("AUTH_JWT_SECRET not set, /api is unauthenticated")
	}
	{
		api.POST("/analyze", analysisHandler.Analyze)

		api.POST("/policies/convert", policyHandler.Convert)
		api.POST("/policies", policyHandler.Create)
		api.GET("/policies", policyHandler.List)
		api.GET("/policies/:id", policyHandler.Get)
		api.POST("/policies/:id/harness", policyHandler.GenerateHarness)

		api.POST("/laws", artifactHandler.UploadLaw)
		api.GET("/artifacts/*key", artifactHandler.Download)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
