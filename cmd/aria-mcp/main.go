// Package main provides the entry point for the aria MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/config"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/db"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/embedding"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/learning"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/llm"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/rag"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/retrieval"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/server"
	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("aria starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"embedding_model", cfg.EmbedModel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	enc, err := embedding.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create encoder", "error", err)
		os.Exit(1)
	}
	encoder := embedding.WithRetry(enc, cfg.RemoteTimeout, cfg.RetryAttempts, collector)
	logger.Info("encoder initialized", "model", encoder.Model())

	model, err := llm.NewModel(cfg, collector)
	if err != nil {
		logger.Error("failed to create model", "error", err)
		os.Exit(1)
	}

	store := db.NewStore(dbClient, encoder, db.StoreOptions{
		Timeout:  cfg.RemoteTimeout,
		Attempts: cfg.RetryAttempts,
		Metrics:  collector,
	})
	retriever := retrieval.New(store, encoder, retrieval.Options{
		K:               cfg.RetrieveK,
		MinScore:        cfg.MinScore,
		OverfetchFactor: cfg.OverfetchFactor,
		Metrics:         collector,
	})
	loop := learning.New(store, encoder, learning.Options{
		MergeThreshold:  cfg.MergeThreshold,
		RejectThreshold: cfg.RejectThreshold,
		ConfidenceBoost: cfg.ConfidenceBoost,
		Concurrency:     cfg.BatchConcurrency,
		Metrics:         collector,
	})

	var gen rag.Generator
	if model != nil {
		gen = model
	}
	orchestrator := rag.New(retriever, store, gen, loop)

	srv := server.New(version, logger)
	srv.Setup()

	deps := &tools.Dependencies{
		Store:        store,
		Retriever:    retriever,
		Loop:         loop,
		Orchestrator: orchestrator,
		Session:      rag.NewSession(cfg.EmotionBaseline, cfg.EmotionDecayRate),
		Logger:       logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)
	logger.Info("tools registered", "count", 6)

	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
