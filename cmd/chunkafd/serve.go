package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/antflydb/chunkaf/config"
	"github.com/antflydb/chunkaf/embeddings"
	"github.com/antflydb/chunkaf/gemini"
	"github.com/antflydb/chunkaf/logging"
	"github.com/antflydb/chunkaf/qdrant"
	"github.com/antflydb/chunkaf/server"
	"github.com/antflydb/chunkaf/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chunking and search HTTP service",
	Long: `Run the HTTP service.

Examples:
  # Run with defaults and credentials from the environment
  chunkafd serve

  # Run with a config file
  chunkafd serve --config chunkaf.yaml
`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewLogger(&cfg.Logging)

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(svc, cfg.Server.Addr(), logger)
	logger.Info("starting chunkaf service",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("collection", cfg.Qdrant.Collection))
	return srv.Run(ctx)
}

// buildService assembles the segmenter, embedder and vector store into a
// Service. The returned cleanup closes the segmenter's LLM connection.
func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Service, func(), error) {
	segmenter, err := gemini.NewSegmenter(ctx, cfg.Gemini.ClientConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating segmenter: %w", err)
	}
	cleanup := func() { _ = segmenter.Close() }

	cohere, err := embeddings.NewCohereClient(cfg.Cohere.ClientConfig(), nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}
	embedder := embeddings.NewHybridEmbedder(cohere, nil)

	store, err := qdrant.NewClient(cfg.Qdrant.ClientConfig(), nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.EnsureCollection(ctx, embedder.Dimensions()); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("preparing collection: %w", err)
	}

	svc, err := service.New(segmenter, embedder, store, service.Options{
		Chunking:     cfg.Chunking.ExtractorConfig(),
		RRFK:         cfg.Search.RRFK,
		DefaultLimit: cfg.Search.DefaultLimit,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return svc, cleanup, nil
}
