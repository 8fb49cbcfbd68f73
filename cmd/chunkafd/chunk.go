package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/antflydb/chunkaf/chunking"
	"github.com/antflydb/chunkaf/config"
	"github.com/antflydb/chunkaf/gemini"
	"github.com/antflydb/chunkaf/logging"
	"github.com/antflydb/chunkaf/service"
	"github.com/antflydb/chunkaf/source"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <path>",
	Short: "Preview how a document would be chunked",
	Long: `Chunk a document and print the result as JSON without embedding or
storing anything. Only the LLM segmenter is used, so embedding and
vector store credentials may be absent.

Examples:
  chunkafd chunk README.md
`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

type chunkReport struct {
	Chunks            []chunking.Chunk `json:"chunks"`
	FailedSpans       []chunking.Span  `json:"failed_spans"`
	ChunkCount        int              `json:"chunk_count"`
	ErrorChunkCount   int              `json:"error_chunk_count"`
	SegmentationCalls int              `json:"segmentation_calls"`
	BufferFills       int              `json:"buffer_fills"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required, set GEMINI_API_KEY")
	}

	logger := logging.NewLogger(&cfg.Logging)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	text, err := source.ExtractText(args[0], data)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}

	segmenter, err := gemini.NewSegmenter(ctx, cfg.Gemini.ClientConfig(), logger)
	if err != nil {
		return fmt.Errorf("creating segmenter: %w", err)
	}
	defer segmenter.Close()

	extractor, err := chunking.NewExtractor(segmenter, cfg.Chunking.ExtractorConfig())
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}

	result, err := extractor.Extract(ctx, strings.NewReader(service.CleanText(text)))
	if err != nil {
		return fmt.Errorf("chunking %s: %w", args[0], err)
	}

	report := chunkReport{
		Chunks:            result.Chunks,
		FailedSpans:       result.FailedSpans,
		ChunkCount:        len(result.Chunks),
		ErrorChunkCount:   result.ErrorChunkCount(),
		SegmentationCalls: result.Stats.SegmentationCalls,
		BufferFills:       result.Stats.BufferFills,
	}
	out, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
