// Package service orchestrates the chunking pipeline: extracting chunks from
// documents, embedding and storing them, and serving hybrid search over the
// stored collection.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antflydb/chunkaf/chunking"
	"github.com/antflydb/chunkaf/embeddings"
	"github.com/antflydb/chunkaf/fusion"
	"github.com/antflydb/chunkaf/qdrant"
)

// DefaultSearchLimit caps result counts when the caller does not ask for one.
const DefaultSearchLimit = 5

// Embedder produces both vector representations of a text: the dense vector
// from the hosted embedding model and the local lexical sparse vector.
type Embedder interface {
	EmbedDocumentChunk(ctx context.Context, text string) ([]float32, embeddings.SparseVector, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, embeddings.SparseVector, error)
	Dimensions() int
}

// VectorStore persists chunk points and answers per-arm similarity lookups.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, points []qdrant.Point) error
	QueryDense(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error)
	QuerySparse(ctx context.Context, vector embeddings.SparseVector, limit int) ([]qdrant.ScoredPoint, error)
	Healthy(ctx context.Context) error
}

// Options configures a Service beyond its collaborators.
type Options struct {
	Chunking     chunking.ExtractorConfig
	RRFK         int
	DefaultLimit int
	Logger       *zap.Logger
}

// Service ties the segmentation, embedding, and vector-store collaborators
// together behind the operations the API exposes.
type Service struct {
	extractor    *chunking.Extractor
	counter      chunking.TokenCounter
	embedder     Embedder
	store        VectorStore
	fuser        *fusion.Engine
	defaultLimit int
	logger       *zap.Logger
}

// New validates the collaborators and configuration and builds a Service.
func New(segmenter chunking.Segmenter, embedder Embedder, store VectorStore, opts Options) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("embedder required")
	}
	if store == nil {
		return nil, errors.New("vector store required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Chunking.Logger == nil {
		opts.Chunking.Logger = opts.Logger
	}
	extractor, err := chunking.NewExtractor(segmenter, opts.Chunking)
	if err != nil {
		return nil, err
	}
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	counter := opts.Chunking.Counter
	if counter == nil {
		counter = chunking.NewWordRatioCounter()
	}
	return &Service{
		extractor:    extractor,
		counter:      counter,
		embedder:     embedder,
		store:        store,
		fuser:        fusion.NewEngine(opts.RRFK),
		defaultLimit: limit,
		logger:       opts.Logger,
	}, nil
}

// ChunkDocument runs the extraction loop over a document and returns the
// ordered chunks, failed spans, and run statistics.
func (s *Service) ChunkDocument(ctx context.Context, r io.Reader) (*chunking.Result, error) {
	start := time.Now()
	res, err := s.extractor.Extract(ctx, r)
	if err != nil {
		return nil, err
	}

	documentsChunked.Inc()
	placeholders := res.ErrorChunkCount()
	chunksProduced.WithLabelValues("ok").Add(float64(len(res.Chunks) - placeholders))
	chunksProduced.WithLabelValues("placeholder").Add(float64(placeholders))
	segmentationCalls.Add(float64(res.Stats.SegmentationCalls))
	bufferFills.Add(float64(res.Stats.BufferFills))
	chunkingDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// StoreChunks embeds every chunk and upserts the points in one batch. An
// empty documentID gets a fresh UUID; the returned id is whichever was used.
// The first embedding or store failure aborts the whole call.
func (s *Service) StoreChunks(ctx context.Context, documentID string, chunks []chunking.Chunk) (string, int, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}
	if len(chunks) == 0 {
		return documentID, 0, nil
	}

	if err := s.store.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return documentID, 0, fmt.Errorf("preparing collection: %w", err)
	}

	points := make([]qdrant.Point, 0, len(chunks))
	for _, c := range chunks {
		dense, sparse, err := s.embedder.EmbedDocumentChunk(ctx, c.Content)
		if err != nil {
			return documentID, 0, fmt.Errorf("embedding chunk %d: %w", c.SequenceIndex, err)
		}
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		points = append(points, qdrant.Point{
			ID:     pointID(documentID, c.SequenceIndex),
			Dense:  dense,
			Sparse: sparse,
			Payload: qdrant.Payload{
				DocumentID: documentID,
				ChunkIndex: c.SequenceIndex,
				Heading:    c.Heading,
				Content:    c.Content,
				Keywords:   keywords,
				Summary:    c.Summary,
				TokenCount: c.TokenCount,
			},
		})
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		return documentID, 0, fmt.Errorf("storing chunks: %w", err)
	}
	s.logger.Info("chunks stored",
		zap.String("document_id", documentID),
		zap.Int("points", len(points)))
	return documentID, len(points), nil
}

// ChunkRecord is an externally produced chunk accepted by the import path.
type ChunkRecord struct {
	Heading  string   `json:"heading"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

// StoreRecords stores pre-chunked content. Indexes are assigned by position
// and token counts are recomputed from the content.
func (s *Service) StoreRecords(ctx context.Context, documentID string, records []ChunkRecord) (string, int, error) {
	chunks := make([]chunking.Chunk, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Content) == "" {
			return "", 0, fmt.Errorf("chunk %d has no content", i)
		}
		chunks = append(chunks, chunking.Chunk{
			Heading:       r.Heading,
			Summary:       r.Summary,
			Keywords:      r.Keywords,
			Content:       r.Content,
			TokenCount:    s.counter.Count(r.Content),
			SequenceIndex: i,
		})
	}
	return s.StoreChunks(ctx, documentID, chunks)
}

// IngestResult is the outcome of ingesting one document end to end.
type IngestResult struct {
	DocumentID  string           `json:"document_id"`
	Chunks      []chunking.Chunk `json:"chunks"`
	FailedSpans []chunking.Span  `json:"failed_spans"`
	StoredCount int              `json:"stored_count"`
	Stats       chunking.Stats   `json:"-"`
}

// IngestText cleans, chunks, embeds, and stores one document.
func (s *Service) IngestText(ctx context.Context, text, documentID string) (*IngestResult, error) {
	cleaned := CleanText(text)
	res, err := s.ChunkDocument(ctx, strings.NewReader(cleaned))
	if err != nil {
		return nil, err
	}
	documentID, stored, err := s.StoreChunks(ctx, documentID, res.Chunks)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		DocumentID:  documentID,
		Chunks:      res.Chunks,
		FailedSpans: res.FailedSpans,
		StoredCount: stored,
		Stats:       res.Stats,
	}, nil
}

// pointID derives a stable UUID for a chunk so re-ingesting a document
// overwrites its previous points instead of duplicating them.
func pointID(documentID string, index int) string {
	name := fmt.Sprintf("chunkaf://%s/%d", documentID, index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
