package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antflydb/chunkaf/fusion"
	"github.com/antflydb/chunkaf/qdrant"
)

// ErrEmptyQuery marks a search request with no usable query text.
var ErrEmptyQuery = errors.New("search query is empty")

const searchMethod = "hybrid"

// SearchHit is one fused search result.
type SearchHit struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	Heading    string         `json:"heading"`
	Summary    string         `json:"summary"`
	Keywords   []string       `json:"keywords"`
	Content    string         `json:"content"`
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	TokenCount int            `json:"token_count"`
	Ranks      map[string]int `json:"ranks,omitempty"`
}

// SearchResult is a full search response.
type SearchResult struct {
	Results []SearchHit `json:"results"`
	Method  string      `json:"search_method"`
}

// Search embeds the query, runs the dense and sparse lookups concurrently,
// and fuses the two rankings. Both lookups must succeed; cancelling ctx
// cancels whichever is still in flight.
func (s *Service) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	start := time.Now()
	cleaned := CleanText(query)
	if cleaned == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	denseVec, sparseVec, err := s.embedder.EmbedQuery(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Fetch more candidates than requested so fusion has overlap to work
	// with before the final cut.
	candidates := limit * 3
	if c := limit + 10; c > candidates {
		candidates = c
	}

	var denseHits, sparseHits []qdrant.ScoredPoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.store.QueryDense(gctx, denseVec, candidates)
		if err != nil {
			return fmt.Errorf("dense lookup: %w", err)
		}
		denseHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := s.store.QuerySparse(gctx, sparseVec, candidates)
		if err != nil {
			return fmt.Errorf("sparse lookup: %w", err)
		}
		sparseHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := s.fuser.Fuse(
		fusion.List{Label: qdrant.VectorDense, Candidates: toCandidates(denseHits)},
		fusion.List{Label: qdrant.VectorSparse, Candidates: toCandidates(sparseHits)},
	)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	results := make([]SearchHit, 0, len(fused))
	for _, f := range fused {
		payload, _ := f.Payload.(qdrant.Payload)
		results = append(results, SearchHit{
			ID:         f.ID,
			Score:      f.Score,
			Heading:    payload.Heading,
			Summary:    payload.Summary,
			Keywords:   payload.Keywords,
			Content:    payload.Content,
			DocumentID: payload.DocumentID,
			ChunkIndex: payload.ChunkIndex,
			TokenCount: payload.TokenCount,
			Ranks:      f.ContributingRanks,
		})
	}

	searches.Inc()
	searchDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("hybrid search served",
		zap.Int("dense_hits", len(denseHits)),
		zap.Int("sparse_hits", len(sparseHits)),
		zap.Int("results", len(results)))
	return &SearchResult{Results: results, Method: searchMethod}, nil
}

func toCandidates(hits []qdrant.ScoredPoint) []fusion.RankedCandidate {
	out := make([]fusion.RankedCandidate, len(hits))
	for i, h := range hits {
		out[i] = fusion.RankedCandidate{ID: h.ID, Score: h.Score, Payload: h.Payload}
	}
	return out
}

// HealthStatus aggregates the per-collaborator checks.
type HealthStatus struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details"`
}

// Health reports whether the service and its collaborators can serve
// traffic. Only the vector store is probed live; the segmentation and
// embedding clients are validated at construction.
func (s *Service) Health(ctx context.Context) *HealthStatus {
	details := map[string]string{
		"config":       "valid",
		"segmentation": "configured",
	}
	status := "healthy"
	if err := s.store.Healthy(ctx); err != nil {
		details["vector_database"] = err.Error()
		status = "unhealthy"
	} else {
		details["vector_database"] = "connected"
	}
	return &HealthStatus{Status: status, Details: details}
}
