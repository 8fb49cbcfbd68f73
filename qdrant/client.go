/*
Copyright 2026 The Antfly Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package qdrant is a REST client for the Qdrant collection holding chunk
// vectors and payloads.
package qdrant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/antflydb/chunkaf/embeddings"
)

// DefaultCollection is the collection chunks are stored in.
const DefaultCollection = "semantic_chunks"

// Named vectors inside each stored point.
const (
	VectorDense  = "dense"
	VectorSparse = "sparse"
)

// Collection tuning. Dense HNSW graphs are built wide for recall and the
// segment count matches the upsert parallelism of a typical node.
const (
	hnswM           = 64
	hnswEfConstruct = 512
	defaultSegments = 8
	searchHnswEf    = 128

	defaultTimeout = 15 * time.Second
)

// ErrVectorStore marks failures of the vector store.
var ErrVectorStore = errors.New("vector store request failed")

// Config configures the Qdrant connection.
type Config struct {
	URL        string        `yaml:"url" json:"url"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	Collection string        `yaml:"collection" json:"collection"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// Client is a client for a single Qdrant collection.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client

	mu      sync.Mutex
	ensured bool
}

// NewClient creates a new Qdrant client. A nil httpClient gets a default
// client with the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: httpClient,
	}, nil
}

// Collection returns the collection name in use.
func (c *Client) Collection() string {
	return c.collection
}

// Payload is the stored metadata of one chunk.
type Payload struct {
	DocumentID string   `json:"document_id"`
	ChunkIndex int      `json:"chunk_index"`
	Heading    string   `json:"heading"`
	Content    string   `json:"content"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
	TokenCount int      `json:"token_count"`
}

// Point is one chunk ready for storage.
type Point struct {
	ID      string
	Dense   []float32
	Sparse  embeddings.SparseVector
	Payload Payload
}

// ScoredPoint is one search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Payload
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type sparseVectorParams struct {
	Modifier string `json:"modifier"`
}

type hnswConfig struct {
	M           int `json:"m"`
	EfConstruct int `json:"ef_construct"`
}

type optimizersConfig struct {
	DefaultSegmentNumber int `json:"default_segment_number"`
}

type createCollectionRequest struct {
	Vectors       map[string]vectorParams       `json:"vectors"`
	SparseVectors map[string]sparseVectorParams `json:"sparse_vectors"`
	HnswConfig    hnswConfig                    `json:"hnsw_config"`
	Optimizers    optimizersConfig              `json:"optimizers_config"`
}

// EnsureCollection creates the collection when it does not exist yet. The
// dense side stores dims-wide cosine vectors; the sparse side applies the
// store's IDF modifier so term-frequency vectors score like BM25. An
// existing collection is left untouched. Safe for concurrent use: callers
// serialize here and a successful run latches, so later calls return
// without touching the store.
func (c *Client) EnsureCollection(ctx context.Context, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("%w: invalid dense dimension %d", ErrVectorStore, dims)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ensured {
		return nil
	}
	if err := c.ensureCollection(ctx, dims); err != nil {
		return err
	}
	c.ensured = true
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, dims int) error {
	collectionURL, _ := url.JoinPath(c.baseURL, "collections", c.collection)
	_, err := c.sendRequest(ctx, http.MethodGet, collectionURL, "", nil)
	if err == nil {
		return nil
	}
	if status, ok := c.statusOf(err); !ok || status != http.StatusNotFound {
		return fmt.Errorf("%w: checking collection: %w", ErrVectorStore, err)
	}

	bodyBytes, err := sonic.Marshal(createCollectionRequest{
		Vectors: map[string]vectorParams{
			VectorDense: {Size: dims, Distance: "Cosine"},
		},
		SparseVectors: map[string]sparseVectorParams{
			VectorSparse: {Modifier: "idf"},
		},
		HnswConfig: hnswConfig{M: hnswM, EfConstruct: hnswEfConstruct},
		Optimizers: optimizersConfig{DefaultSegmentNumber: defaultSegments},
	})
	if err != nil {
		return fmt.Errorf("marshalling create collection request: %w", err)
	}
	if _, err := c.sendRequest(ctx, http.MethodPut, collectionURL, "application/json", bytes.NewBuffer(bodyBytes)); err != nil {
		return fmt.Errorf("%w: creating collection: %w", ErrVectorStore, err)
	}
	return nil
}

type pointRecord struct {
	ID      string         `json:"id"`
	Vector  map[string]any `json:"vector"`
	Payload Payload        `json:"payload"`
}

type upsertRequest struct {
	Points []pointRecord `json:"points"`
}

// Upsert writes the points and waits for them to be persisted.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	records := make([]pointRecord, len(points))
	for i, p := range points {
		vector := map[string]any{VectorDense: p.Dense}
		if !p.Sparse.IsZero() {
			vector[VectorSparse] = p.Sparse
		}
		records[i] = pointRecord{ID: p.ID, Vector: vector, Payload: p.Payload}
	}
	bodyBytes, err := sonic.Marshal(upsertRequest{Points: records})
	if err != nil {
		return fmt.Errorf("marshalling upsert request: %w", err)
	}

	upsertURL, _ := url.JoinPath(c.baseURL, "collections", c.collection, "points")
	upsertURL += "?wait=true"
	if _, err := c.sendRequest(ctx, http.MethodPut, upsertURL, "application/json", bytes.NewBuffer(bodyBytes)); err != nil {
		return fmt.Errorf("%w: upserting %d points: %w", ErrVectorStore, len(points), err)
	}
	return nil
}

type searchParams struct {
	HnswEf int  `json:"hnsw_ef"`
	Exact  bool `json:"exact"`
}

type queryRequest struct {
	Query       any           `json:"query"`
	Using       string        `json:"using"`
	Limit       int           `json:"limit"`
	WithPayload bool          `json:"with_payload"`
	Params      *searchParams `json:"params,omitempty"`
}

type queryResponse struct {
	Result struct {
		Points []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// QueryDense returns the top hits by cosine similarity on the dense vectors.
func (c *Client) QueryDense(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	return c.query(ctx, queryRequest{
		Query:       vector,
		Using:       VectorDense,
		Limit:       limit,
		WithPayload: true,
		Params:      &searchParams{HnswEf: searchHnswEf},
	})
}

// QuerySparse returns the top hits by IDF-weighted term overlap on the
// sparse vectors.
func (c *Client) QuerySparse(ctx context.Context, vector embeddings.SparseVector, limit int) ([]ScoredPoint, error) {
	if vector.IsZero() {
		return nil, nil
	}
	return c.query(ctx, queryRequest{
		Query:       vector,
		Using:       VectorSparse,
		Limit:       limit,
		WithPayload: true,
	})
}

func (c *Client) query(ctx context.Context, req queryRequest) ([]ScoredPoint, error) {
	bodyBytes, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling query request: %w", err)
	}

	queryURL, _ := url.JoinPath(c.baseURL, "collections", c.collection, "points", "query")
	respBody, err := c.sendRequest(ctx, http.MethodPost, queryURL, "application/json", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s vectors: %w", ErrVectorStore, req.Using, err)
	}

	var parsed queryResponse
	if err := sonic.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling query response: %w", ErrVectorStore, err)
	}

	hits := make([]ScoredPoint, 0, len(parsed.Result.Points))
	for _, p := range parsed.Result.Points {
		hits = append(hits, ScoredPoint{
			ID:      pointID(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return hits, nil
}

// Healthy reports whether the collection is reachable.
func (c *Client) Healthy(ctx context.Context) error {
	collectionURL, _ := url.JoinPath(c.baseURL, "collections", c.collection)
	if _, err := c.sendRequest(ctx, http.MethodGet, collectionURL, "", nil); err != nil {
		return fmt.Errorf("%w: %w", ErrVectorStore, err)
	}
	return nil
}

// pointID renders a point identifier, which Qdrant may return as a UUID
// string or an unsigned integer.
func pointID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprint(v)
	}
}

// statusError carries the HTTP status of a failed request so callers can
// distinguish a missing collection from a broken store.
type statusError struct {
	status int
	url    string
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("received non-OK status %d from %s: %s", e.status, e.url, e.body)
}

func (c *Client) statusOf(err error) (int, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.status, true
	}
	return 0, false
}

// sendRequest sends an HTTP request to the specified endpoint with the given content type.
func (c *Client) sendRequest(ctx context.Context, method, reqURL, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading http response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return respBody, &statusError{status: resp.StatusCode, url: reqURL, body: string(respBody)}
	}
	return respBody, nil
}
