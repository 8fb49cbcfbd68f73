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
package embeddings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
)

// Input types the embedding endpoint distinguishes so stored chunks and
// queries land in comparable regions of the vector space.
const (
	InputTypeDocument = "document"
	InputTypeQuery    = "query"
)

// Defaults for the Azure-hosted Cohere embedding deployment.
const (
	DefaultCohereModel = "embed-v-4-0"
	DefaultDimensions  = 1536

	defaultHTTPTimeout = 30 * time.Second
)

// ErrEmbedding marks failures of the remote embedding service.
var ErrEmbedding = errors.New("embedding service request failed")

// CohereConfig configures the Azure-hosted Cohere embeddings deployment.
type CohereConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	APIKey     string        `yaml:"api_key" json:"api_key"`
	Model      string        `yaml:"model" json:"model"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// CohereClient is a client for an Azure-hosted Cohere embeddings deployment.
type CohereClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewCohereClient creates a new embeddings client. A nil httpClient gets a
// default client with the configured timeout.
func NewCohereClient(cfg CohereConfig, httpClient *http.Client) (*CohereClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("cohere endpoint required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("cohere api key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultCohereModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &CohereClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: httpClient,
	}, nil
}

// Dimensions returns the vector width the deployment produces.
func (c *CohereClient) Dimensions() int {
	return c.dimensions
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocument returns the dense vector for chunk text being stored.
func (c *CohereClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, InputTypeDocument)
}

// EmbedQuery returns the dense vector for a search query.
func (c *CohereClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, InputTypeQuery)
}

func (c *CohereClient) embed(ctx context.Context, text, inputType string) ([]float32, error) {
	embedURL, _ := url.JoinPath(c.endpoint, "embeddings")
	bodyBytes, err := sonic.Marshal(embedRequest{
		Model:     c.model,
		Input:     []string{text},
		InputType: inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling embed request: %w", err)
	}

	respBody, err := c.sendRequest(ctx, http.MethodPost, embedURL, "application/json", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	var parsed embedResponse
	if err := sonic.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling response: %w", ErrEmbedding, err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response carries no embedding", ErrEmbedding)
	}
	vec := parsed.Data[0].Embedding
	if len(vec) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, deployment is configured for %d",
			ErrEmbedding, len(vec), c.dimensions)
	}
	return vec, nil
}

// sendRequest sends an HTTP request to the specified endpoint with the given content type.
func (c *CohereClient) sendRequest(ctx context.Context, method, reqURL, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("api-key", c.apiKey)

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
		return respBody, fmt.Errorf("received non-OK status %d from %s: %s", resp.StatusCode, reqURL, string(respBody))
	}
	return respBody, nil
}
