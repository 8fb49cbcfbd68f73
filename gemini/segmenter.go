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

// Package gemini segments working buffers into semantic chunks using the
// Gemini API's structured JSON output.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/antflydb/chunkaf/chunking"
)

// DefaultModel is the deployment the segmentation prompt was tuned on.
const DefaultModel = "gemini-2.5-flash-preview-05-20"

// DefaultTemperature keeps segmentation near-deterministic.
const DefaultTemperature = 0.1

// Config configures the segmentation model.
type Config struct {
	APIKey            string  `yaml:"api_key" json:"api_key"`
	Model             string  `yaml:"model" json:"model"`
	Temperature       float32 `yaml:"temperature" json:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// Segmenter asks Gemini to split working buffers into semantic chunks. It
// implements chunking.Segmenter.
type Segmenter struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewSegmenter creates a Gemini-backed segmenter. The context is only used
// to construct the underlying API client.
func NewSegmenter(ctx context.Context, cfg Config, logger *zap.Logger) (*Segmenter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		limiter:     limiterFor(cfg.RequestsPerMinute),
		logger:      logger,
	}, nil
}

// Close releases the underlying API client.
func (s *Segmenter) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// limiterFor sizes a limiter from a requests-per-minute budget. Bursts stay
// small so a fresh process cannot blow through the budget up front.
func limiterFor(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	burst := rpm / 4
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

const segmentPrompt = `You are an expert at breaking documents into meaningful pieces. Split the text below into chunks that hold together - complete ideas, topics, or concepts.

IMPORTANT RULES:
1. Keep the EXACT original text in each chunk - do not change or summarize anything
2. Each chunk should be a complete thought or topic
3. Split at natural topic changes, not random places
4. Make chunks of reasonable size, but meaning matters more than size
5. Keep related examples and explanations together
6. Do not split closely related concepts across chunks

For each chunk, provide:
- Heading: a clear title that describes what the chunk is about
- Content: the exact original text from the document
- Keywords: 7-10 important words for searching
- Summary: a brief 1-2 sentence description of what the chunk contains

Text to process:
`

// chunkSchema constrains the model to the chunk list shape, so responses
// parse without prompt-format drift.
var chunkSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"chunks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"heading": {Type: genai.TypeString},
					"content": {Type: genai.TypeString},
					"keywords": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"summary": {Type: genai.TypeString},
				},
				Required: []string{"heading", "content", "keywords", "summary"},
			},
		},
	},
	Required: []string{"chunks"},
}

type modelChunk struct {
	Heading  string   `json:"heading"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

type modelResponse struct {
	Chunks []modelChunk `json:"chunks"`
}

// Segment sends the buffer to the model and converts its chunk list into
// proposals with byte-accurate consumption claims.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]chunking.SegmentProposal, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", chunking.ErrSegmentation, err)
		}
	}

	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(s.temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = chunkSchema

	resp, err := model.GenerateContent(ctx, genai.Text(segmentPrompt+text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", chunking.ErrSegmentation, err)
	}
	raw := responseText(resp)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty model response", chunking.ErrSegmentation)
	}

	var parsed modelResponse
	if err := sonic.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling model response: %w", chunking.ErrSegmentation, err)
	}

	props := alignProposals(text, parsed.Chunks)
	s.logger.Debug("segmented buffer",
		zap.Int("bytes", len(text)),
		zap.Int("model_chunks", len(parsed.Chunks)),
		zap.Int("proposals", len(props)))
	return props, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
