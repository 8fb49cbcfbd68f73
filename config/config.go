// Package config loads the service configuration from a YAML file with
// environment overrides for secrets and deploy-time settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antflydb/chunkaf/chunking"
	"github.com/antflydb/chunkaf/embeddings"
	"github.com/antflydb/chunkaf/fusion"
	"github.com/antflydb/chunkaf/gemini"
	"github.com/antflydb/chunkaf/logging"
	"github.com/antflydb/chunkaf/qdrant"
	"github.com/antflydb/chunkaf/service"
)

// Config is the full configuration file schema.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  logging.Config `yaml:"logging" json:"logging"`
	Chunking ChunkingConfig `yaml:"chunking" json:"chunking"`
	Gemini   GeminiConfig   `yaml:"gemini" json:"gemini"`
	Cohere   CohereConfig   `yaml:"cohere" json:"cohere"`
	Qdrant   QdrantConfig   `yaml:"qdrant" json:"qdrant"`
	Search   SearchConfig   `yaml:"search" json:"search"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host  string `yaml:"host" json:"host"`
	Port  int    `yaml:"port" json:"port"`
	Debug bool   `yaml:"debug" json:"debug"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ChunkingConfig configures the extraction window.
type ChunkingConfig struct {
	MaxBufferTokens  int `yaml:"max_buffer_tokens" json:"max_buffer_tokens"`
	RefillThreshold  int `yaml:"refill_threshold" json:"refill_threshold"`
	MinSegmentTokens int `yaml:"min_segment_tokens" json:"min_segment_tokens"`

	// SegmentTimeout is the per-segmentation-call timeout in Go duration
	// format (e.g. "2m").
	SegmentTimeout string `yaml:"segment_timeout" json:"segment_timeout"`
}

// GeminiConfig configures the segmentation model client.
type GeminiConfig struct {
	APIKey            string  `yaml:"api_key" json:"api_key"`
	Model             string  `yaml:"model" json:"model"`
	Temperature       float32 `yaml:"temperature" json:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// CohereConfig configures the dense embedding client.
type CohereConfig struct {
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`

	// Timeout is the HTTP timeout in Go duration format (e.g. "30s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// QdrantConfig configures the vector store client.
type QdrantConfig struct {
	URL        string `yaml:"url" json:"url"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	Collection string `yaml:"collection" json:"collection"`

	// Timeout is the HTTP timeout in Go duration format (e.g. "15s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// SearchConfig configures result ranking.
type SearchConfig struct {
	RRFK         int `yaml:"rrf_k" json:"rrf_k"`
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
}

// LoadConfig loads configuration from a YAML file, applies defaults, and
// then applies environment overrides. An empty path skips the file and uses
// defaults plus environment only.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Chunking.MaxBufferTokens == 0 {
		c.Chunking.MaxBufferTokens = chunking.DefaultMaxBufferTokens
	}
	if c.Chunking.RefillThreshold == 0 {
		c.Chunking.RefillThreshold = chunking.DefaultRefillThreshold
	}
	if c.Chunking.MinSegmentTokens == 0 {
		c.Chunking.MinSegmentTokens = chunking.DefaultMinSegmentTokens
	}
	if c.Chunking.SegmentTimeout == "" {
		c.Chunking.SegmentTimeout = chunking.DefaultSegmentTimeout.String()
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = gemini.DefaultModel
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = gemini.DefaultTemperature
	}
	if c.Cohere.Model == "" {
		c.Cohere.Model = embeddings.DefaultCohereModel
	}
	if c.Cohere.Dimensions == 0 {
		c.Cohere.Dimensions = embeddings.DefaultDimensions
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = qdrant.DefaultCollection
	}
	if c.Search.RRFK == 0 {
		c.Search.RRFK = fusion.DefaultK
	}
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = service.DefaultSearchLimit
	}
}

// applyEnv overrides settings from the environment. Secrets are expected to
// arrive this way rather than through the file.
func (c *Config) applyEnv() error {
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Cohere.APIKey, "AZURE_COHERE_API_KEY")
	setString(&c.Cohere.Endpoint, "AZURE_COHERE_ENDPOINT")
	setString(&c.Cohere.Model, "COHERE_MODEL_NAME")
	setString(&c.Qdrant.URL, "QDRANT_URL")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Server.Host, "APP_HOST")

	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DEBUG_MODE"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG_MODE %q: %w", v, err)
		}
		c.Server.Debug = debug
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Chunking.RefillThreshold >= c.Chunking.MaxBufferTokens {
		return fmt.Errorf("%w: refill_threshold %d must be below max_buffer_tokens %d",
			chunking.ErrInvalidConfig, c.Chunking.RefillThreshold, c.Chunking.MaxBufferTokens)
	}
	if c.Chunking.MinSegmentTokens < 0 {
		return fmt.Errorf("%w: negative min_segment_tokens", chunking.ErrInvalidConfig)
	}
	if _, err := time.ParseDuration(c.Chunking.SegmentTimeout); err != nil {
		return fmt.Errorf("invalid chunking segment_timeout: %w", err)
	}
	if c.Cohere.Timeout != "" {
		if _, err := time.ParseDuration(c.Cohere.Timeout); err != nil {
			return fmt.Errorf("invalid cohere timeout: %w", err)
		}
	}
	if c.Qdrant.Timeout != "" {
		if _, err := time.ParseDuration(c.Qdrant.Timeout); err != nil {
			return fmt.Errorf("invalid qdrant timeout: %w", err)
		}
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key is required (set GEMINI_API_KEY)")
	}
	if c.Cohere.APIKey == "" {
		return fmt.Errorf("cohere api key is required (set AZURE_COHERE_API_KEY)")
	}
	if c.Cohere.Endpoint == "" {
		return fmt.Errorf("cohere endpoint is required (set AZURE_COHERE_ENDPOINT)")
	}
	if c.Qdrant.URL == "" {
		return fmt.Errorf("qdrant url is required (set QDRANT_URL)")
	}
	return nil
}

// ExtractorConfig converts the chunking section for the extraction loop.
func (c ChunkingConfig) ExtractorConfig() chunking.ExtractorConfig {
	timeout, _ := time.ParseDuration(c.SegmentTimeout)
	return chunking.ExtractorConfig{
		MaxBufferTokens:  c.MaxBufferTokens,
		RefillThreshold:  c.RefillThreshold,
		MinSegmentTokens: c.MinSegmentTokens,
		SegmentTimeout:   timeout,
	}
}

// ClientConfig converts the gemini section for the segmentation client.
func (c GeminiConfig) ClientConfig() gemini.Config {
	return gemini.Config{
		APIKey:            c.APIKey,
		Model:             c.Model,
		Temperature:       c.Temperature,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}

// ClientConfig converts the cohere section for the embedding client.
func (c CohereConfig) ClientConfig() embeddings.CohereConfig {
	timeout, _ := time.ParseDuration(c.Timeout)
	return embeddings.CohereConfig{
		Endpoint:   c.Endpoint,
		APIKey:     c.APIKey,
		Model:      c.Model,
		Dimensions: c.Dimensions,
		Timeout:    timeout,
	}
}

// ClientConfig converts the qdrant section for the vector store client.
func (c QdrantConfig) ClientConfig() qdrant.Config {
	timeout, _ := time.ParseDuration(c.Timeout)
	return qdrant.Config{
		URL:        c.URL,
		APIKey:     c.APIKey,
		Collection: c.Collection,
		Timeout:    timeout,
	}
}
