// Package embeddings generates vector embeddings via langchaingo.
//
// The service wraps langchaingo's embeddings abstraction over a hosted
// provider: Google AI (Gemini embedding models, the default) or any
// OpenAI-compatible endpoint (OpenAI, TEI). Embedding vectors feed the
// vector store; the service never stores anything itself.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"os"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Sentinel errors for the embedding service.
var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Provider identifiers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// Config holds configuration for the embedding service.
type Config struct {
	// Provider selects the embedding backend: "googleai" (default) or
	// "openai" (also covers OpenAI-compatible servers such as TEI).
	Provider string `koanf:"provider"`

	// Model is the embedding model.
	// googleai: embedding-001 (768 dimensions, default)
	// openai:   text-embedding-3-small, text-embedding-3-large
	Model string `koanf:"model"`

	// APIKey authenticates against the provider.
	APIKey string `koanf:"api_key"`

	// BaseURL overrides the API endpoint (openai provider only; used for
	// TEI and other OpenAI-compatible servers).
	BaseURL string `koanf:"base_url"`

	// BatchSize is the number of texts embedded per API call. Default: 64.
	BatchSize int `koanf:"batch_size"`

	// RequestsPerSecond rate-limits outbound embedding calls. Zero
	// disables client-side limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ConfigFromEnv creates a Config from environment variables.
//
// Environment variables:
//   - EMBEDDINGS_PROVIDER: backend (default: googleai)
//   - EMBEDDINGS_MODEL: model name (default: embedding-001)
//   - GEMINI_API_KEY / OPENAI_API_KEY: provider credentials
//   - EMBEDDINGS_BASE_URL: OpenAI-compatible endpoint override
func ConfigFromEnv() Config {
	cfg := Config{
		Provider: os.Getenv("EMBEDDINGS_PROVIDER"),
		Model:    os.Getenv("EMBEDDINGS_MODEL"),
		BaseURL:  os.Getenv("EMBEDDINGS_BASE_URL"),
	}
	cfg.ApplyDefaults()

	if cfg.Provider == ProviderGoogleAI {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	} else {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderGoogleAI
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderGoogleAI:
			c.Model = "embedding-001"
		default:
			c.Model = "text-embedding-3-small"
		}
	}
	if c.BatchSize == 0 {
		c.BatchSize = 64
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGoogleAI, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Provider == ProviderGoogleAI && c.APIKey == "" {
		return fmt.Errorf("%w: API key required for googleai provider", ErrInvalidConfig)
	}
	return nil
}

// Service provides embedding generation.
//
// It implements the vector store's Embedder interface: batch embedding
// for documents and single-text embedding for queries.
type Service struct {
	embedder lcembeddings.Embedder
	limiter  *rate.Limiter
	config   Config
}

// NewService creates a new embedding service with the given configuration.
func NewService(ctx context.Context, config Config) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := newEmbedderClient(ctx, config)
	if err != nil {
		return nil, err
	}

	embedder, err := lcembeddings.NewEmbedder(client,
		lcembeddings.WithBatchSize(config.BatchSize),
		lcembeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Service{
		embedder: embedder,
		limiter:  limiter,
		config:   config,
	}, nil
}

// newEmbedderClient creates the provider-specific langchaingo client.
func newEmbedderClient(ctx context.Context, config Config) (lcembeddings.EmbedderClient, error) {
	switch config.Provider {
	case ProviderGoogleAI:
		client, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultEmbeddingModel(config.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("creating googleai client: %w", err)
		}
		return client, nil

	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithEmbeddingModel(config.Model),
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		apiKey := config.APIKey
		if apiKey == "" {
			// langchaingo requires a token; TEI ignores it.
			apiKey = "placeholder"
		}
		opts = append(opts, openai.WithToken(apiKey))

		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, config.Provider)
	}
}

// Embedder returns the underlying langchaingo Embedder.
func (s *Service) Embedder() lcembeddings.Embedder {
	return s.embedder
}

// EmbedDocuments generates embeddings for multiple texts, one vector per
// input. Calls are batched per Config.BatchSize by langchaingo.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vector, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
