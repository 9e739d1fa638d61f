// Package llm wraps a hosted chat completion model behind a small
// service interface used by the agent pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Sentinel errors.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrGenerationFailed indicates the provider call failed.
	ErrGenerationFailed = errors.New("completion generation failed")
)

// Provider identifiers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// defaultTemperature matches the upstream assistant tuning.
const defaultTemperature = 0.4

// Config holds configuration for the completion client.
type Config struct {
	// Provider selects the backend: "googleai" (default) or "openai"
	// (also covers OpenAI-compatible gateways).
	Provider string `koanf:"provider"`

	// Model is the completion model.
	// googleai: gemini-2.5-flash-lite (default)
	// openai:   gpt-4o-mini, ...
	Model string `koanf:"model"`

	// APIKey authenticates against the provider.
	APIKey string `koanf:"api_key"`

	// BaseURL overrides the API endpoint (openai provider only).
	BaseURL string `koanf:"base_url"`

	// Temperature is the sampling temperature. Default: 0.4.
	Temperature float64 `koanf:"temperature"`

	// RequestsPerSecond rate-limits outbound completion calls. Zero
	// disables client-side limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ConfigFromEnv creates a Config from environment variables.
//
// Environment variables:
//   - LLM_PROVIDER: backend (default: googleai)
//   - LLM_MODEL: model name (default: gemini-2.5-flash-lite)
//   - GEMINI_API_KEY / OPENAI_API_KEY: provider credentials
//   - LLM_BASE_URL: OpenAI-compatible endpoint override
func ConfigFromEnv() Config {
	cfg := Config{
		Provider: os.Getenv("LLM_PROVIDER"),
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
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
			c.Model = "gemini-2.5-flash-lite"
		default:
			c.Model = "gpt-4o-mini"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
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
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature %f out of range [0, 2]", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

// Client generates text completions from a single prompt.
//
// The agent pipeline depends on this interface rather than the concrete
// service so tests can substitute canned model replies.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service is the langchaingo-backed Client implementation.
type Service struct {
	model   llms.Model
	limiter *rate.Limiter
	config  Config
}

// NewService creates a completion service for the configured provider.
func NewService(ctx context.Context, config Config) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	model, err := newModel(ctx, config)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Service{
		model:   model,
		limiter: limiter,
		config:  config,
	}, nil
}

// newModel creates the provider-specific langchaingo model.
func newModel(ctx context.Context, config Config) (llms.Model, error) {
	switch config.Provider {
	case ProviderGoogleAI:
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("creating googleai client: %w", err)
		}
		return model, nil

	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(config.Model),
			openai.WithToken(config.APIKey),
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, config.Provider)
	}
}

// Generate sends a single prompt to the model and returns its text reply.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(s.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return out, nil
}

var _ Client = (*Service)(nil)
