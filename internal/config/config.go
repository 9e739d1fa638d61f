// Package config provides configuration loading for shopd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. Each section delegates to the owning package's config type so
// defaults and validation live next to the code they describe.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/embeddings"
	"github.com/fyrsmithlabs/shopd/internal/llm"
	"github.com/fyrsmithlabs/shopd/internal/telemetry"
	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// Config holds the complete shopd configuration.
type Config struct {
	Server        ServerConfig         `koanf:"server"`
	Log           LogConfig            `koanf:"log"`
	Catalog       catalog.LoaderConfig `koanf:"catalog"`
	VectorStore   vectorstore.Config   `koanf:"vectorstore"`
	Embeddings    embeddings.Config    `koanf:"embeddings"`
	LLM           llm.Config           `koanf:"llm"`
	Prompts       PromptsConfig        `koanf:"prompts"`
	Retrieval     RetrievalConfig      `koanf:"retrieval"`
	Observability telemetry.Config     `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Development switches to human-readable console output.
	Development bool `koanf:"development"`
}

// PromptsConfig holds prompt template configuration.
type PromptsConfig struct {
	// Dir is the directory holding .tmpl prompt files.
	Dir string `koanf:"dir"`

	// Watch reloads templates when files change on disk.
	Watch bool `koanf:"watch"`
}

// RetrievalConfig tunes the retrieval stage of the query pipeline.
type RetrievalConfig struct {
	// PerCategoryLimit caps results fetched per detected category.
	PerCategoryLimit int `koanf:"per_category_limit"`

	// RebuildBatchSize is the indexing batch size for full rebuilds.
	RebuildBatchSize int `koanf:"rebuild_batch_size"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "./data/catalog.csv"
	}
	cfg.Catalog.ApplyDefaults()

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = vectorstore.ProviderChromem
	}
	cfg.VectorStore.Chromem.ApplyDefaults()
	cfg.VectorStore.Qdrant.ApplyDefaults()

	cfg.Embeddings.ApplyDefaults()
	cfg.LLM.ApplyDefaults()

	if cfg.Prompts.Dir == "" {
		cfg.Prompts.Dir = "./prompts"
	}

	if cfg.Retrieval.PerCategoryLimit == 0 {
		cfg.Retrieval.PerCategoryLimit = 18
	}
	if cfg.Retrieval.RebuildBatchSize == 0 {
		cfg.Retrieval.RebuildBatchSize = 128
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "shopd"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
	if cfg.Observability.ShutdownTimeout == 0 {
		cfg.Observability.ShutdownTimeout = 5 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}

	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vectorstore: %w", err)
	}
	if err := c.Embeddings.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	if c.Prompts.Dir == "" {
		return fmt.Errorf("prompts dir required")
	}
	if c.Retrieval.PerCategoryLimit < 1 {
		return fmt.Errorf("retrieval per_category_limit must be positive")
	}
	if c.Retrieval.RebuildBatchSize < 1 {
		return fmt.Errorf("retrieval rebuild_batch_size must be positive")
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	return nil
}
