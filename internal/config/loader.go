package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// maxConfigFileSize rejects oversized config files.
const maxConfigFileSize = 1024 * 1024 // 1MB

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_HTTP_PORT, LLM_MODEL, etc.)
//  2. YAML config file
//  3. Hardcoded defaults
//
// A missing config file is not an error; defaults plus environment
// variables are enough to run.
//
// Environment variables use underscore separator and are uppercased. The
// transformer splits on the first underscore (section.field_name pattern):
//
//	SERVER_HTTP_PORT    -> server.http_port
//	LLM_MODEL           -> llm.model
//	CATALOG_PRICE_RATE  -> catalog.price_rate
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		switch {
		case os.IsNotExist(err):
			// fall through to env + defaults
		case err != nil:
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		default:
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// Provider API keys usually arrive via the conventional variables
	// rather than section-prefixed ones.
	if cfg.Embeddings.APIKey == "" {
		cfg.Embeddings.APIKey = providerKeyFromEnv(cfg.Embeddings.Provider)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// providerKeyFromEnv resolves the conventional API key variable for a
// provider ("googleai" reads GEMINI_API_KEY, everything else OPENAI_API_KEY).
func providerKeyFromEnv(provider string) string {
	if provider == "googleai" || provider == "" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}
