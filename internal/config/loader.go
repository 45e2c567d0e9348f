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

// envPrefix namespaces recipeline environment variables.
const envPrefix = "RECIPELINE_"

// Load builds the configuration from a YAML file and environment
// variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (RECIPELINE_BATCH_WORKERS, RECIPELINE_LLM_MODEL, ...)
//  2. YAML config file (configPath; skipped when empty or absent)
//  3. Hardcoded defaults
//
// OPENAI_API_KEY is honored as a fallback for llm.api_key so the standard
// variable keeps working without a recipeline-specific alias.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	// Environment variables override the file. The transformer maps
	// RECIPELINE_BATCH_WORKERS -> batch.workers: the first underscore
	// after the prefix separates section from field, the rest of the
	// underscores stay in the field name.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
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

	if !cfg.LLM.APIKey.IsSet() {
		cfg.LLM.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}

	applyDefaults(&cfg)

	// Zero is a legitimate temperature, so the default applies on key
	// absence rather than on zero value.
	if !k.Exists("llm.temperature") {
		cfg.LLM.Temperature = 0.1
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
