// Package config provides configuration loading for recipeline.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/recipeline/internal/logging"
)

// Config is the process-wide configuration, constructed once at startup
// and passed by reference into the pipeline. No component reads ambient
// environment state after this is built.
type Config struct {
	Input   InputConfig    `koanf:"input"`
	Output  OutputConfig   `koanf:"output"`
	Schema  SchemaConfig   `koanf:"schema"`
	Batch   BatchConfig    `koanf:"batch"`
	LLM     LLMConfig      `koanf:"llm"`
	Logging logging.Config `koanf:"logging"`
}

// InputConfig locates the source documents.
type InputConfig struct {
	// Dir is scanned non-recursively for *.pdf documents.
	Dir string `koanf:"dir"`
}

// OutputConfig locates the persisted records.
type OutputConfig struct {
	// Dir receives one <source base name>.json file per successful recipe.
	Dir string `koanf:"dir"`
}

// SchemaConfig locates the external schema source.
type SchemaConfig struct {
	// Path points at a JSON-schema file. A missing or unparseable file is
	// not fatal; the built-in default shape is used instead.
	Path string `koanf:"path"`
}

// BatchConfig controls batch execution.
type BatchConfig struct {
	// Workers bounds concurrent document processing. 1 means sequential.
	Workers int `koanf:"workers"`

	// DocumentTimeout bounds one document's interpretation call.
	DocumentTimeout Duration `koanf:"document_timeout"`
}

// LLMConfig configures the interpretation collaborator.
type LLMConfig struct {
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`

	// Temperature defaults to 0.1 only when the key is absent from both
	// file and environment; an explicit 0 is a valid setting and sticks.
	Temperature float64 `koanf:"temperature"`
}

// applyDefaults fills in defaults for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Input.Dir == "" {
		cfg.Input.Dir = "sample-recipes"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Schema.Path == "" {
		cfg.Schema.Path = "schema.json"
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 4
	}
	if cfg.Batch.DocumentTimeout == 0 {
		cfg.Batch.DocumentTimeout = Duration(90 * time.Second)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return fmt.Errorf("input.dir must not be empty")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.DocumentTimeout.Duration() <= 0 {
		return fmt.Errorf("batch.document_timeout must be positive")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
