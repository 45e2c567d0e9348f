package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum enabled level: debug, info, warn, error.
	Level string `koanf:"level" json:"level"`

	// Format selects the encoder: "json" or "console".
	Format string `koanf:"format" json:"format"`

	// Fields are constant key/value pairs attached to every entry.
	Fields map[string]string `koanf:"fields" json:"fields,omitempty"`
}

// DefaultConfig returns the production defaults: info-level JSON output.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
	}
}

// Validate checks the config for unusable values.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format %q (want json or console)", c.Format)
	}
	return nil
}

// parseLevel maps a config level string to a zap level.
func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
}
