// Package main implements the recipeline CLI: batch extraction of
// structured recipe records from PDF documents, and re-validation of
// previously persisted records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recipeline/internal/config"
	"github.com/fyrsmithlabs/recipeline/internal/logging"
	"github.com/fyrsmithlabs/recipeline/internal/schema"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recipeline",
	Short: "Extract structured recipe records from chef PDFs",
	Long: `recipeline ingests free-form recipe PDFs, interprets them with an LLM,
validates the result against the recipe schema, and persists one
schema-conformant JSON record per document.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

// setup loads config, builds the logger, and resolves the schema
// registry. A missing or unparseable schema source is recovered with a
// logged warning and the built-in default shape; only config problems
// are fatal here.
func setup() (*config.Config, *logging.Logger, *schema.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	reg, err := schema.LoadFile(cfg.Schema.Path)
	if err != nil {
		log.Warn("falling back to built-in schema", zap.Error(err))
		reg = schema.Default()
	}

	return cfg, log, reg, nil
}
