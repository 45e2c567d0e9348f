package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recipeline/internal/batch"
	"github.com/fyrsmithlabs/recipeline/internal/docpipe"
	"github.com/fyrsmithlabs/recipeline/internal/extract"
	"github.com/fyrsmithlabs/recipeline/internal/llm"
	"github.com/fyrsmithlabs/recipeline/internal/report"
	"github.com/fyrsmithlabs/recipeline/internal/store"
)

var (
	runInputDir  string
	runOutputDir string
	runWorkers   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every PDF in the input directory",
	Long: `Discover all PDF documents in the input directory, run each through the
extraction pipeline, persist one JSON record per success, and print the
batch summary.

Per-document failures are reported in the summary and never abort the
batch; the exit status is non-zero only on a setup fault.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runInputDir, "input", "", "input directory (overrides config)")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "output directory (overrides config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "worker count (overrides config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, reg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if runInputDir != "" {
		cfg.Input.Dir = runInputDir
	}
	if runOutputDir != "" {
		cfg.Output.Dir = runOutputDir
	}
	if runWorkers > 0 {
		cfg.Batch.Workers = runWorkers
	}

	paths, err := filepath.Glob(filepath.Join(cfg.Input.Dir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Input.Dir, err)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No PDF files found in %s\n", cfg.Input.Dir)
		return nil
	}

	interp, err := llm.New(llm.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey.Value(),
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: &cfg.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("configuring interpreter: %w", err)
	}

	st, err := store.NewFileStore(cfg.Output.Dir)
	if err != nil {
		return err
	}

	orch := extract.NewOrchestrator(docpipe.NewPDFExtractor(), interp, reg, log)
	runner := batch.NewRunner(orch, st, cfg.Batch.Workers, cfg.Batch.DocumentTimeout.Duration(), log)
	rep := runner.Run(cmd.Context(), paths)

	out := cmd.OutOrStdout()
	for _, e := range rep.Entries {
		if e.Succeeded() {
			fmt.Fprintln(out, report.Recipe(e.Recipe))
		}
	}
	fmt.Fprint(out, report.Batch(rep))
	return nil
}
