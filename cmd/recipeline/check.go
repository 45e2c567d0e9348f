package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recipeline/internal/report"
	"github.com/fyrsmithlabs/recipeline/internal/store"
	"github.com/fyrsmithlabs/recipeline/internal/validate"
)

var checkOutputDir string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-validate every persisted record against the schema",
	Long: `Read every JSON record in the output directory, validate it against the
recipe schema, and print a per-file pass/fail report with itemized
reasons plus an aggregate tally.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkOutputDir, "output", "", "output directory (overrides config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, reg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if checkOutputDir != "" {
		cfg.Output.Dir = checkOutputDir
	}

	st, err := store.NewFileStore(cfg.Output.Dir)
	if err != nil {
		return err
	}

	names, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No JSON records found in %s\n", cfg.Output.Dir)
		return nil
	}

	results := make([]report.CheckResult, 0, len(names))
	for _, name := range names {
		res := report.CheckResult{Name: name}
		payload, err := st.Read(name)
		if err != nil {
			res.Errors = []string{err.Error()}
		} else if _, verrs := validate.Validate(payload, reg); len(verrs) > 0 {
			res.Errors = make([]string, len(verrs))
			for i, ve := range verrs {
				res.Errors[i] = ve.Error()
			}
		}
		results = append(results, res)
	}

	fmt.Fprint(out, report.Check(results))
	return nil
}
