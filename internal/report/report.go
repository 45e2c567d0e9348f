// Package report formats human-readable summaries of recipes and batch
// runs. Pure string building; no validation or business logic.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/recipeline/internal/batch"
	"github.com/fyrsmithlabs/recipeline/internal/recipe"
)

// Recipe renders one recipe's summary: name, chef, yield, allergens and
// the per-component breakdown.
func Recipe(r recipe.Recipe) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Recipe Name: %s\n", r.RecipeName)
	fmt.Fprintf(&sb, "Chef: %s\n", r.Chef)
	fmt.Fprintf(&sb, "Yield: %g portions\n", r.YieldCount)

	if len(r.Allergens) > 0 {
		fmt.Fprintf(&sb, "Allergens: %s\n", strings.Join(r.Allergens, ", "))
	} else {
		sb.WriteString("Allergens: None identified\n")
	}

	fmt.Fprintf(&sb, "Components: %d\n", len(r.Components))
	for i, c := range r.Components {
		fmt.Fprintf(&sb, "  %d. %s (%s)\n", i+1, c.Name, c.Type)
		fmt.Fprintf(&sb, "     Prep: %gmin, Cook: %gmin\n", c.PrepTimeMinutes, c.CookTimeMinutes)
		fmt.Fprintf(&sb, "     Method: %s\n", c.CookMethod)
		fmt.Fprintf(&sb, "     Portion weight: %gg\n", c.PortionWeightGrams)
		fmt.Fprintf(&sb, "     Ingredients: %d items\n", len(c.Ingredients))
	}

	return sb.String()
}

// Batch renders a batch report: one status line per document in input
// order, then the succeeded/total tally.
func Batch(rep batch.Report) string {
	var sb strings.Builder

	for _, e := range rep.Entries {
		name := filepath.Base(e.Input)
		if e.Succeeded() {
			fmt.Fprintf(&sb, "OK      %s -> %s\n", name, filepath.Base(e.Output))
		} else {
			fmt.Fprintf(&sb, "FAILED  %s: %v\n", name, e.Err)
		}
	}

	fmt.Fprintf(&sb, "\nProcessed %d/%d files successfully\n", rep.Succeeded, rep.Total)
	return sb.String()
}

// CheckResult is one persisted record's re-validation outcome.
type CheckResult struct {
	Name   string
	Errors []string
}

// Valid reports whether the record passed.
func (c CheckResult) Valid() bool { return len(c.Errors) == 0 }

// Check renders a re-validation run: per-file pass/fail with itemized
// reasons, then the aggregate tally.
func Check(results []CheckResult) string {
	var sb strings.Builder

	valid := 0
	for _, res := range results {
		if res.Valid() {
			fmt.Fprintf(&sb, "PASS  %s\n", res.Name)
			valid++
			continue
		}
		fmt.Fprintf(&sb, "FAIL  %s\n", res.Name)
		for _, e := range res.Errors {
			fmt.Fprintf(&sb, "      - %s\n", e)
		}
	}

	fmt.Fprintf(&sb, "\n%d/%d files are valid\n", valid, len(results))
	return sb.String()
}
