// Package normalize applies canonicalization rules to accepted recipes.
// Every rule is a pure, idempotent transformation.
package normalize

import (
	"strings"

	"github.com/fyrsmithlabs/recipeline/internal/recipe"
)

// chefPrefix is the canonical honorific, single trailing space included.
const chefPrefix = "Chef "

// Recipe returns a normalized copy of r. Applying it twice yields the
// same result as applying it once.
func Recipe(r recipe.Recipe) recipe.Recipe {
	r.Chef = ChefName(r.Chef)
	return r
}

// ChefName canonicalizes a chef name: the "Unknown Chef" sentinel and
// names already carrying the "Chef " prefix pass through unchanged; any
// other name gets the prefix prepended. Matching is case-sensitive.
func ChefName(name string) string {
	if name == recipe.UnknownChef {
		return name
	}
	if strings.HasPrefix(name, chefPrefix) {
		return name
	}
	return chefPrefix + name
}
