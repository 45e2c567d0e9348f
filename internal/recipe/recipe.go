// Package recipe defines the structured record produced by the extraction
// pipeline: a Recipe made of Components, each made of Ingredients. Values
// are constructed by the validator from an accepted payload and are not
// mutated afterwards except for the normalizer's single pass over Chef.
package recipe

// UnknownChef is the sentinel used when no chef name was found in the
// source document. The normalizer leaves it untouched.
const UnknownChef = "Unknown Chef"

// ComponentType classifies a component of a plated dish.
type ComponentType string

// The four recognized component types. Matching is case-sensitive.
const (
	TypeProtein   ComponentType = "protein"
	TypeStarch    ComponentType = "starch"
	TypeVegetable ComponentType = "vegetable"
	TypeSauce     ComponentType = "sauce"
)

// ComponentTypes lists the valid component types in declaration order.
func ComponentTypes() []ComponentType {
	return []ComponentType{TypeProtein, TypeStarch, TypeVegetable, TypeSauce}
}

// IsValid reports whether t is one of the four recognized types.
func (t ComponentType) IsValid() bool {
	switch t {
	case TypeProtein, TypeStarch, TypeVegetable, TypeSauce:
		return true
	}
	return false
}

// Recipe is the top-level record for one dish. Field declaration order is
// the persisted JSON field order.
type Recipe struct {
	RecipeName string      `json:"recipe_name"`
	Chef       string      `json:"chef"`
	YieldCount float64     `json:"yield_count"`
	Allergens  []string    `json:"allergens"`
	Components []Component `json:"components"`
}

// Component is one distinct preparable part of the meal. A zero
// CookTempFahrenheit means "not applicable/unknown", not freezing.
type Component struct {
	Name               string        `json:"name"`
	Type               ComponentType `json:"type"`
	PrepTimeMinutes    float64       `json:"prep_time_minutes"`
	CookTimeMinutes    float64       `json:"cook_time_minutes"`
	CookTempFahrenheit float64       `json:"cook_temp_fahrenheit"`
	CookMethod         string        `json:"cook_method"`
	PortionWeightGrams float64       `json:"portion_weight_grams"`
	Ingredients        []Ingredient  `json:"ingredients"`
}

// Ingredient is a named quantity within a component.
type Ingredient struct {
	Name                  string  `json:"name"`
	AmountPerPortionGrams float64 `json:"amount_per_portion_grams"`
}
