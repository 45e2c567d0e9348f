// Package schema holds the canonical shape definition for a recipe record:
// required field names, their kinds, and the component type enum. The
// registry is pure lookup data shared read-only by the validator and the
// interpretation prompt, so the two can never drift apart.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSchemaSource indicates the external schema source could not be used.
// Callers recover by falling back to Default; the error exists so the
// fallback can be logged once at startup.
var ErrSchemaSource = errors.New("schema source unavailable")

// Kind is the expected kind of a schema field.
type Kind string

const (
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindStringArray Kind = "array of strings"
	KindObjectArray Kind = "array of objects"
)

// Field pairs a wire-level field name with its expected kind.
type Field struct {
	Name string
	Kind Kind
}

// Registry is the canonical recipe shape. It exposes no mutation
// operations; callers needing a different shape construct a new value.
type Registry struct {
	recipeFields     []Field
	componentFields  []Field
	ingredientFields []Field
	componentTypes   []string
}

// Default returns the built-in recipe shape. It is always available and is
// the fallback when an external schema source cannot be loaded.
func Default() *Registry {
	return &Registry{
		recipeFields: []Field{
			{Name: "recipe_name", Kind: KindString},
			{Name: "chef", Kind: KindString},
			{Name: "yield_count", Kind: KindNumber},
			{Name: "allergens", Kind: KindStringArray},
			{Name: "components", Kind: KindObjectArray},
		},
		componentFields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "type", Kind: KindString},
			{Name: "prep_time_minutes", Kind: KindNumber},
			{Name: "cook_time_minutes", Kind: KindNumber},
			{Name: "cook_temp_fahrenheit", Kind: KindNumber},
			{Name: "cook_method", Kind: KindString},
			{Name: "portion_weight_grams", Kind: KindNumber},
			{Name: "ingredients", Kind: KindObjectArray},
		},
		ingredientFields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "amount_per_portion_grams", Kind: KindNumber},
		},
		componentTypes: []string{"protein", "starch", "vegetable", "sauce"},
	}
}

// RecipeFields returns the required top-level fields in declaration order.
func (r *Registry) RecipeFields() []Field { return r.recipeFields }

// ComponentFields returns the required component fields in declaration order.
func (r *Registry) ComponentFields() []Field { return r.componentFields }

// IngredientFields returns the required ingredient fields in declaration order.
func (r *Registry) IngredientFields() []Field { return r.ingredientFields }

// ComponentTypes returns the valid values for a component's "type" field.
func (r *Registry) ComponentTypes() []string { return r.componentTypes }

// IsComponentType reports whether v is a valid component type.
// Matching is case-sensitive.
func (r *Registry) IsComponentType(v string) bool {
	for _, t := range r.componentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// jsonSchemaDoc is the subset of the JSON-schema vocabulary an external
// schema source may use. Anything beyond it is ignored.
type jsonSchemaDoc struct {
	Type       string                   `json:"type"`
	Properties map[string]jsonSchemaDoc `json:"properties"`
	Items      *jsonSchemaDoc           `json:"items"`
	Enum       []string                 `json:"enum"`
	Required   []string                 `json:"required"`
}

// LoadFile loads the registry from an external JSON-schema source. Any
// failure (absent file, unparseable JSON, unusable shape) returns an error
// wrapping ErrSchemaSource; callers fall back to Default.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSchemaSource, path, err)
	}

	var doc jsonSchemaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrSchemaSource, path, err)
	}

	reg, err := fromDoc(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaSource, path, err)
	}
	return reg, nil
}

// fromDoc converts a parsed JSON-schema document into a Registry.
func fromDoc(doc jsonSchemaDoc) (*Registry, error) {
	if doc.Type != "object" || len(doc.Properties) == 0 {
		return nil, errors.New("top level must be an object with properties")
	}

	recipeFields, err := requiredFields(doc)
	if err != nil {
		return nil, err
	}

	components, ok := doc.Properties["components"]
	if !ok || components.Items == nil {
		return nil, errors.New("missing components array definition")
	}
	componentFields, err := requiredFields(*components.Items)
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}

	typeEnum := components.Items.Properties["type"].Enum
	if len(typeEnum) == 0 {
		return nil, errors.New("components: missing type enum")
	}

	ingredients, ok := components.Items.Properties["ingredients"]
	if !ok || ingredients.Items == nil {
		return nil, errors.New("components: missing ingredients array definition")
	}
	ingredientFields, err := requiredFields(*ingredients.Items)
	if err != nil {
		return nil, fmt.Errorf("ingredients: %w", err)
	}

	return &Registry{
		recipeFields:     recipeFields,
		componentFields:  componentFields,
		ingredientFields: ingredientFields,
		componentTypes:   typeEnum,
	}, nil
}

// requiredFields resolves an object schema's required list against its
// properties, preserving the required-list order.
func requiredFields(doc jsonSchemaDoc) ([]Field, error) {
	if len(doc.Required) == 0 {
		return nil, errors.New("empty required list")
	}
	fields := make([]Field, 0, len(doc.Required))
	for _, name := range doc.Required {
		prop, ok := doc.Properties[name]
		if !ok {
			return nil, fmt.Errorf("required field %q has no property definition", name)
		}
		kind, err := kindOf(prop)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Kind: kind})
	}
	return fields, nil
}

// kindOf maps a property definition to a Kind.
func kindOf(prop jsonSchemaDoc) (Kind, error) {
	switch prop.Type {
	case "string":
		return KindString, nil
	case "number", "integer":
		return KindNumber, nil
	case "array":
		if prop.Items == nil {
			return "", errors.New("array without items")
		}
		switch prop.Items.Type {
		case "string":
			return KindStringArray, nil
		case "object":
			return KindObjectArray, nil
		}
		return "", fmt.Errorf("unsupported array item type %q", prop.Items.Type)
	}
	return "", fmt.Errorf("unsupported type %q", prop.Type)
}

// Render returns a JSON-schema rendering of the registry, used as the
// shape hint handed to the interpretation collaborator.
func (r *Registry) Render() string {
	props := func(fields []Field, overrides map[string]any) map[string]any {
		m := make(map[string]any, len(fields))
		for _, f := range fields {
			if o, ok := overrides[f.Name]; ok {
				m[f.Name] = o
				continue
			}
			switch f.Kind {
			case KindString:
				m[f.Name] = map[string]any{"type": "string"}
			case KindNumber:
				m[f.Name] = map[string]any{"type": "number"}
			case KindStringArray:
				m[f.Name] = map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				}
			}
		}
		return m
	}
	names := func(fields []Field) []string {
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = f.Name
		}
		return out
	}

	ingredientSchema := map[string]any{
		"type":       "object",
		"properties": props(r.ingredientFields, nil),
		"required":   names(r.ingredientFields),
	}
	componentSchema := map[string]any{
		"type": "object",
		"properties": props(r.componentFields, map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": r.componentTypes,
			},
			"ingredients": map[string]any{
				"type":  "array",
				"items": ingredientSchema,
			},
		}),
		"required": names(r.componentFields),
	}
	root := map[string]any{
		"type": "object",
		"properties": props(r.recipeFields, map[string]any{
			"components": map[string]any{
				"type":  "array",
				"items": componentSchema,
			},
		}),
		"required": names(r.recipeFields),
	}

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		// The maps above contain only marshalable values.
		return "{}"
	}
	return string(out)
}
