// Package validate checks an untrusted decoded JSON payload against the
// recipe schema and produces either a typed recipe.Recipe or the full list
// of field-scoped errors found in one pass. Errors are accumulated, never
// short-circuited: re-running the interpretation step is expensive, so one
// validation pass must report every defect.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/recipeline/internal/recipe"
	"github.com/fyrsmithlabs/recipeline/internal/schema"
)

// FieldError is one validation defect, scoped to a field path like
// "components[2].ingredients[0].amount_per_portion_grams". Path is empty
// for payload-level defects.
type FieldError struct {
	Path    string
	Message string
}

// Error implements the error interface, rendering "path: message".
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Join renders a list of field errors as one semicolon-separated string.
func Join(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Validate checks payload against the registry. It returns the typed
// Recipe only when zero errors were accumulated AND components is
// non-empty; otherwise it returns the full ordered error list and the
// zero Recipe. Unknown extra fields in the payload are ignored.
func Validate(payload any, reg *schema.Registry) (recipe.Recipe, []FieldError) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return recipe.Recipe{}, []FieldError{{
			Message: fmt.Sprintf("payload must be a JSON object, got %s", observedKind(payload)),
		}}
	}

	var errs []FieldError
	for _, f := range reg.RecipeFields() {
		v, present := obj[f.Name]
		if !present {
			errs = append(errs, FieldError{Message: "Missing required field: " + f.Name})
			continue
		}
		switch f.Name {
		case "components":
			errs = append(errs, checkComponents(v, reg)...)
		default:
			errs = append(errs, checkKind(f.Name, v, f.Kind)...)
		}
	}

	if len(errs) > 0 {
		return recipe.Recipe{}, errs
	}

	r, err := toTyped(obj)
	if err != nil {
		// Unreachable for payloads that passed the checks above.
		return recipe.Recipe{}, []FieldError{{Message: err.Error()}}
	}
	return r, nil
}

// checkComponents validates the components field: a non-empty array whose
// elements are each independently validated. A malformed element never
// stops validation of its siblings.
func checkComponents(v any, reg *schema.Registry) []FieldError {
	arr, ok := v.([]any)
	if !ok {
		return []FieldError{{Path: "components", Message: expected(schema.KindObjectArray, v)}}
	}
	if len(arr) == 0 {
		return []FieldError{{Path: "components", Message: "must contain at least one component"}}
	}

	var errs []FieldError
	for i, elem := range arr {
		path := fmt.Sprintf("components[%d]", i)
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, FieldError{Path: path, Message: expected("object", elem)})
			continue
		}
		errs = append(errs, checkComponent(path, obj, reg)...)
	}
	return errs
}

// checkComponent validates one component object, prefixing every error
// with the component's path.
func checkComponent(path string, obj map[string]any, reg *schema.Registry) []FieldError {
	var errs []FieldError
	for _, f := range reg.ComponentFields() {
		v, present := obj[f.Name]
		if !present {
			errs = append(errs, FieldError{Path: path, Message: "Missing required field: " + f.Name})
			continue
		}
		switch f.Name {
		case "type":
			errs = append(errs, checkComponentType(path+".type", v, reg)...)
		case "ingredients":
			errs = append(errs, checkIngredients(path+".ingredients", v, reg)...)
		default:
			errs = append(errs, checkKind(path+"."+f.Name, v, f.Kind)...)
		}
	}
	return errs
}

// checkComponentType enforces the enum with case-sensitive exact matching.
func checkComponentType(path string, v any, reg *schema.Registry) []FieldError {
	s, ok := v.(string)
	if !ok {
		return []FieldError{{Path: path, Message: expected(schema.KindString, v)}}
	}
	if !reg.IsComponentType(s) {
		return []FieldError{{
			Path: path,
			Message: fmt.Sprintf("invalid component type %q: must be one of %s",
				s, strings.Join(reg.ComponentTypes(), ", ")),
		}}
	}
	return nil
}

// checkIngredients validates the ingredients array. The array may be
// empty; each element is reported individually by index.
func checkIngredients(path string, v any, reg *schema.Registry) []FieldError {
	arr, ok := v.([]any)
	if !ok {
		return []FieldError{{Path: path, Message: expected(schema.KindObjectArray, v)}}
	}

	var errs []FieldError
	for j, elem := range arr {
		elemPath := fmt.Sprintf("%s[%d]", path, j)
		obj, ok := elem.(map[string]any)
		if !ok {
			errs = append(errs, FieldError{Path: elemPath, Message: expected("object", elem)})
			continue
		}
		for _, f := range reg.IngredientFields() {
			fv, present := obj[f.Name]
			if !present {
				errs = append(errs, FieldError{Path: elemPath, Message: "Missing required field: " + f.Name})
				continue
			}
			errs = append(errs, checkKind(elemPath+"."+f.Name, fv, f.Kind)...)
		}
	}
	return errs
}

// checkKind checks a scalar or string-array field against its declared
// kind, plus the range rules: declared numeric fields must be
// non-negative, and "name"-like string fields must be non-empty.
func checkKind(path string, v any, kind schema.Kind) []FieldError {
	switch kind {
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return []FieldError{{Path: path, Message: expected(kind, v)}}
		}
		if s == "" && requiresNonEmpty(path) {
			return []FieldError{{Path: path, Message: "must be a non-empty string"}}
		}
	case schema.KindNumber:
		n, ok := asNumber(v)
		if !ok {
			return []FieldError{{Path: path, Message: expected(kind, v)}}
		}
		if n < 0 {
			return []FieldError{{Path: path, Message: fmt.Sprintf("must be non-negative, got %v", n)}}
		}
	case schema.KindStringArray:
		arr, ok := v.([]any)
		if !ok {
			return []FieldError{{Path: path, Message: expected(kind, v)}}
		}
		var errs []FieldError
		for i, elem := range arr {
			if _, ok := elem.(string); !ok {
				errs = append(errs, FieldError{
					Path:    fmt.Sprintf("%s[%d]", path, i),
					Message: expected(schema.KindString, elem),
				})
			}
		}
		return errs
	case schema.KindObjectArray:
		if _, ok := v.([]any); !ok {
			return []FieldError{{Path: path, Message: expected(kind, v)}}
		}
	}
	return nil
}

// requiresNonEmpty reports whether the field at path is a name-like field
// that must carry text. recipe_name, component name, and ingredient name
// qualify; chef and cook_method tolerate empty strings.
func requiresNonEmpty(path string) bool {
	return path == "recipe_name" || path == "name" || strings.HasSuffix(path, ".name")
}

// asNumber accepts the numeric representations a decoded payload (or a
// test fixture built in Go) can carry.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// expected renders a kind-mismatch message naming expected and observed kinds.
func expected(kind schema.Kind, v any) string {
	return fmt.Sprintf("expected %s, got %s", kind, observedKind(v))
}

// observedKind names the JSON kind of a decoded value.
func observedKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// toTyped converts a payload that passed all checks into the typed Recipe
// via a JSON round-trip, which also drops unknown extra fields.
func toTyped(obj map[string]any) (recipe.Recipe, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("encoding accepted payload: %w", err)
	}
	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return recipe.Recipe{}, fmt.Errorf("decoding accepted payload: %w", err)
	}
	return r, nil
}
