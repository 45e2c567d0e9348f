// Package extract turns one source document into a validated, normalized
// recipe record. It owns the per-document pipeline (text extraction,
// interpretation, validation, normalization) and the failure taxonomy the
// batch runner reports on. The external collaborators are interfaces so
// the pipeline is testable without a PDF parser or an LLM.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recipeline/internal/logging"
	"github.com/fyrsmithlabs/recipeline/internal/normalize"
	"github.com/fyrsmithlabs/recipeline/internal/recipe"
	"github.com/fyrsmithlabs/recipeline/internal/schema"
	"github.com/fyrsmithlabs/recipeline/internal/validate"
)

// Failure taxonomy. Each stage of the pipeline fails with its own
// sentinel so the batch report can name the stage that broke.
var (
	// ErrTextExtraction indicates the document yielded no usable text.
	ErrTextExtraction = errors.New("text extraction failed")

	// ErrInterpretation indicates the interpretation collaborator errored
	// or returned something that is not decodable as structured data.
	ErrInterpretation = errors.New("interpretation failed")
)

// ValidationFailedError carries the full accumulated error list from a
// failed validation pass. It matches errors.Is(err, ErrValidation).
type ValidationFailedError struct {
	Errors []validate.FieldError
}

// ErrValidation is the sentinel for schema validation failures.
var ErrValidation = errors.New("schema validation failed")

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", validate.Join(e.Errors))
}

// Is makes errors.Is(err, ErrValidation) hold for this type.
func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidation
}

// TextExtractor obtains raw text from a source document. A corrupt
// document returns an error, never a panic.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Interpreter turns raw text into a candidate payload: a decoded JSON
// tree attempting to conform to the registry's shape. The registry is
// passed so the prompt and the validator can never drift apart.
type Interpreter interface {
	Interpret(ctx context.Context, text string, reg *schema.Registry) (any, error)
}

// Orchestrator runs the per-document pipeline. It performs no retries;
// retry policy belongs to the interpreter.
type Orchestrator struct {
	texts  TextExtractor
	interp Interpreter
	reg    *schema.Registry
	log    *logging.Logger
}

// NewOrchestrator wires the pipeline. The registry is read-only shared
// state; the logger may not be nil (use logging.NewNop in tests).
func NewOrchestrator(texts TextExtractor, interp Interpreter, reg *schema.Registry, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		texts:  texts,
		interp: interp,
		reg:    reg,
		log:    log.Named("extract"),
	}
}

// Process runs one document through the pipeline. Each stage
// short-circuits on failure with its taxonomy error; on success the
// returned recipe is already normalized.
func (o *Orchestrator) Process(ctx context.Context, path string) (recipe.Recipe, error) {
	text, err := o.texts.Extract(ctx, path)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %s: %v", ErrTextExtraction, path, err)
	}
	if text == "" {
		return recipe.Recipe{}, fmt.Errorf("%w: %s: document contains no text", ErrTextExtraction, path)
	}
	o.log.Debug("extracted text", zap.String("path", path), zap.Int("chars", len(text)))

	payload, err := o.interp.Interpret(ctx, text, o.reg)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %s: %v", ErrInterpretation, path, err)
	}

	r, verrs := validate.Validate(payload, o.reg)
	if len(verrs) > 0 {
		o.log.Warn("validation failed",
			zap.String("path", path),
			zap.Int("errors", len(verrs)))
		return recipe.Recipe{}, &ValidationFailedError{Errors: verrs}
	}

	r = normalize.Recipe(r)
	o.log.Info("document processed",
		zap.String("path", path),
		zap.String("recipe", r.RecipeName),
		zap.Int("components", len(r.Components)))
	return r, nil
}
