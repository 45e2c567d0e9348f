// Package batch runs the per-document pipeline over a whole input set
// with fault isolation: one document's failure, including a panic in a
// collaborator, never aborts the batch. Documents may run concurrently
// under a bounded worker pool, but the report always preserves input
// order so output is deterministic and diffable across runs.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recipeline/internal/logging"
	"github.com/fyrsmithlabs/recipeline/internal/recipe"
	"github.com/fyrsmithlabs/recipeline/internal/store"
)

// ErrPersistence indicates a recipe validated and normalized fine but
// could not be written to storage.
var ErrPersistence = errors.New("persistence failed")

// Processor is the per-document pipeline. *extract.Orchestrator
// implements it.
type Processor interface {
	Process(ctx context.Context, path string) (recipe.Recipe, error)
}

// Store persists one successful recipe. *store.FileStore implements it.
type Store interface {
	Write(name string, r recipe.Recipe) (string, error)
}

// Entry is one document's outcome in a report.
type Entry struct {
	// Input is the source document path.
	Input string

	// Output is the persisted record path, set only on success.
	Output string

	// Recipe is the normalized record, set only on success.
	Recipe recipe.Recipe

	// Err carries the failure, nil on success. errors.Is against the
	// taxonomy sentinels identifies the failed stage.
	Err error
}

// Succeeded reports whether the entry's document was fully processed and
// persisted.
func (e Entry) Succeeded() bool { return e.Err == nil }

// Report aggregates one batch run. Entries are in input order.
type Report struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Entries   []Entry
}

// Runner executes batches.
type Runner struct {
	proc       Processor
	store      Store
	workers    int
	docTimeout time.Duration
	log        *logging.Logger
}

// NewRunner creates a batch runner. workers < 1 is treated as 1
// (sequential); docTimeout <= 0 disables the per-document timeout.
func NewRunner(proc Processor, st Store, workers int, docTimeout time.Duration, log *logging.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		proc:       proc,
		store:      st,
		workers:    workers,
		docTimeout: docTimeout,
		log:        log.Named("batch"),
	}
}

// Run processes every document and returns the aggregate report. Each
// worker owns its slot in the entries slice, so completion order never
// affects report order and no locking is needed on the accumulator.
func (r *Runner) Run(ctx context.Context, paths []string) Report {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))
	log.Info("batch started",
		zap.Int("documents", len(paths)),
		zap.Int("workers", r.workers))

	entries := make([]Entry, len(paths))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			entries[i] = r.processOne(ctx, path, log)
		}(i, path)
	}
	wg.Wait()

	report := Report{RunID: runID, Total: len(paths), Entries: entries}
	for _, e := range entries {
		if e.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	log.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report
}

// processOne is the fault boundary for one document: collaborator errors
// and panics both become failure entries.
func (r *Runner) processOne(ctx context.Context, path string, log *logging.Logger) (entry Entry) {
	entry = Entry{Input: path}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while processing document",
				zap.String("path", path),
				zap.Any("panic", rec))
			entry.Err = fmt.Errorf("panic while processing %s: %v", path, rec)
		}
	}()

	docCtx := ctx
	if r.docTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, r.docTimeout)
		defer cancel()
	}

	rcp, err := r.proc.Process(docCtx, path)
	if err != nil {
		log.Warn("document failed", zap.String("path", path), zap.Error(err))
		entry.Err = err
		return entry
	}

	out, err := r.store.Write(store.OutputName(path), rcp)
	if err != nil {
		log.Error("persist failed", zap.String("path", path), zap.Error(err))
		entry.Err = fmt.Errorf("%w: %v", ErrPersistence, err)
		return entry
	}

	entry.Recipe = rcp
	entry.Output = out
	return entry
}
