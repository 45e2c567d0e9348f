package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/recipeline/internal/extract"
	"github.com/fyrsmithlabs/recipeline/internal/logging"
	"github.com/fyrsmithlabs/recipeline/internal/recipe"
)

// fakeProc maps document paths to canned outcomes.
type fakeProc struct {
	mu    sync.Mutex
	fail  map[string]error
	panic map[string]bool
	calls []string
}

func (f *fakeProc) Process(ctx context.Context, path string) (recipe.Recipe, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if f.panic[path] {
		panic("collaborator exploded on " + path)
	}
	if err := f.fail[path]; err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.Recipe{
		RecipeName: "Recipe from " + path,
		Chef:       "Chef Test",
		Components: []recipe.Component{{Name: "c", Type: recipe.TypeProtein}},
	}, nil
}

// fakeStore records writes; failOn makes one name fail.
type fakeStore struct {
	mu     sync.Mutex
	writes []string
	failOn string
}

func (f *fakeStore) Write(name string, r recipe.Recipe) (string, error) {
	if name == f.failOn {
		return "", errors.New("disk full")
	}
	f.mu.Lock()
	f.writes = append(f.writes, name)
	f.mu.Unlock()
	return "output/" + name, nil
}

func newRunner(proc Processor, st Store, workers int) *Runner {
	return NewRunner(proc, st, workers, 0, logging.NewNop())
}

func TestRun_FaultIsolation(t *testing.T) {
	// Document 2's interpretation fails; 1 and 3 still persist, and the
	// report stays in input order.
	interpErr := fmt.Errorf("%w: model unavailable", extract.ErrInterpretation)
	proc := &fakeProc{fail: map[string]error{"in/doc2.pdf": interpErr}}
	st := &fakeStore{}
	paths := []string{"in/doc1.pdf", "in/doc2.pdf", "in/doc3.pdf"}

	rep := newRunner(proc, st, 1).Run(context.Background(), paths)

	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Succeeded)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Entries, 3)

	for i, path := range paths {
		assert.Equal(t, path, rep.Entries[i].Input, "entries preserve input order")
	}
	assert.True(t, rep.Entries[0].Succeeded())
	assert.ErrorIs(t, rep.Entries[1].Err, extract.ErrInterpretation)
	assert.True(t, rep.Entries[2].Succeeded())

	assert.ElementsMatch(t, []string{"doc1.json", "doc3.json"}, st.writes)
}

func TestRun_OrderPreservedUnderConcurrency(t *testing.T) {
	var paths []string
	for i := 0; i < 20; i++ {
		paths = append(paths, fmt.Sprintf("in/doc%02d.pdf", i))
	}
	proc := &fakeProc{fail: map[string]error{
		"in/doc07.pdf": extract.ErrTextExtraction,
		"in/doc13.pdf": extract.ErrInterpretation,
	}}

	rep := newRunner(proc, &fakeStore{}, 8).Run(context.Background(), paths)

	require.Len(t, rep.Entries, 20)
	for i, path := range paths {
		assert.Equal(t, path, rep.Entries[i].Input)
	}
	assert.Equal(t, 18, rep.Succeeded)
	assert.Equal(t, 2, rep.Failed)
}

func TestRun_PanicBecomesFailureEntry(t *testing.T) {
	proc := &fakeProc{panic: map[string]bool{"in/doc2.pdf": true}}
	paths := []string{"in/doc1.pdf", "in/doc2.pdf", "in/doc3.pdf"}

	rep := newRunner(proc, &fakeStore{}, 2).Run(context.Background(), paths)

	assert.Equal(t, 2, rep.Succeeded)
	require.Error(t, rep.Entries[1].Err)
	assert.Contains(t, rep.Entries[1].Err.Error(), "panic")
	assert.True(t, rep.Entries[0].Succeeded())
	assert.True(t, rep.Entries[2].Succeeded())
}

func TestRun_PersistenceFailureIsDistinct(t *testing.T) {
	st := &fakeStore{failOn: "doc2.json"}
	paths := []string{"in/doc1.pdf", "in/doc2.pdf", "in/doc3.pdf"}

	rep := newRunner(&fakeProc{}, st, 1).Run(context.Background(), paths)

	assert.Equal(t, 2, rep.Succeeded)
	assert.Equal(t, 1, rep.Failed)
	assert.ErrorIs(t, rep.Entries[1].Err, ErrPersistence)
	assert.NotErrorIs(t, rep.Entries[1].Err, extract.ErrInterpretation)
	assert.ElementsMatch(t, []string{"doc1.json", "doc3.json"}, st.writes)
}

func TestRun_EmptyInput(t *testing.T) {
	rep := newRunner(&fakeProc{}, &fakeStore{}, 4).Run(context.Background(), nil)

	assert.Equal(t, 0, rep.Total)
	assert.Equal(t, 0, rep.Succeeded)
	assert.Empty(t, rep.Entries)
	assert.NotEmpty(t, rep.RunID)
}

func TestRun_DocumentTimeout(t *testing.T) {
	proc := &slowProc{delay: 200 * time.Millisecond}
	runner := NewRunner(proc, &fakeStore{}, 1, 10*time.Millisecond, logging.NewNop())

	rep := runner.Run(context.Background(), []string{"in/slow.pdf"})

	require.Len(t, rep.Entries, 1)
	require.Error(t, rep.Entries[0].Err)
	assert.ErrorIs(t, rep.Entries[0].Err, context.DeadlineExceeded)
}

// slowProc blocks until its context expires.
type slowProc struct {
	delay time.Duration
}

func (s *slowProc) Process(ctx context.Context, path string) (recipe.Recipe, error) {
	select {
	case <-time.After(s.delay):
		return recipe.Recipe{}, errors.New("should have timed out")
	case <-ctx.Done():
		return recipe.Recipe{}, ctx.Err()
	}
}
