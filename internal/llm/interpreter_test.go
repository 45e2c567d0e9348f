package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/recipeline/internal/schema"
)

// fakeModel scripts GenerateContent outcomes: one entry of errs per
// call, then the reply once errs are exhausted (or the entry is nil).
type fakeModel struct {
	calls int
	errs  []error
	reply string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return f.reply, nil
}

func newTestInterpreter(f *fakeModel) *Interpreter {
	return &Interpreter{
		model:       f,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxRetries:  defaultMaxRetries,
		baseBackoff: time.Millisecond,
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNew_Defaults(t *testing.T) {
	i, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, defaultMaxTokens, i.maxTokens)
	assert.InDelta(t, defaultTemperature, i.temperature, 1e-9)
	assert.Equal(t, defaultMaxRetries, i.maxRetries)
	assert.Equal(t, defaultBaseBackoff, i.baseBackoff)
}

func TestNew_ExplicitZeroTemperature(t *testing.T) {
	zero := 0.0
	i, err := New(Config{APIKey: "sk-test", Temperature: &zero})
	require.NoError(t, err)

	assert.Zero(t, i.temperature)
}

func TestBuildMessages(t *testing.T) {
	reg := schema.Default()
	messages := buildMessages("Seared Salmon\nChef Maria Lopez", reg)

	require.Len(t, messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)

	system, ok := messages[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, system.Text, "amount_per_portion_grams")
	assert.Contains(t, system.Text, "Unknown Chef")

	human, ok := messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, "Chef Maria Lopez")
}

func TestInterpret_Success(t *testing.T) {
	f := &fakeModel{reply: `{"recipe_name": "Salmon"}`}
	i := newTestInterpreter(f)

	payload, err := i.Interpret(context.Background(), "recipe text", schema.Default())
	require.NoError(t, err)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Salmon", obj["recipe_name"])
	assert.Equal(t, 1, f.calls)
}

func TestInterpret_TerminalErrorFailsFast(t *testing.T) {
	f := &fakeModel{
		errs: []error{fmt.Errorf("API returned unexpected status code: 401 Incorrect API key provided")},
	}
	i := newTestInterpreter(f)

	start := time.Now()
	_, err := i.Interpret(context.Background(), "recipe text", schema.Default())
	require.Error(t, err)

	assert.Equal(t, 1, f.calls, "a terminal API error must not be retried")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.NotContains(t, err.Error(), "max retries exceeded")
}

func TestInterpret_RetriesTransientErrors(t *testing.T) {
	f := &fakeModel{
		errs: []error{
			fmt.Errorf("API returned unexpected status code: 429 rate limited"),
			fmt.Errorf("API returned unexpected status code: 503 overloaded"),
		},
		reply: `{"recipe_name": "Salmon"}`,
	}
	i := newTestInterpreter(f)

	payload, err := i.Interpret(context.Background(), "recipe text", schema.Default())
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Salmon", obj["recipe_name"])
}

func TestInterpret_RetriesExhausted(t *testing.T) {
	transient := fmt.Errorf("API returned unexpected status code: 500 internal")
	f := &fakeModel{
		errs: []error{transient, transient, transient, transient, transient},
	}
	i := newTestInterpreter(f)

	_, err := i.Interpret(context.Background(), "recipe text", schema.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, i.maxRetries+1, f.calls)
}

func TestInterpret_EveryAttemptSpendsRateLimitToken(t *testing.T) {
	f := &fakeModel{
		errs: []error{
			fmt.Errorf("API returned unexpected status code: 500 internal"),
			fmt.Errorf("API returned unexpected status code: 500 internal"),
		},
		reply: `{"recipe_name": "Salmon"}`,
	}
	i := newTestInterpreter(f)
	// Tokens only trickle back hourly, so consumption is observable.
	i.limiter = rate.NewLimiter(rate.Every(time.Hour), 5)

	_, err := i.Interpret(context.Background(), "recipe text", schema.Default())
	require.NoError(t, err)
	require.Equal(t, 3, f.calls)

	assert.InDelta(t, 2.0, i.limiter.Tokens(), 0.1)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad key (401)", fmt.Errorf("API returned unexpected status code: 401 Incorrect API key"), false},
		{"bad request (400)", fmt.Errorf("API returned unexpected status code: 400 invalid model"), false},
		{"not found (404)", fmt.Errorf("API returned unexpected status code: 404"), false},
		{"rate limited (429)", fmt.Errorf("API returned unexpected status code: 429 Too Many Requests"), true},
		{"server error (500)", fmt.Errorf("API returned unexpected status code: 500"), true},
		{"overloaded (503)", fmt.Errorf("API returned unexpected status code: 503"), true},
		{"transport failure", errors.New("connection refused"), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{
			name:  "bare JSON object",
			reply: `{"recipe_name": "Salmon"}`,
		},
		{
			name:  "json fenced",
			reply: "```json\n{\"recipe_name\": \"Salmon\"}\n```",
		},
		{
			name:  "bare fenced",
			reply: "```\n{\"recipe_name\": \"Salmon\"}\n```",
		},
		{
			name:  "surrounding whitespace",
			reply: "  \n{\"recipe_name\": \"Salmon\"}\n  ",
		},
		{
			name:    "prose around JSON",
			reply:   "Here is the recipe: {\"recipe_name\": \"Salmon\"} hope that helps",
			wantErr: true,
		},
		{
			name:    "not JSON at all",
			reply:   "I could not parse this recipe.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := decodePayload(tt.reply)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			obj, ok := payload.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Salmon", obj["recipe_name"])
		})
	}
}

func TestSystemPrompt_EmbedsSchema(t *testing.T) {
	rendered := schema.Default().Render()
	prompt := strings.Replace(systemPrompt, "%s", rendered, 1)

	for _, needle := range []string{
		"Unknown Chef",
		"protein, starch, vegetable, sauce",
		"amount_per_portion_grams",
		"Jean-Pierre Dubois",
	} {
		assert.Contains(t, prompt, needle)
	}
}
