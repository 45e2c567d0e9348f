// Package llm implements the interpretation collaborator: it hands raw
// recipe text to an OpenAI-compatible chat model together with the
// registry's shape rendering and decodes the model's reply into a
// candidate payload. Validation of that payload is somebody else's job.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/recipeline/internal/schema"
)

// Defaults for the OpenAI-compatible client.
const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 2048
	defaultTemperature = 0.1
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute with small bursts.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Config holds the interpreter's provider configuration.
type Config struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int

	// Temperature is optional; nil selects the default. A pointer so an
	// explicit 0 is distinguishable from unset.
	Temperature *float64
}

// Interpreter calls the chat model. Rate limiting (429), server errors
// (5xx) and transport failures are retried with exponential backoff;
// any other API failure is terminal, as is a reply that cannot be
// decoded as JSON.
type Interpreter struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
}

// New creates an interpreter from config. The API key is required.
func New(cfg Config) (*Interpreter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &Interpreter{
		model:       client,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}, nil
}

// systemPrompt is the extraction instruction set. The registry rendering
// is substituted for %s so the prompt and the validator share one shape.
const systemPrompt = `You are a data extraction assistant for a food production company. You will receive raw text from a chef's PDF recipe. Parse it into structured JSON format.

IMPORTANT INSTRUCTIONS:
- Only return valid JSON that matches the specified schema
- Use your best judgment to infer missing information
- Use 0 for missing times, temperatures, or weights
- For component types, choose from: protein, starch, vegetable, sauce
- For allergens, identify common allergens like: dairy, eggs, fish, shellfish, tree nuts, peanuts, wheat, soy
- For cook methods, use descriptive terms like: bake, grill, sauté, steam, fry, roast, etc.
- For portion_weight_grams, estimate the final cooked weight per portion
- If yield_count is not specified, estimate based on typical portion sizes

CHEF NAME EXTRACTION:
- Look for chef names in the first few lines of the recipe
- Common patterns: "Chef [Name]", "[Name]'s [Recipe]", or recipe title followed by "Chef [Name]"
- Only extract chef names that are explicitly mentioned in the text
- If no chef name is found, use "Unknown Chef"
- Do NOT hallucinate or invent chef names that are not in the text
- Pay attention to multi-word names like "Jean-Pierre Dubois"

JSON Schema:
%s

Only return valid JSON. Do not include any explanatory text.`

// buildMessages assembles the two-message conversation: the extraction
// instructions with the schema embedded, then the document text.
func buildMessages(text string, reg *schema.Registry) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPrompt, reg.Render())),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"Please parse this recipe text into the specified JSON format:\n\n"+text),
	}
}

// Interpret sends text to the model and decodes its reply into a JSON
// tree. The context bounds the whole call, retries included.
func (i *Interpreter) Interpret(ctx context.Context, text string, reg *schema.Registry) (any, error) {
	messages := buildMessages(text, reg)

	var reply string
	var lastErr error
	for attempt := 0; attempt <= i.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := i.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		// Every attempt spends a rate-limit token, retries included.
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := i.model.GenerateContent(ctx, messages,
			llms.WithTemperature(i.temperature),
			llms.WithMaxTokens(i.maxTokens),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isRetryableError(err) {
				return nil, err
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from model")
			continue
		}
		reply = resp.Choices[0].Content
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}

	return decodePayload(reply)
}

// statusCodeRe pulls the HTTP status out of the client's error text; the
// openai client reports API failures as
// "API returned unexpected status code: <code> ...".
var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

// isRetryableError reports whether another attempt could succeed.
// Rate limiting (429), server errors (5xx) and transport failures
// carrying no status code are retryable; any other API status (bad
// request, bad key) is terminal.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	m := statusCodeRe.FindStringSubmatch(err.Error())
	if m == nil {
		return true
	}
	code, _ := strconv.Atoi(m[1])
	return code == http.StatusTooManyRequests || code >= 500
}

// decodePayload strips markdown code fences the model sometimes wraps
// JSON in and decodes the result.
func decodePayload(reply string) (any, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var payload any
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		return nil, fmt.Errorf("model reply is not valid JSON: %w", err)
	}
	return payload, nil
}
