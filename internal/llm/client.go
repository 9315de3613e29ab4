package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/notequiz/internal/jsonrepair"
	"github.com/abhisek/notequiz/internal/logging"
)

// DefaultJSONAttempts is how many times GenerateJSON asks the model before
// giving up on unparseable output.
const DefaultJSONAttempts = 3

const strictJSONSuffix = `

IMPORTANT: Return ONLY valid JSON. No markdown fences, no comments, no text before or after the JSON. Use double quotes for every key and string value.`

// ClientConfig holds per-call generation settings.
type ClientConfig struct {
	System      string
	MaxTokens   int
	Temperature float64

	// Timeout bounds each Generate call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// UsageStats accumulates token usage across calls.
type UsageStats struct {
	Requests         int `json:"total_requests"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client offers prompt-in, text-or-JSON-out calls on top of a Provider and
// keeps running usage totals.
type Client struct {
	provider Provider
	cfg      ClientConfig
	repair   *jsonrepair.Chain
	log      *logging.Logger

	mu    sync.Mutex
	stats UsageStats
}

// NewClient creates a Client. A nil logger discards output.
func NewClient(p Provider, cfg ClientConfig, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		provider: p,
		cfg:      cfg,
		repair:   jsonrepair.DefaultChain(),
		log:      log,
	}
}

// ModelID returns the underlying provider's model.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := Request{
		System:      c.cfg.System,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	c.record(prompt, text, resp.Usage)
	return text, nil
}

// GenerateJSON asks for JSON and repairs the reply. When the reply cannot be
// repaired the prompt is re-sent with a strict-JSON instruction, up to
// attempts tries in total. Transport errors are returned immediately.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, attempts int) (any, error) {
	if attempts <= 0 {
		attempts = DefaultJSONAttempts
	}

	current := prompt
	var lastText string
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := c.Generate(ctx, current)
		if err != nil {
			return nil, err
		}

		v, step, perr := c.repair.Parse(text)
		if perr == nil {
			if step != "direct" {
				c.log.Debug("repaired model JSON", "purpose", PurposeFrom(ctx), "step", step, "attempt", attempt)
			}
			return v, nil
		}

		lastText, lastErr = text, perr
		c.log.Warn("model returned unparseable JSON",
			"purpose", PurposeFrom(ctx),
			"attempt", attempt,
			"of", attempts,
			"error", perr)

		current = prompt + strictJSONSuffix
	}

	return nil, &ErrInvalidResponse{
		Content: json.RawMessage(lastText),
		Err:     fmt.Errorf("no valid JSON after %d attempts: %w", attempts, lastErr),
	}
}

// GenerateStructured requests output conforming to schema. Providers use
// their native structured mode; the reply still goes through the repair
// chain because some models wrap it in fences anyway. The repaired value is
// validated against schema and returned as compact JSON.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	req := Request{
		System:      c.cfg.System,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Schema:      schema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	text := resp.Text()
	c.record(prompt, text, resp.Usage)

	v, _, perr := c.repair.Parse(text)
	if perr != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(text), Err: perr}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode structured reply: %w", err)
	}
	if err := validateValue(schema, v, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// IsParseFailure reports whether err came from exhausting GenerateJSON's
// attempts, as opposed to a transport failure.
func IsParseFailure(err error) bool {
	var perr *jsonrepair.ParseError
	return errors.As(err, &perr)
}

// Stats returns a snapshot of the usage counters.
func (c *Client) Stats() UsageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats zeroes the usage counters.
func (c *Client) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = UsageStats{}
}

func (c *Client) record(prompt, reply string, u Usage) {
	in, out := u.InputTokens, u.OutputTokens
	if in == 0 && out == 0 {
		in, out = estimateTokens(prompt), estimateTokens(reply)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Requests++
	c.stats.PromptTokens += in
	c.stats.CompletionTokens += out
	c.stats.TotalTokens += in + out
}

// estimateTokens uses the rough four-characters-per-token rule.
func estimateTokens(s string) int {
	return len(strings.TrimSpace(s)) / 4
}
