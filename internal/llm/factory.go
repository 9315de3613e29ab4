package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with
// middleware in the order: caller → tracing → retry → event log → base.
// A nil eventRepo disables event recording.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry, log)
	return WithTracing(retried), nil
}
