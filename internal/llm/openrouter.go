package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterAppURL         = "https://github.com/abhisek/notequiz"
	openRouterAppTitle       = "notequiz"
)

// openrouterModels lets the aliases accepted by the direct providers pick
// the same model through OpenRouter. Anything else is passed through as a
// vendor/model ID.
var openrouterModels = map[string]string{
	"gpt-mini":     "openai/gpt-4.1-mini",
	"gpt":          "openai/gpt-4.1",
	"gemini-flash": "google/gemini-2.5-flash",
	"gemini-lite":  "google/gemini-2.5-flash-lite",
	"gemini-pro":   "google/gemini-2.5-pro",
	"claude-haiku": "anthropic/claude-3.5-haiku",
}

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
// Requests carry the app attribution headers OpenRouter uses for its
// per-app usage pages.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = defaultOpenRouterBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Transport: attributionTransport{base: http.DefaultTransport}}

	return &OpenRouterProvider{OpenAIProvider: &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  resolveModel(cfg.Model, openrouterModels),
	}}, nil
}

type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", openRouterAppURL)
	req.Header.Set("X-Title", openRouterAppTitle)
	return t.base.RoundTrip(req)
}
