package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-lite", "gemini-2.5-flash-lite"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type": "string",
				"enum": []any{"theory", "code", "math", "list", "short", "garbage"},
			},
			"concepts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"term":       map[string]any{"type": "string"},
						"definition": map[string]any{"type": "string"},
					},
					"required": []any{"term", "definition"},
				},
			},
			"confidence": map[string]any{"type": "number", "description": "0..1"},
		},
		"required": []any{"category"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT, got %s", schema.Type)
	}
	if got := len(schema.Properties["category"].Enum); got != 6 {
		t.Fatalf("expected 6 enum values, got %d", got)
	}
	items := schema.Properties["concepts"].Items
	if items == nil || items.Type != genai.TypeObject || len(items.Required) != 2 {
		t.Fatalf("unexpected concept items schema: %+v", items)
	}
	if c := schema.Properties["confidence"]; c.Type != genai.TypeNumber || c.Description != "0..1" {
		t.Fatalf("unexpected confidence schema: %+v", c)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "category" {
		t.Fatalf("unexpected required list: %v", schema.Required)
	}
}

func geminiReply(text string, finish genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: finish,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 4,
			TotalTokenCount:      16,
		},
	}
}

func TestGeminiToResponse(t *testing.T) {
	p := &GeminiProvider{model: "gemini-2.5-flash"}
	schema := &Schema{
		Name: "gemini-answer",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"answer": map[string]any{"type": "string"}},
			"required":   []string{"answer"},
		},
	}

	resp, err := p.toResponse(geminiReply(`{"answer":"42"}`, "STOP"), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"answer":"42"}` || resp.StopReason != "end" || resp.Usage.TotalTokens != 16 {
		t.Errorf("unexpected response: %+v", resp)
	}

	_, err = p.toResponse(geminiReply(`{"answer":"4`, "MAX_TOKENS"), schema)
	var maxErr *ErrMaxTokensExceeded
	if !errors.As(err, &maxErr) {
		t.Errorf("truncated reply: got %v, want ErrMaxTokensExceeded", err)
	}

	var invalid *ErrInvalidResponse
	_, err = p.toResponse(geminiReply("", "SAFETY"), nil)
	if !errors.As(err, &invalid) {
		t.Errorf("blocked reply: got %v, want ErrInvalidResponse", err)
	}
	_, err = p.toResponse(&genai.GenerateContentResponse{}, nil)
	if !errors.As(err, &invalid) {
		t.Errorf("no candidates: got %v, want ErrInvalidResponse", err)
	}
}

func TestBuildGeminiSchemaStringLists(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{
		"type":     "object",
		"required": []string{"difficulty"},
		"properties": map[string]any{
			"difficulty": map[string]any{"type": "string", "enum": []string{"easy", "medium", "hard"}},
		},
	})
	if len(schema.Required) != 1 || len(schema.Properties["difficulty"].Enum) != 3 {
		t.Fatalf("string lists not carried over: %+v", schema)
	}
}
