package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("provider ready", "provider", "openai", "openai_api_key", "sk-123", "Token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "openai" {
		t.Errorf("provider = %v, want openai", fields["provider"])
	}
	if fields["openai_api_key"] != redacted {
		t.Errorf("api key not redacted: %v", fields["openai_api_key"])
	}
	if fields["Token"] != redacted {
		t.Errorf("token not redacted: %v", fields["Token"])
	}
}

func TestTokenCountersAreNotRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Debug("llm request", "input_tokens", 120, "output_tokens", 45, "max_tokens", 1024)

	fields := logs.All()[0].ContextMap()
	for key, want := range map[string]int64{"input_tokens": 120, "output_tokens": 45, "max_tokens": 1024} {
		if fields[key] != want {
			t.Errorf("%s = %v, want %d", key, fields[key], want)
		}
	}
}

func TestIsSecretKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"api_key", true},
		{"OPENAI_API_KEY", true},
		{"apikey", true},
		{"token", true},
		{"access_token", true},
		{"refresh-token", true},
		{"token_value", true},
		{"client_secret", true},
		{"secret.value", true},
		{"db_password", true},
		{"Authorization", true},
		{"input_tokens", false},
		{"output_tokens", false},
		{"total_tokens", false},
		{"tokens", false},
		{"prompt", false},
		{"provider", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecretKey(tt.key); got != tt.want {
				t.Errorf("isSecretKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("stage", "extract")

	l.Debug("done", "concepts", 4)

	fields := logs.All()[0].ContextMap()
	if fields["stage"] != "extract" {
		t.Errorf("stage = %v", fields["stage"])
	}
	if fields["concepts"] != int64(4) {
		t.Errorf("concepts = %v (%T)", fields["concepts"], fields["concepts"])
	}
}

func TestOddKeyValueList(t *testing.T) {
	got := redact([]any{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
