package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/notequiz/internal/explain"
)

// isolate points the default config path at an empty directory and clears
// the vendor key variables.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts, "transport errors are not retried by default")
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, 5, cfg.Quiz.Count)
	assert.Equal(t, "medium", cfg.Quiz.Difficulty)
	assert.Equal(t, 100, cfg.Quiz.HistoryWindow)
	assert.Equal(t, 0.8, cfg.Quiz.SimilarityThreshold)
	assert.Equal(t, explain.StyleAbsurd, cfg.Explain.Style)
	assert.True(t, cfg.Pipeline.FactCheck)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Trace.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
llm:
  provider: openai
  openai:
    model: gpt-4.1
  timeout: 30s
quiz:
  count: 8
  difficulty: hard
  language: russian
explain:
  style: vivid
pipeline:
  fact_check: false
cache:
  backend: redis
  redis:
    addr: localhost:6379
`)
	t.Setenv("NOTEQUIZ_QUIZ_COUNT", "12")
	t.Setenv("NOTEQUIZ_LLM_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 12, cfg.Quiz.Count, "env must override the file")
	assert.Equal(t, "hard", cfg.Quiz.Difficulty)
	assert.Equal(t, explain.StyleVivid, cfg.Explain.Style)
	assert.False(t, cfg.Pipeline.FactCheck)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)

	pc := cfg.PipelineConfig()
	assert.False(t, pc.FactCheck)
	assert.Equal(t, "russian", pc.Language)
	assert.Equal(t, explain.StyleVivid, pc.Explain.Style)

	llmCfg, err := cfg.ResolveLLM()
	require.NoError(t, err)
	assert.Equal(t, "openai", llmCfg.Provider)
}

func TestLoadDefaultPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notequiz"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notequiz", "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"count too high", "quiz:\n  count: 50\n", nil},
		{"unknown difficulty", "quiz:\n  difficulty: brutal\n", nil},
		{"unknown style", "explain:\n  style: boring\n", nil},
		{"unknown backend", "cache:\n  backend: memcached\n", nil},
		{"redis without addr", "cache:\n  backend: redis\n", nil},
		{"threshold out of range", "", map[string]string{"NOTEQUIZ_QUIZ_SIMILARITY_THRESHOLD": "1.5"}},
		{"unknown provider", "", map[string]string{"NOTEQUIZ_LLM_PROVIDER": "eliza"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveLLM(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)

	_, err = cfg.ResolveLLM()
	assert.Error(t, err, "no credentials anywhere")

	t.Setenv("GEMINI_API_KEY", "g-key")
	llmCfg, err := cfg.ResolveLLM()
	require.NoError(t, err)
	assert.Equal(t, "gemini", llmCfg.Provider)
	assert.Equal(t, "g-key", llmCfg.Gemini.APIKey)
	assert.Equal(t, "anthropic", cfg.LLM.Provider, "the loaded config is not modified")
}
