package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// NOTEQUIZ_LLM_PROVIDER or NOTEQUIZ_CACHE_BACKEND.
const EnvPrefix = "NOTEQUIZ"

// DefaultPath returns $XDG_CONFIG_HOME/notequiz/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notequiz", "config.yaml"), nil
}

// Load reads the configuration. An explicit path must exist; without one
// the default path is read when present. Environment variables take
// precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				v.SetConfigFile(p)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("read config %s: %w", p, err)
				}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.Redis.Addr == "" {
		return nil, fmt.Errorf("invalid config: cache.redis.addr is required for the redis backend")
	}
	return &cfg, nil
}

var structValidator = validator.New()

func validate(cfg *Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// setDefaults registers every key so AutomaticEnv can find it.
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"db": d.DB,

		"llm.provider":             d.LLM.Provider,
		"llm.timeout":              d.LLM.Timeout,
		"llm.json_attempts":        d.LLM.JSONAttempts,
		"llm.anthropic.api_key":    d.LLM.Anthropic.APIKey,
		"llm.anthropic.model":      d.LLM.Anthropic.Model,
		"llm.openai.api_key":       d.LLM.OpenAI.APIKey,
		"llm.openai.model":         d.LLM.OpenAI.Model,
		"llm.openai.base_url":      d.LLM.OpenAI.BaseURL,
		"llm.gemini.api_key":       d.LLM.Gemini.APIKey,
		"llm.gemini.model":         d.LLM.Gemini.Model,
		"llm.openrouter.api_key":   d.LLM.OpenRouter.APIKey,
		"llm.openrouter.model":     d.LLM.OpenRouter.Model,
		"llm.openrouter.base_url":  d.LLM.OpenRouter.BaseURL,
		"llm.retry.max_attempts":   d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":   d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":       d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":     d.LLM.Retry.Multiplier,

		"cache.backend":        d.Cache.Backend,
		"cache.dir":            d.Cache.Dir,
		"cache.redis.addr":     d.Cache.Redis.Addr,
		"cache.redis.password": d.Cache.Redis.Password,
		"cache.redis.db":       d.Cache.Redis.DB,
		"cache.redis.prefix":   d.Cache.Redis.Prefix,

		"quiz.count":                d.Quiz.Count,
		"quiz.difficulty":           d.Quiz.Difficulty,
		"quiz.language":             d.Quiz.Language,
		"quiz.history_window":       d.Quiz.HistoryWindow,
		"quiz.similarity_threshold": d.Quiz.SimilarityThreshold,
		"quiz.max_avoid":            d.Quiz.MaxAvoid,

		"explain.style":    string(d.Explain.Style),
		"explain.language": d.Explain.Language,

		"pipeline.fact_check": d.Pipeline.FactCheck,
		"log.level":           d.Log.Level,
		"trace.enabled":       d.Trace.Enabled,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
