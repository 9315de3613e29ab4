// Package config loads notequiz settings from defaults, an optional YAML
// file and NOTEQUIZ_* environment variables.
package config

import (
	"github.com/abhisek/notequiz/internal/explain"
	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/pipeline"
	"github.com/abhisek/notequiz/internal/quiz"
)

// Config holds all application configuration.
type Config struct {
	// DB overrides the SQLite database path.
	DB string `mapstructure:"db"`

	LLM      llm.Config     `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Explain  explain.Config `mapstructure:"explain"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Trace    TraceConfig    `mapstructure:"trace"`
}

// CacheConfig selects where extracted concepts are memoized.
type CacheConfig struct {
	Backend string      `mapstructure:"backend" validate:"oneof=file redis"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0,lte=15"`
	Prefix   string `mapstructure:"prefix"`
}

// QuizConfig holds question generation defaults.
type QuizConfig struct {
	Count               int     `mapstructure:"count" validate:"gte=1,lte=20"`
	Difficulty          string  `mapstructure:"difficulty" validate:"oneof=easy medium hard"`
	Language            string  `mapstructure:"language" validate:"oneof=english russian"`
	HistoryWindow       int     `mapstructure:"history_window" validate:"gte=1"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gt=0,lte=1"`
	MaxAvoid            int     `mapstructure:"max_avoid" validate:"gte=0"`
}

type PipelineConfig struct {
	FactCheck bool `mapstructure:"fact_check"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Cache: CacheConfig{
			Backend: "file",
		},
		Quiz: QuizConfig{
			Count:               quiz.DefaultCount,
			Difficulty:          string(quiz.Medium),
			Language:            "english",
			HistoryWindow:       quiz.DefaultHistoryWindow,
			SimilarityThreshold: quiz.DefaultSimilarityThreshold,
			MaxAvoid:            30,
		},
		Explain:  explain.DefaultConfig(),
		Pipeline: PipelineConfig{FactCheck: true},
		Log:      LogConfig{Level: "warn"},
	}
}

// PipelineConfig maps the quiz, explain and pipeline sections onto the
// coordinator's settings.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		FactCheck:           c.Pipeline.FactCheck,
		JSONAttempts:        c.LLM.JSONAttempts,
		Language:            c.Quiz.Language,
		HistoryWindow:       c.Quiz.HistoryWindow,
		SimilarityThreshold: c.Quiz.SimilarityThreshold,
		MaxAvoid:            c.Quiz.MaxAvoid,
		Explain:             c.Explain,
	}
}

// ResolveLLM returns the LLM settings, falling back to the vendors' own
// API key variables when the configured provider has no key.
func (c *Config) ResolveLLM() (llm.Config, error) {
	cfg := c.LLM
	if !cfg.Discover() {
		return cfg, cfg.Validate()
	}
	return cfg, nil
}
