package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
)

const (
	MinCount     = 1
	MaxCount     = 20
	DefaultCount = 5
)

// ErrNoConcepts is returned when Generate is called without concepts.
var ErrNoConcepts = errors.New("quiz: no concepts to generate from")

// JSONGenerator is the part of llm.Client the Generator needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, attempts int) (any, error)
}

// Options controls one generation call.
type Options struct {
	Count      int
	Difficulty Difficulty
	Language   string
}

// Validate checks Count and Difficulty, filling defaults for zero values.
func (o *Options) Validate() error {
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.Count < MinCount || o.Count > MaxCount {
		return fmt.Errorf("question count %d out of range %d..%d", o.Count, MinCount, MaxCount)
	}
	d, err := ParseDifficulty(string(o.Difficulty))
	if err != nil {
		return err
	}
	o.Difficulty = d
	if o.Language == "" {
		o.Language = "english"
	}
	return nil
}

// GeneratorConfig tunes prompting and de-duplication.
type GeneratorConfig struct {
	JSONAttempts int
	// MaxAvoid caps how many history texts are listed in the prompt.
	MaxAvoid int
	Dedup    *Deduplicator
}

// Generator asks the model for questions and cleans the result.
type Generator struct {
	client JSONGenerator
	cfg    GeneratorConfig
	log    *logging.Logger
}

// NewGenerator creates a Generator. A nil Dedup uses the defaults.
func NewGenerator(client JSONGenerator, cfg GeneratorConfig, log *logging.Logger) *Generator {
	if cfg.Dedup == nil {
		cfg.Dedup = NewDeduplicator(0, 0)
	}
	if cfg.MaxAvoid <= 0 {
		cfg.MaxAvoid = 30
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Generator{client: client, cfg: cfg, log: log}
}

// Generate returns at most opts.Count normalized questions that do not
// repeat history. An empty result with a nil error means every candidate was
// dropped.
func (g *Generator) Generate(ctx context.Context, concepts []Concept, history []string, opts Options) ([]Question, error) {
	if len(concepts) == 0 {
		return nil, ErrNoConcepts
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(concepts, opts, history, g.cfg.MaxAvoid)
	if err != nil {
		return nil, fmt.Errorf("render quiz prompt: %w", err)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)
	v, err := g.client.GenerateJSON(ctx, prompt, g.cfg.JSONAttempts)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	records, ok := Records(v)
	if !ok {
		return nil, fmt.Errorf("generate questions: unexpected response shape %T", v)
	}

	normalized, dropped := NewNormalizer(concepts, g.log).NormalizeReport(records)
	filtered := g.cfg.Dedup.Filter(normalized, history)
	unique := filtered
	if len(unique) > opts.Count {
		unique = unique[:opts.Count]
	}

	g.log.Info("questions generated",
		"requested", opts.Count,
		"received", len(records),
		"invalid", len(dropped),
		"duplicates", len(normalized)-len(filtered),
		"accepted", len(unique))

	return unique, nil
}
