// Package pipeline runs a note through classification, extraction,
// fact-checking and question generation, and scores the answers.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/notequiz/internal/cache"
	"github.com/abhisek/notequiz/internal/explain"
	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/notes"
	"github.com/abhisek/notequiz/internal/quiz"
	"github.com/abhisek/notequiz/internal/store"
)

const tracerName = "github.com/abhisek/notequiz/internal/pipeline"

// ErrNoQuestion is reported when an answer names a question that is not in
// the current batch.
var ErrNoQuestion = errors.New("pipeline: question not found")

// Config tunes the coordinator.
type Config struct {
	FactCheck    bool
	JSONAttempts int
	// Language is the language questions are written in.
	Language string

	HistoryWindow       int
	SimilarityThreshold float64
	MaxAvoid            int

	Explain explain.Config
}

// DefaultConfig enables fact-checking and uses the quiz package defaults.
func DefaultConfig() Config {
	return Config{
		FactCheck:           true,
		JSONAttempts:        llm.DefaultJSONAttempts,
		Language:            "english",
		HistoryWindow:       quiz.DefaultHistoryWindow,
		SimilarityThreshold: quiz.DefaultSimilarityThreshold,
		Explain:             explain.DefaultConfig(),
	}
}

// HistoryRepo persists asked question texts.
type HistoryRepo interface {
	Append(ctx context.Context, texts ...string) error
	Recent(ctx context.Context, n int) ([]string, error)
}

// SessionRepo records finished quizzes.
type SessionRepo interface {
	Record(ctx context.Context, rec store.SessionRecord) error
}

// Deps are the collaborators of a Coordinator. History and Sessions are
// optional; without History the cache mirror is the only history.
type Deps struct {
	Client   *llm.Client
	Cache    cache.Store
	History  HistoryRepo
	Sessions SessionRepo
}

// Coordinator owns one quiz session at a time. Its methods are safe for
// concurrent use.
type Coordinator struct {
	cfg      Config
	client   *llm.Client
	cache    cache.Store
	history  HistoryRepo
	sessions SessionRepo

	classifier  *notes.Classifier
	extractor   *notes.Extractor
	factChecker *notes.FactChecker
	generator   *quiz.Generator
	explainer   *explain.Explainer

	tracer trace.Tracer
	log    *logging.Logger

	mu   sync.Mutex
	sess session
}

// session is the mutable state of the current quiz.
type session struct {
	id        string
	startedAt time.Time
	noteHash  string
	strategy  notes.Strategy
	category  notes.Category
	fromCache bool
	questions []quiz.Question
	score     int
	answered  int
	recorded  bool
}

// New wires a Coordinator. Client and Cache are required.
func New(deps Deps, cfg Config, log *logging.Logger) (*Coordinator, error) {
	if deps.Client == nil {
		return nil, errors.New("pipeline: LLM client is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("pipeline: cache store is required")
	}
	if log == nil {
		log = logging.Nop()
	}
	def := DefaultConfig()
	if cfg.JSONAttempts <= 0 {
		cfg.JSONAttempts = def.JSONAttempts
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}
	if cfg.Explain.Language == "" {
		cfg.Explain.Language = cfg.Language
	}

	log = log.With("component", "pipeline")
	return &Coordinator{
		cfg:         cfg,
		client:      deps.Client,
		cache:       deps.Cache,
		history:     deps.History,
		sessions:    deps.Sessions,
		classifier:  notes.NewClassifier(deps.Client, log),
		extractor:   notes.NewExtractor(deps.Client, cfg.JSONAttempts, log),
		factChecker: notes.NewFactChecker(deps.Client, cfg.JSONAttempts, log),
		generator: quiz.NewGenerator(deps.Client, quiz.GeneratorConfig{
			JSONAttempts: cfg.JSONAttempts,
			MaxAvoid:     cfg.MaxAvoid,
			Dedup:        quiz.NewDeduplicator(cfg.SimilarityThreshold, cfg.HistoryWindow),
		}, log),
		explainer: explain.New(deps.Client, cfg.Explain, log),
		tracer:    otel.Tracer(tracerName),
		log:       log,
	}, nil
}

// Questions returns a copy of the current batch.
func (c *Coordinator) Questions() []quiz.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]quiz.Question(nil), c.sess.questions...)
}

// Reset clears the session and the LLM usage counters.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.sess = session{}
	c.mu.Unlock()
	c.client.ResetStats()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
