package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/notequiz/internal/cache"
	"github.com/abhisek/notequiz/internal/notes"
	"github.com/abhisek/notequiz/internal/quiz"
)

// Status is the outcome of Process.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ProcessRequest is one pipeline run.
type ProcessRequest struct {
	Text       string
	Count      int
	Difficulty quiz.Difficulty
	// ForceReparse ignores cached concepts.
	ForceReparse bool
	// IgnoreHistory generates without avoiding previously asked questions.
	IgnoreHistory bool
}

// Result is what a run produced. Failures are reported here with
// Status "error" rather than as a Go error.
type Result struct {
	Status        Status          `json:"status"`
	Message       string          `json:"message"`
	Quiz          []quiz.Question `json:"quiz,omitempty"`
	ConceptsCount int             `json:"concepts_count"`
	Strategy      notes.Strategy  `json:"strategy,omitempty"`
	Category      notes.Category  `json:"category,omitempty"`
	FromCache     bool            `json:"from_cache"`
}

func failed(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// prepared is the output of the HOT or COLD path.
type prepared struct {
	concepts    []quiz.Concept
	strategy    notes.Strategy
	category    notes.Category
	factChecked bool
	fromCache   bool
}

var errNoConcepts = errors.New("no concepts could be extracted from the note")

// Process starts a new session for req.Text and generates its quiz. The
// returned error is non-nil only when ctx is done.
func (c *Coordinator) Process(ctx context.Context, req ProcessRequest) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.Bool("pipeline.force_reparse", req.ForceReparse),
		attribute.Bool("pipeline.ignore_history", req.IgnoreHistory),
	))
	defer span.End()

	c.Reset()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.reject(span, failed("note text is empty")), nil
	}
	opts := quiz.Options{Count: req.Count, Difficulty: req.Difficulty, Language: c.cfg.Language}
	if err := opts.Validate(); err != nil {
		return c.reject(span, failed("invalid quiz options: %v", err)), nil
	}

	hash := cache.HashNote(text)
	span.SetAttributes(attribute.String("pipeline.note_hash", hash))
	c.log.Info("pipeline started",
		"note_hash", hash,
		"chars", len([]rune(text)),
		"count", opts.Count,
		"difficulty", opts.Difficulty,
		"force_reparse", req.ForceReparse,
		"ignore_history", req.IgnoreHistory)

	var (
		pr  prepared
		hot bool
	)
	if !req.ForceReparse {
		pr, hot = c.loadCached(ctx, hash)
	}
	if !hot {
		var err error
		pr, err = c.cold(ctx, text, hash)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				endSpan(span, ctxErr)
				return Result{}, ctxErr
			}
			return c.reject(span, failed("%v", err)), nil
		}
	}
	span.SetAttributes(
		attribute.Bool("pipeline.from_cache", pr.fromCache),
		attribute.String("pipeline.strategy", string(pr.strategy)),
	)

	var history []string
	if !req.IgnoreHistory {
		history = c.loadHistory(ctx)
	}

	questions, err := c.generate(ctx, pr.concepts, history, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			endSpan(span, ctxErr)
			return Result{}, ctxErr
		}
		return c.reject(span, failed("could not generate questions: %v", err)), nil
	}
	if len(questions) == 0 {
		return c.reject(span, failed("could not generate questions: every candidate was invalid or a repeat")), nil
	}

	c.saveHistory(ctx, questions)

	c.mu.Lock()
	c.sess = session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		noteHash:  hash,
		strategy:  pr.strategy,
		category:  pr.category,
		fromCache: pr.fromCache,
		questions: questions,
	}
	c.mu.Unlock()

	source := "new analysis"
	if pr.fromCache {
		source = "from cache"
	}
	res := Result{
		Status:        StatusSuccess,
		Message:       fmt.Sprintf("Quiz ready: %d concepts, %d questions (%s)", len(pr.concepts), len(questions), source),
		Quiz:          questions,
		ConceptsCount: len(pr.concepts),
		Strategy:      pr.strategy,
		Category:      pr.category,
		FromCache:     pr.fromCache,
	}
	c.log.Info("pipeline finished",
		"concepts", res.ConceptsCount,
		"questions", len(questions),
		"strategy", res.Strategy,
		"from_cache", res.FromCache)
	return res, nil
}

func (c *Coordinator) reject(span trace.Span, res Result) Result {
	span.SetStatus(codes.Error, res.Message)
	c.log.Warn("pipeline failed", "reason", res.Message)
	return res
}

// loadCached is the HOT path. Any load failure is a miss.
func (c *Coordinator) loadCached(ctx context.Context, hash string) (prepared, bool) {
	ctx, span := c.tracer.Start(ctx, "pipeline.cache_check")
	defer span.End()

	env, err := cache.LoadEnvelope(ctx, c.cache, hash)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrNotFound):
			c.log.Debug("no cached concepts", "note_hash", hash)
		case errors.Is(err, cache.ErrIncompatible), errors.Is(err, cache.ErrCorrupt):
			c.log.Warn("ignoring cached concepts", "note_hash", hash, "error", err)
		default:
			c.log.Warn("cache lookup failed", "note_hash", hash, "error", err)
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return prepared{}, false
	}
	if len(env.Concepts) == 0 {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return prepared{}, false
	}

	span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("cache.concepts", len(env.Concepts)))
	c.log.Info("using cached concepts", "note_hash", hash, "concepts", len(env.Concepts))
	return prepared{
		concepts:    env.Concepts,
		strategy:    notes.Strategy(env.Metadata.Strategy),
		category:    notes.Category(env.Metadata.Category),
		factChecked: env.Metadata.FactChecked,
		fromCache:   true,
	}, true
}

// cold classifies, extracts and verifies the note, then caches the concepts.
func (c *Coordinator) cold(ctx context.Context, text, hash string) (prepared, error) {
	c.log.Info("running full analysis", "note_hash", hash)

	cls, err := c.classify(ctx, text)
	if err != nil {
		return prepared{}, err
	}
	pr := prepared{category: cls.Category, strategy: notes.StrategyFor(cls.Category)}

	pr.concepts, err = c.extract(ctx, text, pr.strategy)
	if err != nil {
		if ctx.Err() != nil {
			return prepared{}, err
		}
		c.log.Warn("extraction failed", "strategy", pr.strategy, "error", err)
	}
	if len(pr.concepts) == 0 && pr.strategy != notes.StrategyDirectQuiz {
		c.log.Info("no concepts extracted, quizzing the note directly", "strategy", pr.strategy)
		pr.strategy = notes.StrategyDirectQuiz
		pr.concepts = notes.DirectConcepts(text)
	}
	if len(pr.concepts) == 0 {
		return prepared{}, errNoConcepts
	}

	if c.cfg.FactCheck && pr.strategy != notes.StrategyDirectQuiz {
		pr.concepts, pr.factChecked = c.verify(ctx, pr.concepts)
		if err := ctx.Err(); err != nil {
			return prepared{}, err
		}
	}

	env := cache.NewEnvelope(hash, string(pr.strategy), string(pr.category), pr.factChecked, pr.concepts)
	if err := cache.SaveEnvelope(ctx, c.cache, env); err != nil {
		c.log.Warn("could not cache concepts", "note_hash", hash, "error", err)
	}
	return pr, nil
}

func (c *Coordinator) classify(ctx context.Context, text string) (notes.Classification, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.classify")
	cls, err := c.classifier.Classify(ctx, text)
	span.SetAttributes(
		attribute.String("note.category", string(cls.Category)),
		attribute.String("note.classifier", cls.Classifier),
	)
	endSpan(span, err)
	if err == nil {
		c.log.Info("note classified",
			"category", cls.Category,
			"confidence", cls.Confidence,
			"classifier", cls.Classifier)
	}
	return cls, err
}

func (c *Coordinator) extract(ctx context.Context, text string, strategy notes.Strategy) ([]quiz.Concept, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.extract",
		trace.WithAttributes(attribute.String("note.strategy", string(strategy))))
	concepts, err := c.extractor.Extract(ctx, text, strategy)
	span.SetAttributes(attribute.Int("note.concepts", len(concepts)))
	endSpan(span, err)
	return concepts, err
}

func (c *Coordinator) verify(ctx context.Context, concepts []quiz.Concept) ([]quiz.Concept, bool) {
	ctx, span := c.tracer.Start(ctx, "pipeline.fact_check")
	defer span.End()
	out, ok := c.factChecker.Verify(ctx, concepts)
	span.SetAttributes(attribute.Bool("factcheck.applied", ok))
	c.log.Info("concepts fact-checked", "applied", ok, "concepts", len(out))
	return out, ok
}

func (c *Coordinator) generate(ctx context.Context, concepts []quiz.Concept, history []string, opts quiz.Options) ([]quiz.Question, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.generate", trace.WithAttributes(
		attribute.Int("quiz.requested", opts.Count),
		attribute.Int("quiz.history", len(history)),
	))
	questions, err := c.generator.Generate(ctx, concepts, history, opts)
	span.SetAttributes(attribute.Int("quiz.accepted", len(questions)))
	endSpan(span, err)
	return questions, err
}

// loadHistory reads the recent history from the store, or from the cache
// mirror when there is no store or it fails.
func (c *Coordinator) loadHistory(ctx context.Context) []string {
	if c.history != nil {
		texts, err := c.history.Recent(ctx, c.cfg.HistoryWindow)
		if err == nil {
			return texts
		}
		c.log.Warn("could not read question history", "error", err)
	}
	texts := cache.LoadHistory(ctx, c.cache)
	if len(texts) > c.cfg.HistoryWindow {
		texts = texts[len(texts)-c.cfg.HistoryWindow:]
	}
	return texts
}

// saveHistory appends the accepted question texts and refreshes the cache
// mirror.
func (c *Coordinator) saveHistory(ctx context.Context, questions []quiz.Question) {
	texts := make([]string, 0, len(questions))
	for _, q := range questions {
		texts = append(texts, q.Text)
	}

	var all []string
	if c.history != nil {
		if err := c.history.Append(ctx, texts...); err != nil {
			c.log.Warn("could not save question history", "error", err)
		}
		var err error
		if all, err = c.history.Recent(ctx, 0); err != nil {
			c.log.Warn("could not read question history", "error", err)
			return
		}
	} else {
		all = append(cache.LoadHistory(ctx, c.cache), texts...)
	}

	if err := cache.SaveHistory(ctx, c.cache, all); err != nil {
		c.log.Warn("could not mirror question history", "error", err)
	}
}
