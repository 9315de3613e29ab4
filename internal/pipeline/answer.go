package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/notequiz/internal/explain"
	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/quiz"
	"github.com/abhisek/notequiz/internal/store"
)

// FallbackExplanation is shown when no explanation could be generated.
const FallbackExplanation = "Could not generate an explanation."

// AnswerStatus is the verdict on a submitted answer.
type AnswerStatus string

const (
	AnswerCorrect   AnswerStatus = "correct"
	AnswerIncorrect AnswerStatus = "incorrect"
	AnswerError     AnswerStatus = "error"
)

// AnswerResult is the outcome of SubmitAnswer.
type AnswerResult struct {
	Status        AnswerStatus `json:"status"`
	Message       string       `json:"message,omitempty"`
	IsCorrect     bool         `json:"is_correct"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Score         int          `json:"score"`
	Total         int          `json:"total"`
	Explanation   string       `json:"explanation,omitempty"`
	MnemonicImage string       `json:"mnemonic_image,omitempty"`
}

// SubmitAnswer scores an answer to a question of the current batch. Wrong
// answers get an explanation.
func (c *Coordinator) SubmitAnswer(ctx context.Context, questionID, answer string) AnswerResult {
	c.mu.Lock()
	q, ok := c.find(questionID)
	if !ok {
		c.mu.Unlock()
		c.log.Warn("answer for unknown question", "question_id", questionID)
		return AnswerResult{Status: AnswerError, Message: fmt.Sprintf("%v: %s", ErrNoQuestion, questionID)}
	}

	correct := sameAnswer(answer, q.CorrectAnswer)
	c.sess.answered++
	if correct {
		c.sess.score++
	}
	res := AnswerResult{
		Status:        AnswerIncorrect,
		IsCorrect:     correct,
		CorrectAnswer: q.CorrectAnswer,
		Score:         c.sess.score,
		Total:         len(c.sess.questions),
	}
	answered := c.sess.answered
	c.mu.Unlock()

	c.log.Debug("answer scored",
		"question_id", questionID,
		"correct", correct,
		"score", res.Score,
		"answered", answered)

	if correct {
		res.Status = AnswerCorrect
		return res
	}

	ctx, span := c.tracer.Start(ctx, "pipeline.explain")
	exp, err := c.explainer.Explain(ctx, explain.Request{
		UserAnswer:    answer,
		CorrectAnswer: q.CorrectAnswer,
		Question:      q.Text,
		Concept:       conceptOf(q),
	})
	span.SetAttributes(attribute.Bool("explain.generated", err == nil))
	endSpan(span, err)
	if err != nil {
		c.log.Warn("explanation failed", "question_id", questionID, "error", err)
		res.Explanation = FallbackExplanation
		return res
	}
	res.Explanation = exp.Explanation
	res.MnemonicImage = exp.MnemonicImage
	return res
}

func (c *Coordinator) find(id string) (quiz.Question, bool) {
	for _, q := range c.sess.questions {
		if q.ID == id {
			return q, true
		}
	}
	return quiz.Question{}, false
}

func sameAnswer(a, b string) bool {
	return strings.ToLower(strings.TrimSpace(a)) == strings.ToLower(strings.TrimSpace(b))
}

func conceptOf(q quiz.Question) *quiz.Concept {
	if q.RelatedConcept == "" || q.RelatedConcept == quiz.GeneralConcept {
		return nil
	}
	return &quiz.Concept{Term: q.RelatedConcept, Definition: q.ConceptDefinition, CodeSnippet: q.CodeContext}
}

// Stats summarizes the current session.
type Stats struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Answered       int            `json:"answered"`
	Accuracy       float64        `json:"accuracy"`
	LLM            llm.UsageStats `json:"llm_stats"`
}

// Stats returns the session score. Accuracy is a percentage rounded to two
// decimals.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	st := Stats{
		Score:          c.sess.score,
		TotalQuestions: len(c.sess.questions),
		Answered:       c.sess.answered,
	}
	c.mu.Unlock()
	st.Accuracy = accuracy(st.Score, st.Answered)
	st.LLM = c.client.Stats()
	return st
}

func accuracy(score, answered int) float64 {
	if answered == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(answered)*10000) / 100
}

// Finish records the session. It is a no-op without a SessionRepo, without
// questions, or when the session was already recorded.
func (c *Coordinator) Finish(ctx context.Context) error {
	if c.sessions == nil {
		return nil
	}

	c.mu.Lock()
	s := c.sess
	if len(s.questions) == 0 || s.recorded {
		c.mu.Unlock()
		return nil
	}
	c.sess.recorded = true
	c.mu.Unlock()

	rec := store.SessionRecord{
		ID:         s.id,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
		NoteHash:   s.noteHash,
		Strategy:   string(s.strategy),
		Category:   string(s.category),
		Model:      c.client.ModelID(),
		FromCache:  s.fromCache,
		Score:      s.score,
		Answered:   s.answered,
		Total:      len(s.questions),
		Accuracy:   accuracy(s.score, s.answered),
	}
	if err := c.sessions.Record(ctx, rec); err != nil {
		c.mu.Lock()
		c.sess.recorded = false
		c.mu.Unlock()
		return fmt.Errorf("record session: %w", err)
	}
	c.log.Info("session recorded", "session_id", rec.ID, "score", rec.Score, "answered", rec.Answered)
	return nil
}
