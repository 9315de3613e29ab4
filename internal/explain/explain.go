// Package explain writes explanations and mnemonic images for wrong answers.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/notequiz/internal/jsonrepair"
	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/quiz"
)

// ErrInvalidInput is returned when a request is incomplete or the answers
// are the same.
var ErrInvalidInput = errors.New("explain: invalid input")

// Style names how mnemonic images should feel.
type Style string

const (
	StyleVivid    Style = "vivid"
	StyleAbsurd   Style = "absurd"
	StyleCreative Style = "creative"
)

var styleWords = map[Style]string{
	StyleVivid:    "vivid and memorable",
	StyleAbsurd:   "absurd, crazy and funny",
	StyleCreative: "creative and original",
}

// Config selects the mnemonic style and the output language.
type Config struct {
	Style    Style  `mapstructure:"style" validate:"omitempty,oneof=vivid absurd creative"`
	Language string `mapstructure:"language" validate:"omitempty,oneof=english russian"`
}

// DefaultConfig returns absurd mnemonics in English.
func DefaultConfig() Config {
	return Config{Style: StyleAbsurd, Language: "english"}
}

// TextGenerator is the part of llm.Client the Explainer needs.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request describes one wrong answer.
type Request struct {
	UserAnswer    string        `json:"user_answer"`
	CorrectAnswer string        `json:"correct_answer"`
	Question      string        `json:"question"`
	Concept       *quiz.Concept `json:"concept,omitempty"`
}

// Validate reports ErrInvalidInput for blank fields or matching answers.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.UserAnswer) == "":
		return fmt.Errorf("%w: user answer is empty", ErrInvalidInput)
	case strings.TrimSpace(r.CorrectAnswer) == "":
		return fmt.Errorf("%w: correct answer is empty", ErrInvalidInput)
	case strings.TrimSpace(r.Question) == "":
		return fmt.Errorf("%w: question is empty", ErrInvalidInput)
	case strings.EqualFold(strings.TrimSpace(r.UserAnswer), strings.TrimSpace(r.CorrectAnswer)):
		return fmt.Errorf("%w: answers are the same", ErrInvalidInput)
	}
	return nil
}

// Result is an explanation and an optional mnemonic image.
type Result struct {
	Explanation   string `json:"explanation"`
	MnemonicImage string `json:"mnemonic_image,omitempty"`
}

// Explainer is stateless apart from its configuration.
type Explainer struct {
	client TextGenerator
	cfg    Config
	log    *logging.Logger
}

// New creates an Explainer, filling zero config fields with defaults.
func New(client TextGenerator, cfg Config, log *logging.Logger) *Explainer {
	def := DefaultConfig()
	if cfg.Style == "" {
		cfg.Style = def.Style
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Explainer{client: client, cfg: cfg, log: log}
}

// Explain validates req and asks the model for an explanation. A reply
// that is plain prose becomes the explanation as a whole.
func (e *Explainer) Explain(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := e.prompt(req)
	if err != nil {
		return nil, fmt.Errorf("build explain prompt: %w", err)
	}

	reply, err := e.client.Generate(llm.WithPurpose(ctx, llm.PurposeExplain), prompt)
	if err != nil {
		return nil, fmt.Errorf("generate explanation: %w", err)
	}
	return parseReply(reply)
}

func parseReply(reply string) (*Result, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("generate explanation: empty reply")
	}

	v, err := jsonrepair.Parse(reply)
	if err != nil {
		return &Result{Explanation: reply}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return &Result{Explanation: reply}, nil
	}
	expl, _ := obj["explanation"].(string)
	image, _ := obj["mnemonic_image"].(string)
	expl, image = strings.TrimSpace(expl), strings.TrimSpace(image)
	if expl == "" {
		return nil, fmt.Errorf("generate explanation: reply has no explanation")
	}
	return &Result{Explanation: expl, MnemonicImage: image}, nil
}

// BatchResult pairs each batch request with its outcome.
type BatchResult struct {
	Result *Result
	Err    error
}

// ExplainBatch explains each request in order. One failure does not stop
// the rest; a cancelled context does.
func (e *Explainer) ExplainBatch(ctx context.Context, reqs []Request) []BatchResult {
	out := make([]BatchResult, len(reqs))
	for i, r := range reqs {
		if err := ctx.Err(); err != nil {
			out[i] = BatchResult{Err: err}
			continue
		}
		res, err := e.Explain(ctx, r)
		if err != nil {
			e.log.Warn("explanation failed", "index", i, "error", err)
		}
		out[i] = BatchResult{Result: res, Err: err}
	}
	return out
}

type promptData struct {
	Request
	StyleWords string
	Language   string
}

var explainTemplate = template.Must(template.New("explain").Parse(`You are an experienced tutor who helps students learn from their mistakes.

Task:
1. Explain briefly (2-3 sentences) why the student's answer is wrong and what the right answer is.
2. Invent a {{.StyleWords}} image or association that helps the student remember the right answer for a long time.

Context:
Question: {{.Question}}
Student's answer: {{.UserAnswer}}
Correct answer: {{.CorrectAnswer}}
{{- with .Concept}}
Concept: {{.Term}}
Definition: {{.Definition}}
{{- end}}

Requirements:
- Answer only in {{.Language}}.
- Explanation: 2-3 friendly sentences without criticism.
- Mnemonic image: describe a {{.StyleWords}} visual image, scene or association in 3-5 sentences.
- Answer with JSON only, no text before or after:
{"explanation": "...", "mnemonic_image": "..."}`))

func (e *Explainer) prompt(req Request) (string, error) {
	words, ok := styleWords[e.cfg.Style]
	if !ok {
		words = styleWords[StyleVivid]
	}
	var b strings.Builder
	err := explainTemplate.Execute(&b, promptData{Request: req, StyleWords: words, Language: e.cfg.Language})
	return b.String(), err
}
