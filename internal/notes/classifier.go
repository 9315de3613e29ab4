package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
)

// ShortNoteRunes is the content length below which a note counts as short.
const ShortNoteRunes = 200

// Rule is a cheap content classifier. It returns a category and confidence
// (0.0–1.0), or ("", 0) if it does not apply.
type Rule interface {
	Name() string
	Classify(text string) (Category, float64)
}

// DefaultRules returns rule classifiers in priority order.
func DefaultRules() []Rule {
	return []Rule{
		&GarbageRule{},
		&ShortRule{},
	}
}

// GarbageRule flags text with almost no letters.
type GarbageRule struct{}

func (r *GarbageRule) Name() string { return "garbage" }

func (r *GarbageRule) Classify(text string) (Category, float64) {
	letters, visible := 0, 0
	for _, ch := range text {
		if unicode.IsSpace(ch) {
			continue
		}
		visible++
		if unicode.IsLetter(ch) {
			letters++
		}
	}
	if letters < 3 {
		return CategoryGarbage, 1.0
	}
	if float64(letters)/float64(visible) < 0.3 {
		return CategoryGarbage, 0.8
	}
	return "", 0
}

// ShortRule flags notes too short to extract several concepts from.
type ShortRule struct{}

func (r *ShortRule) Name() string { return "short" }

func (r *ShortRule) Classify(text string) (Category, float64) {
	if len([]rune(strings.TrimSpace(text))) < ShortNoteRunes {
		return CategoryShort, 0.9
	}
	return "", 0
}

// Classification is the outcome of Classify.
type Classification struct {
	Category   Category
	Confidence float64
	// Classifier names the rule that matched, "llm", or "fallback".
	Classifier string
}

// StructuredGenerator is the part of llm.Client used for schema replies.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *llm.Schema) (json.RawMessage, error)
}

// Classifier runs the rule classifiers, then asks the model.
type Classifier struct {
	rules  []Rule
	client StructuredGenerator
	log    *logging.Logger
}

// NewClassifier creates a Classifier with DefaultRules. A nil client makes
// every note that passes the rules a theory note.
func NewClassifier(client StructuredGenerator, log *logging.Logger) *Classifier {
	if log == nil {
		log = logging.Nop()
	}
	return &Classifier{rules: DefaultRules(), client: client, log: log}
}

// RunRules executes the rules in order and returns the first match, or
// ("", 0, "") if none apply.
func RunRules(rules []Rule, text string) (Category, float64, string) {
	for _, r := range rules {
		if cat, conf := r.Classify(text); cat != "" {
			return cat, conf, r.Name()
		}
	}
	return "", 0, ""
}

// Classify returns the note's category. Model failures fall back to theory;
// only context errors are returned.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	if cat, conf, name := RunRules(c.rules, text); cat != "" {
		return Classification{Category: cat, Confidence: conf, Classifier: name}, nil
	}

	fallback := Classification{Category: CategoryTheory, Confidence: 0.5, Classifier: "fallback"}
	if c.client == nil {
		return fallback, nil
	}

	prompt, err := renderClassifyPrompt(text)
	if err != nil {
		return fallback, fmt.Errorf("build classify prompt: %w", err)
	}

	raw, err := c.client.GenerateStructured(llm.WithPurpose(ctx, llm.PurposeClassify), prompt, ClassificationSchema)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fallback, ctxErr
		}
		c.log.Warn("classification failed, assuming theory", "error", err)
		return fallback, nil
	}

	var out struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("classification reply unreadable, assuming theory", "error", err)
		return fallback, nil
	}
	return Classification{
		Category:   ParseCategory(out.Category),
		Confidence: out.Confidence,
		Classifier: "llm",
	}, nil
}

// ClassificationSchema constrains the classifier reply.
var ClassificationSchema = &llm.Schema{
	Name:        "note-category",
	Description: "The dominant kind of content in a study note",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type":        "string",
				"enum":        []any{"theory", "code", "math", "list", "short", "garbage"},
				"description": "The single best category for the note",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "How sure the classification is, 0.0 to 1.0",
			},
		},
		"required": []any{"category", "confidence"},
	},
}

// classifyExcerptRunes caps how much of the note is sent for classification.
const classifyExcerptRunes = 3000

var classifyTemplate = template.Must(template.New("classify").Parse(`Classify this study note by its dominant content:
- theory: prose explaining ideas, terms and definitions
- code: source code or programming material
- math: formulas, theorems, proofs or calculations
- list: bullet lists, enumerations or tables of facts
- short: too little content for more than one question
- garbage: no meaningful educational content

Note:
"""
{{.}}
"""

Answer with JSON: {"category": "<one of the above>", "confidence": <0.0-1.0>}`))

func renderClassifyPrompt(text string) (string, error) {
	var b strings.Builder
	if err := classifyTemplate.Execute(&b, truncateRunes(strings.TrimSpace(text), classifyExcerptRunes)); err != nil {
		return "", err
	}
	return b.String(), nil
}
