package notes

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/quiz"
)

const (
	// DirectDefinitionRunes caps the pseudo-concept definition.
	DirectDefinitionRunes = 1000
	directTermRunes       = 120
)

// Extractor pulls concepts out of a note.
type Extractor struct {
	client   JSONGenerator
	attempts int
	log      *logging.Logger
}

// NewExtractor creates an Extractor. attempts <= 0 uses the client default.
func NewExtractor(client JSONGenerator, attempts int, log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.Nop()
	}
	return &Extractor{client: client, attempts: attempts, log: log}
}

// Extract returns the concepts of text for the given strategy. Records
// without a term or definition are dropped, so the result may be empty.
func (e *Extractor) Extract(ctx context.Context, text string, strategy Strategy) ([]quiz.Concept, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if strategy == StrategyDirectQuiz {
		return DirectConcepts(text), nil
	}

	tmpl := standardTemplate
	if strategy == StrategyCodePractice {
		tmpl = codeTemplate
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, text); err != nil {
		return nil, fmt.Errorf("build extract prompt: %w", err)
	}

	v, err := e.client.GenerateJSON(llm.WithPurpose(ctx, llm.PurposeExtract), b.String(), e.attempts)
	if err != nil {
		return nil, fmt.Errorf("extract concepts: %w", err)
	}

	items, ok := conceptItems(v)
	if !ok {
		return nil, fmt.Errorf("extract concepts: expected a list, got %T", v)
	}
	concepts := decodeConcepts(items)
	e.log.Debug("concepts extracted", "strategy", strategy, "received", len(items), "kept", len(concepts))
	return concepts, nil
}

// DirectConcepts makes a single pseudo-concept from the note itself: the
// first line is the term and the text, capped, is the definition.
func DirectConcepts(text string) []quiz.Concept {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	term := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		term = strings.TrimSpace(text[:i])
	}
	return []quiz.Concept{{
		Term:       truncateRunes(term, directTermRunes),
		Definition: truncateRunes(text, DirectDefinitionRunes),
	}}
}

// conceptItems accepts a bare list or an object with a "concepts" list.
func conceptItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if items, ok := t["concepts"].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

func decodeConcepts(items []any) []quiz.Concept {
	var out []quiz.Concept
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		term, _ := m["term"].(string)
		def, _ := m["definition"].(string)
		term, def = strings.TrimSpace(term), strings.TrimSpace(def)
		if term == "" || def == "" {
			continue
		}
		code, _ := m["code_snippet"].(string)
		out = append(out, quiz.Concept{
			Term:        term,
			Definition:  def,
			CodeSnippet: strings.Trim(code, "\n"),
		})
	}
	return out
}

const extractRules = `Rules:
- Only take concepts that are really in the text: terms, definitions, laws, rules, key facts and the relations between them. Do not invent terms.
- A cause-and-effect relation is its own item: the term describes the relation and the definition explains it.
- Definitions are clear and unambiguous for a university student.
- No LaTeX, no markdown, no text before or after the JSON.`

var standardTemplate = template.Must(template.New("standard").Parse(`You are a teaching assistant who structures study notes. Extract the key concepts from the note below.

` + extractRules + `

Answer with a JSON array: [{"term": "...", "definition": "..."}]

Note:
{{.}}`))

var codeTemplate = template.Must(template.New("code").Parse(`You are a teaching assistant who structures programming notes. Extract the key concepts from the note below. For each concept that the note illustrates with code, copy the smallest relevant code fragment into "code_snippet".

` + extractRules + `

Answer with a JSON array: [{"term": "...", "definition": "...", "code_snippet": "..."}]. Use an empty string for "code_snippet" when there is no code.

Note:
{{.}}`))
