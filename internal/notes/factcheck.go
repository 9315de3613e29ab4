package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/quiz"
)

// FactChecker asks the model to correct concept definitions.
type FactChecker struct {
	client   JSONGenerator
	attempts int
	log      *logging.Logger
}

// NewFactChecker creates a FactChecker. attempts <= 0 uses the client
// default.
func NewFactChecker(client JSONGenerator, attempts int, log *logging.Logger) *FactChecker {
	if log == nil {
		log = logging.Nop()
	}
	return &FactChecker{client: client, attempts: attempts, log: log}
}

var errBadShape = errors.New(`reply is not {"concepts": [{term, definition}]}`)

// Verify returns corrected concepts and true, or the input unchanged and
// false when anything goes wrong.
func (f *FactChecker) Verify(ctx context.Context, concepts []quiz.Concept) ([]quiz.Concept, bool) {
	if len(concepts) == 0 {
		return concepts, false
	}
	verified, err := f.verify(ctx, concepts)
	if err != nil {
		f.log.Warn("fact-check failed, keeping original concepts", "error", err)
		return concepts, false
	}
	f.log.Debug("concepts fact-checked", "count", len(verified))
	return verified, true
}

func (f *FactChecker) verify(ctx context.Context, concepts []quiz.Concept) ([]quiz.Concept, error) {
	var b strings.Builder
	if err := factCheckTemplate.Execute(&b, concepts); err != nil {
		return nil, fmt.Errorf("build fact-check prompt: %w", err)
	}

	v, err := f.client.GenerateJSON(llm.WithPurpose(ctx, llm.PurposeFactCheck), b.String(), f.attempts)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errBadShape
	}
	items, ok := obj["concepts"].([]any)
	if !ok || len(items) == 0 {
		return nil, errBadShape
	}

	snippets := make(map[string]string, len(concepts))
	for _, c := range concepts {
		if c.CodeSnippet != "" {
			snippets[strings.ToLower(strings.TrimSpace(c.Term))] = c.CodeSnippet
		}
	}

	out := make([]quiz.Concept, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errBadShape
		}
		term, tok := m["term"].(string)
		def, dok := m["definition"].(string)
		term, def = strings.TrimSpace(term), strings.TrimSpace(def)
		if !tok || !dok || term == "" || def == "" {
			return nil, errBadShape
		}
		out = append(out, quiz.Concept{
			Term:        term,
			Definition:  def,
			CodeSnippet: snippets[strings.ToLower(term)],
		})
	}
	return out, nil
}

var factCheckTemplate = template.Must(template.New("factcheck").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Check these study concepts for factual errors and inaccuracies:
{{range $i, $c := .}}
{{inc $i}}. Term: {{$c.Term}}
   Definition: {{$c.Definition}}
{{end}}
Instructions:
1. Check every definition against established knowledge.
2. If a definition is wrong, correct it.
3. If it is correct, keep it unchanged.
4. Keep every term exactly as written.
5. Do not add new concepts.

Answer with JSON only:
{"concepts": [{"term": "original term", "definition": "checked definition"}]}`))

