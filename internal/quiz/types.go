// Package quiz turns extracted concepts into validated, de-duplicated
// quiz questions.
package quiz

import "fmt"

// Concept is one term and its definition pulled out of a note.
type Concept struct {
	Term        string `json:"term" yaml:"term"`
	Definition  string `json:"definition" yaml:"definition"`
	CodeSnippet string `json:"code_snippet,omitempty" yaml:"code_snippet,omitempty"`
}

// QuestionType enumerates the supported answer formats.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// Difficulty controls the prompt's target difficulty.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty validates a difficulty name. Empty means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case "":
		return Medium, nil
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// GeneralConcept is used when a question names no concept.
const GeneralConcept = "General"

// Question is a normalized quiz question. Once produced by the Normalizer it
// is never modified.
type Question struct {
	ID                string       `json:"question_id" yaml:"question_id"`
	Text              string       `json:"question" yaml:"question"`
	Type              QuestionType `json:"type" yaml:"type"`
	Options           []string     `json:"options" yaml:"options"`
	CorrectAnswer     string       `json:"correct_answer" yaml:"correct_answer"`
	RelatedConcept    string       `json:"related_concept" yaml:"related_concept"`
	ConceptDefinition string       `json:"concept_definition,omitempty" yaml:"concept_definition,omitempty"`
	CodeContext       string       `json:"code_context,omitempty" yaml:"code_context,omitempty"`
}

// Record converts q back into the loose map form the Normalizer accepts.
func (q Question) Record() map[string]any {
	opts := make([]any, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o
	}
	rec := map[string]any{
		"question_id":     q.ID,
		"question":        q.Text,
		"type":            string(q.Type),
		"options":         opts,
		"correct_answer":  q.CorrectAnswer,
		"related_concept": q.RelatedConcept,
	}
	if q.ConceptDefinition != "" {
		rec["concept_definition"] = q.ConceptDefinition
	}
	if q.CodeContext != "" {
		rec["code_context"] = q.CodeContext
	}
	return rec
}
