package quiz

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaxQuestionRunes bounds question text length.
const MaxQuestionRunes = 300

// DefaultRules returns the rule chain used by NewNormalizer, in order.
func DefaultRules() []Rule {
	return []Rule{
		&TextRule{},
		&TypeRule{},
		&ConceptRule{},
		&MultipleChoiceRule{},
		&TrueFalseRule{},
		&IdentityRule{},
		&ContextRule{},
	}
}

// TextRule requires question text and bounds its length.
type TextRule struct{}

func (r *TextRule) Name() string { return "text" }

func (r *TextRule) Apply(d *Draft) *RuleError {
	text := d.str("question", "question_text", "text")
	if text == "" {
		return &RuleError{Rule: r.Name(), Message: "question text is empty"}
	}
	if runes := []rune(text); len(runes) > MaxQuestionRunes {
		text = strings.TrimRightFunc(string(runes[:MaxQuestionRunes]), isSpace)
	}
	d.Question.Text = text
	return nil
}

// typeSynonyms maps loose type names to the two supported types.
var typeSynonyms = map[string]QuestionType{
	"multiple_choice": MultipleChoice,
	"single_choice":   MultipleChoice,
	"choice":          MultipleChoice,
	"multiple-choice": MultipleChoice,
	"mcq":             MultipleChoice,
	"multi_choice":    MultipleChoice,
	"select":          MultipleChoice,

	"true_false":    TrueFalse,
	"boolean":       TrueFalse,
	"bool":          TrueFalse,
	"yes_no":        TrueFalse,
	"true/false":    TrueFalse,
	"true-false":    TrueFalse,
	"tf":            TrueFalse,
	"верно/неверно": TrueFalse,
}

// TypeRule maps the question type onto a supported one. A record with no
// type at all is inferred from its options.
type TypeRule struct{}

func (r *TypeRule) Name() string { return "type" }

func (r *TypeRule) Apply(d *Draft) *RuleError {
	raw := foldKey(d.str("type", "question_type"))
	if raw == "" {
		opts, _ := d.Raw["options"].([]any)
		if _, ok := boolAnswer(d.Raw["correct_answer"]); ok && allBool(opts) {
			d.Question.Type = TrueFalse
			return nil
		}
		if len(opts) >= 2 {
			d.Question.Type = MultipleChoice
			return nil
		}
		return &RuleError{Rule: r.Name(), Message: "question type is missing"}
	}
	t, ok := typeSynonyms[raw]
	if !ok {
		return &RuleError{Rule: r.Name(), Message: "unsupported question type " + strconv.Quote(raw)}
	}
	d.Question.Type = t
	return nil
}

// ConceptRule fills the related concept, defaulting to GeneralConcept.
type ConceptRule struct{}

func (r *ConceptRule) Name() string { return "concept" }

func (r *ConceptRule) Apply(d *Draft) *RuleError {
	c := d.str("related_concept", "concept")
	if c == "" {
		c = GeneralConcept
	}
	d.Question.RelatedConcept = c
	return nil
}

// MultipleChoiceRule cleans options and resolves the correct answer to the
// exact text of one option.
type MultipleChoiceRule struct{}

func (r *MultipleChoiceRule) Name() string { return "multiple_choice" }

func (r *MultipleChoiceRule) Apply(d *Draft) *RuleError {
	if d.Question.Type != MultipleChoice {
		return nil
	}
	rawOpts, ok := d.Raw["options"].([]any)
	if !ok {
		if ss, isStrings := d.Raw["options"].([]string); isStrings {
			for _, s := range ss {
				rawOpts = append(rawOpts, s)
			}
			ok = true
		}
	}
	if !ok {
		return &RuleError{Rule: r.Name(), Message: "options must be a list"}
	}

	seen := make(map[string]bool, len(rawOpts))
	var opts []string
	for _, o := range rawOpts {
		s := stringify(o)
		if s == "" || seen[foldKey(s)] {
			continue
		}
		seen[foldKey(s)] = true
		opts = append(opts, s)
	}
	if len(opts) < 2 {
		return &RuleError{Rule: r.Name(), Message: "fewer than 2 distinct options"}
	}

	answer := stringify(d.Raw["correct_answer"])
	if answer == "" {
		return &RuleError{Rule: r.Name(), Message: "correct answer is empty"}
	}
	resolved, ok := resolveOption(answer, opts)
	if !ok {
		return &RuleError{Rule: r.Name(), Message: "correct answer " + strconv.Quote(answer) + " is not among the options"}
	}

	d.Question.Options = opts
	d.Question.CorrectAnswer = resolved
	return nil
}

// resolveOption matches an answer by option text first, then as a letter
// (a-f) or a 1-based index.
func resolveOption(answer string, opts []string) (string, bool) {
	for _, o := range opts {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}

	ref := strings.TrimRight(strings.ToLower(answer), ").:")
	if len(ref) == 1 && ref[0] >= 'a' && ref[0] <= 'f' {
		if i := int(ref[0] - 'a'); i < len(opts) {
			return opts[i], true
		}
		return "", false
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1], true
	}
	return "", false
}

var (
	trueWords  = map[string]bool{"true": true, "yes": true, "1": true, "верно": true, "да": true, "правда": true}
	falseWords = map[string]bool{"false": true, "no": true, "0": true, "неверно": true, "нет": true, "ложь": true}
)

func boolAnswer(v any) (bool, bool) {
	s := foldKey(stringify(v))
	switch {
	case trueWords[s]:
		return true, true
	case falseWords[s]:
		return false, true
	}
	return false, false
}

func allBool(opts []any) bool {
	for _, o := range opts {
		if _, ok := boolAnswer(o); !ok {
			return false
		}
	}
	return true
}

// TrueFalseRule canonicalizes the answer to "True" or "False" and forces the
// options.
type TrueFalseRule struct{}

func (r *TrueFalseRule) Name() string { return "true_false" }

func (r *TrueFalseRule) Apply(d *Draft) *RuleError {
	if d.Question.Type != TrueFalse {
		return nil
	}
	b, ok := boolAnswer(d.Raw["correct_answer"])
	if !ok {
		return &RuleError{Rule: r.Name(), Message: "answer is not a true/false value"}
	}
	d.Question.Options = []string{"True", "False"}
	d.Question.CorrectAnswer = "False"
	if b {
		d.Question.CorrectAnswer = "True"
	}
	return nil
}

// IdentityRule keeps an existing question_id or assigns a new UUID.
type IdentityRule struct{}

func (r *IdentityRule) Name() string { return "identity" }

func (r *IdentityRule) Apply(d *Draft) *RuleError {
	id := d.str("question_id", "id")
	if id == "" {
		id = uuid.NewString()
	}
	d.Question.ID = id
	return nil
}

// ContextRule attaches the concept definition and code snippet from the
// concept lookup, keeping values already on the record when the lookup
// misses.
type ContextRule struct{}

func (r *ContextRule) Name() string { return "context" }

func (r *ContextRule) Apply(d *Draft) *RuleError {
	d.Question.ConceptDefinition = d.str("concept_definition")
	d.Question.CodeContext = d.str("code_context")

	if c, ok := d.Concept(d.Question.RelatedConcept); ok {
		d.Question.ConceptDefinition = c.Definition
		if c.CodeSnippet != "" {
			d.Question.CodeContext = c.CodeSnippet
		}
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
