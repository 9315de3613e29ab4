package quiz

import (
	"github.com/abhisek/notequiz/internal/logging"
)

// Normalizer turns loose question records from the model into Questions.
// Records that cannot be repaired are dropped.
type Normalizer struct {
	rules    []Rule
	concepts map[string]Concept
	log      *logging.Logger
}

// NewNormalizer uses DefaultRules and the given concepts for definition and
// code lookups. A nil logger discards output.
func NewNormalizer(concepts []Concept, log *logging.Logger) *Normalizer {
	return NewNormalizerWithRules(DefaultRules(), concepts, log)
}

// NewNormalizerWithRules builds a Normalizer with a custom rule chain.
func NewNormalizerWithRules(rules []Rule, concepts []Concept, log *logging.Logger) *Normalizer {
	if log == nil {
		log = logging.Nop()
	}
	lookup := make(map[string]Concept, len(concepts))
	for _, c := range concepts {
		if k := foldKey(c.Term); k != "" {
			if _, dup := lookup[k]; !dup {
				lookup[k] = c
			}
		}
	}
	return &Normalizer{rules: rules, concepts: lookup, log: log}
}

// Normalize runs every record through the rule chain. Output order follows
// input order. Normalizing the output again yields the same questions.
func (n *Normalizer) Normalize(records []map[string]any) []Question {
	out, _ := n.NormalizeReport(records)
	return out
}

// NormalizeReport is Normalize plus the reason each dropped record failed.
func (n *Normalizer) NormalizeReport(records []map[string]any) ([]Question, []*RuleError) {
	var out []Question
	var dropped []*RuleError

	for i, rec := range records {
		if rec == nil {
			dropped = append(dropped, &RuleError{Rule: "record", Message: "record is not an object"})
			continue
		}
		q, rerr := n.normalizeOne(rec)
		if rerr != nil {
			n.log.Debug("dropping question record", "index", i, "rule", rerr.Rule, "reason", rerr.Message)
			dropped = append(dropped, rerr)
			continue
		}
		out = append(out, q)
	}
	return out, dropped
}

func (n *Normalizer) normalizeOne(rec map[string]any) (Question, *RuleError) {
	d := &Draft{Raw: rec, concepts: n.concepts}
	for _, r := range n.rules {
		if err := r.Apply(d); err != nil {
			return Question{}, err
		}
	}
	return d.Question, nil
}

// Records converts a decoded JSON value into question records. It accepts a
// list of objects, or an object holding one under "questions". Non-object
// list items become nil entries.
func Records(v any) ([]map[string]any, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i], _ = item.(map[string]any)
		}
		return out, true
	case map[string]any:
		if qs, ok := t["questions"]; ok {
			return Records(qs)
		}
		if _, ok := t["question"]; ok {
			return []map[string]any{t}, true
		}
	}
	return nil, false
}
