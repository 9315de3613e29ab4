package quiz

import (
	"fmt"
	"strings"
)

// Rule checks or repairs one aspect of a raw question record.
// Implementations should be stateless and safe for concurrent use.
type Rule interface {
	// Name returns a short identifier used in logs, e.g. "text", "type".
	Name() string

	// Apply inspects d.Raw and fills or fixes d.Question. A non-nil error
	// drops the record.
	Apply(d *Draft) *RuleError
}

// RuleError describes why a record was dropped.
type RuleError struct {
	Rule    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Message)
}

// Draft is the working state threaded through the rules for one record.
type Draft struct {
	Raw      map[string]any
	Question Question

	concepts map[string]Concept
}

// Concept looks up a concept by term, case-insensitively.
func (d *Draft) Concept(term string) (Concept, bool) {
	c, ok := d.concepts[foldKey(term)]
	return c, ok
}

// str returns the first non-empty string value among keys.
func (d *Draft) str(keys ...string) string {
	for _, k := range keys {
		if s := stringify(d.Raw[k]); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders scalar JSON values as trimmed strings.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%g", t))
	case int:
		return fmt.Sprintf("%d", t)
	}
	return ""
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
