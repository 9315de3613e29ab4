package quiz

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testConcepts = []Concept{
	{Term: "Goroutine", Definition: "A function running concurrently with others."},
	{Term: "Channel", Definition: "A typed conduit for values.", CodeSnippet: "ch := make(chan int)"},
}

func TestNormalize_MultipleChoice(t *testing.T) {
	n := NewNormalizer(testConcepts, nil)
	got := n.Normalize([]map[string]any{{
		"question":        "  What does a channel carry?  ",
		"type":            "mcq",
		"options":         []any{"Values", "values", "", "Threads", "Locks"},
		"correct_answer":  "VALUES",
		"related_concept": "channel",
	}})

	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1", len(got))
	}
	q := got[0]
	if q.Text != "What does a channel carry?" {
		t.Errorf("text = %q", q.Text)
	}
	if q.Type != MultipleChoice {
		t.Errorf("type = %q", q.Type)
	}
	if diff := cmp.Diff([]string{"Values", "Threads", "Locks"}, q.Options); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
	if q.CorrectAnswer != "Values" {
		t.Errorf("correct answer = %q, want exact option text", q.CorrectAnswer)
	}
	if q.ConceptDefinition != "A typed conduit for values." || q.CodeContext != "ch := make(chan int)" {
		t.Errorf("context not attached: %+v", q)
	}
	if q.ID == "" {
		t.Error("expected a generated question_id")
	}
}

func TestNormalize_AnswerReferences(t *testing.T) {
	n := NewNormalizer(nil, nil)
	opts := []any{"red", "green", "blue"}

	tests := []struct {
		answer string
		want   string
		drop   bool
	}{
		{"b", "green", false},
		{"C)", "blue", false},
		{"1", "red", false},
		{"Blue", "blue", false},
		{"d", "", true},
		{"4", "", true},
		{"purple", "", true},
	}
	for _, tt := range tests {
		got := n.Normalize([]map[string]any{{
			"question": "Pick a colour", "type": "multiple_choice",
			"options": opts, "correct_answer": tt.answer,
		}})
		if tt.drop {
			if len(got) != 0 {
				t.Errorf("answer %q: expected drop, got %+v", tt.answer, got)
			}
			continue
		}
		if len(got) != 1 || got[0].CorrectAnswer != tt.want {
			t.Errorf("answer %q: got %+v, want %q", tt.answer, got, tt.want)
		}
	}
}

func TestNormalize_TrueFalse(t *testing.T) {
	n := NewNormalizer(nil, nil)

	tests := []struct {
		answer any
		want   string
	}{
		{"yes", "True"},
		{true, "True"},
		{"Верно", "True"},
		{"0", "False"},
		{false, "False"},
		{"ложь", "False"},
	}
	for _, tt := range tests {
		got := n.Normalize([]map[string]any{{
			"question": "Goroutines are OS threads.", "type": "boolean",
			"options": []any{"maybe"}, "correct_answer": tt.answer,
		}})
		if len(got) != 1 {
			t.Fatalf("answer %v: dropped", tt.answer)
		}
		if got[0].CorrectAnswer != tt.want {
			t.Errorf("answer %v: got %q, want %q", tt.answer, got[0].CorrectAnswer, tt.want)
		}
		if diff := cmp.Diff([]string{"True", "False"}, got[0].Options); diff != "" {
			t.Errorf("options (-want +got):\n%s", diff)
		}
		if got[0].RelatedConcept != GeneralConcept {
			t.Errorf("related concept = %q, want %q", got[0].RelatedConcept, GeneralConcept)
		}
	}

	if got := n.Normalize([]map[string]any{{"question": "Q", "type": "tf", "correct_answer": "perhaps"}}); len(got) != 0 {
		t.Errorf("expected non-boolean answer to be dropped, got %+v", got)
	}
}

func TestNormalize_Drops(t *testing.T) {
	n := NewNormalizer(nil, nil)
	records := []map[string]any{
		nil,
		{"question": "   ", "type": "tf", "correct_answer": "true"},
		{"question": "Q1", "type": "essay", "correct_answer": "x"},
		{"question": "Q2", "type": "multiple_choice", "options": "a,b", "correct_answer": "a"},
		{"question": "Q3", "type": "multiple_choice", "options": []any{"same", "SAME"}, "correct_answer": "same"},
		{"question": "Q4", "options": []any{"x"}, "correct_answer": "x"},
	}
	got, dropped := n.NormalizeReport(records)
	if len(got) != 0 {
		t.Fatalf("expected all dropped, got %+v", got)
	}
	wantRules := []string{"record", "text", "type", "multiple_choice", "multiple_choice", "type"}
	var gotRules []string
	for _, d := range dropped {
		gotRules = append(gotRules, d.Rule)
	}
	if diff := cmp.Diff(wantRules, gotRules); diff != "" {
		t.Errorf("drop reasons (-want +got):\n%s", diff)
	}
}

func TestNormalize_FieldAliasesAndInference(t *testing.T) {
	n := NewNormalizer(nil, nil)
	got := n.Normalize([]map[string]any{
		{"question_text": "Alias text", "options": []any{"a1", "a2"}, "correct_answer": "a2"},
		{"text": "Inferred tf", "correct_answer": "false"},
	})
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	if got[0].Type != MultipleChoice || got[0].Text != "Alias text" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Type != TrueFalse || got[1].CorrectAnswer != "False" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestNormalize_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("ж", MaxQuestionRunes+50)
	got := NewNormalizer(nil, nil).Normalize([]map[string]any{{
		"question": long, "type": "tf", "correct_answer": "true",
	}})
	if len(got) != 1 {
		t.Fatal("dropped")
	}
	if n := len([]rune(got[0].Text)); n != MaxQuestionRunes {
		t.Errorf("text has %d runes, want %d", n, MaxQuestionRunes)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(testConcepts, nil)
	first := n.Normalize([]map[string]any{
		{"question": "What is a goroutine?", "type": "choice", "options": []any{" A thread ", "A function running concurrently", "A lock"}, "correct_answer": "b", "related_concept": "Goroutine"},
		{"question": "Channels are typed.", "type": "true/false", "correct_answer": "да", "related_concept": "Channel"},
		{"question": strings.Repeat("x ", 200), "type": "tf", "correct_answer": "no"},
		{"question": "Unknown concept", "type": "tf", "correct_answer": "no", "related_concept": "Mutex", "concept_definition": "kept"},
	})
	if len(first) != 4 {
		t.Fatalf("got %d, want 4", len(first))
	}

	records := make([]map[string]any, len(first))
	for i, q := range first {
		records[i] = q.Record()
	}
	second := n.Normalize(records)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass changed questions (-first +second):\n%s", diff)
	}
}

func TestQuestionInvariants(t *testing.T) {
	n := NewNormalizer(nil, nil)
	qs := n.Normalize([]map[string]any{
		{"question": "A", "type": "mcq", "options": []any{"1", "2", "2", "3"}, "correct_answer": "3"},
		{"question": "B", "type": "bool", "correct_answer": "yes"},
	})
	for _, q := range qs {
		found := false
		seen := map[string]bool{}
		for _, o := range q.Options {
			if seen[strings.ToLower(o)] {
				t.Errorf("%q has duplicate option %q", q.Text, o)
			}
			seen[strings.ToLower(o)] = true
			if o == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			t.Errorf("%q: correct answer %q not in options %v", q.Text, q.CorrectAnswer, q.Options)
		}
		if q.Type == MultipleChoice && len(q.Options) < 2 {
			t.Errorf("%q: too few options", q.Text)
		}
	}
}

func TestRecords(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"list", []any{map[string]any{"question": "a"}, "junk"}, 2, true},
		{"wrapped", map[string]any{"questions": []any{map[string]any{"question": "a"}}}, 1, true},
		{"single", map[string]any{"question": "a"}, 1, true},
		{"other object", map[string]any{"foo": 1}, 0, false},
		{"scalar", "text", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Records(tt.in)
			if ok != tt.ok || len(got) != tt.want {
				t.Errorf("Records = %d, %v; want %d, %v", len(got), ok, tt.want, tt.ok)
			}
		})
	}
}

type rejectAll struct{}

func (rejectAll) Name() string { return "reject" }
func (rejectAll) Apply(*Draft) *RuleError {
	return &RuleError{Rule: "reject", Message: "no"}
}

func TestCustomRuleChain(t *testing.T) {
	n := NewNormalizerWithRules(append(DefaultRules(), rejectAll{}), nil, nil)
	got, dropped := n.NormalizeReport([]map[string]any{{"question": "Q", "type": "tf", "correct_answer": "true"}})
	if len(got) != 0 || len(dropped) != 1 || dropped[0].Error() != `rule "reject": no` {
		t.Errorf("got %v, dropped %v", got, dropped)
	}
}
