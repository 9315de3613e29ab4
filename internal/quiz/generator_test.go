package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/notequiz/internal/llm"
)

func newTestGenerator(responses ...llm.MockResponse) (*Generator, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	client := llm.NewClient(mock, llm.ClientConfig{}, nil)
	return NewGenerator(client, GeneratorConfig{}, nil), mock
}

const fencedQuiz = "Here you go:\n```json\n" + `[
  {"question": "What is a goroutine?", "type": "mcq", "options": ["A thread", "A function running concurrently", "A lock"], "correct_answer": "b", "related_concept": "Goroutine"},
  {"question": "Channels are typed.", "type": "true_false", "options": null, "correct_answer": "true", "related_concept": "Channel"},
  {"question": "Broken", "type": "essay"},
  {"question": "What is a goroutine?", "type": "tf", "correct_answer": "yes"}
]` + "\n```\nEnjoy!"

func TestGenerator_Generate(t *testing.T) {
	g, mock := newTestGenerator(llm.MockText(fencedQuiz))

	got, err := g.Generate(context.Background(), testConcepts, []string{"Something unrelated entirely"}, Options{Count: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2: %+v", len(got), got)
	}
	if got[0].CorrectAnswer != "A function running concurrently" {
		t.Errorf("first answer = %q", got[0].CorrectAnswer)
	}
	if got[1].CodeContext != "ch := make(chan int)" {
		t.Errorf("code context missing: %+v", got[1])
	}

	if p := mock.Purposes(); len(p) != 1 || p[0] != llm.PurposeQuiz {
		t.Errorf("purposes = %v", p)
	}
	prompt := mock.Calls[0].Messages[0].Content
	for _, want := range []string{"Goroutine: A function running concurrently", "ch := make(chan int)", "Something unrelated entirely", "medium difficulty", "Write 5 unique questions"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerator_TruncatesToCount(t *testing.T) {
	g, _ := newTestGenerator(llm.MockText(`{"questions": [
		{"question": "One?", "type": "tf", "correct_answer": "true"},
		{"question": "Two different?", "type": "tf", "correct_answer": "false"},
		{"question": "Three again?", "type": "tf", "correct_answer": "true"}
	]}`))
	got, err := g.Generate(context.Background(), testConcepts, nil, Options{Count: 2, Difficulty: Hard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
}

func TestGenerator_HistoryFiltered(t *testing.T) {
	g, _ := newTestGenerator(llm.MockText(`[{"question": "Channels are typed.", "type": "tf", "correct_answer": "true"}]`))
	got, err := g.Generate(context.Background(), testConcepts, []string{"channels are typed."}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected history repeat to be dropped, got %+v", got)
	}
}

func TestGenerator_Errors(t *testing.T) {
	g, mock := newTestGenerator()

	if _, err := g.Generate(context.Background(), nil, nil, Options{}); !errors.Is(err, ErrNoConcepts) {
		t.Errorf("expected ErrNoConcepts, got %v", err)
	}
	if _, err := g.Generate(context.Background(), testConcepts, nil, Options{Count: 21}); err == nil {
		t.Error("expected count range error")
	}
	if _, err := g.Generate(context.Background(), testConcepts, nil, Options{Difficulty: "brutal"}); err == nil {
		t.Error("expected difficulty error")
	}
	if mock.CallCount() != 0 {
		t.Errorf("invalid input should not reach the model, got %d calls", mock.CallCount())
	}

	mock.AddResponse(llm.MockText(`"just a string"`))
	if _, err := g.Generate(context.Background(), testConcepts, nil, Options{}); err == nil {
		t.Error("expected shape error")
	}
}

func TestOptionsValidate(t *testing.T) {
	o := Options{}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if o.Count != DefaultCount || o.Difficulty != Medium || o.Language != "english" {
		t.Errorf("defaults not applied: %+v", o)
	}
}
