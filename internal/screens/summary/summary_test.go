package summary

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/pipeline"
)

func testStats() pipeline.Stats {
	return pipeline.Stats{
		Score:          3,
		TotalQuestions: 5,
		Answered:       4,
		Accuracy:       75,
		LLM:            llm.UsageStats{Requests: 6, TotalTokens: 1200},
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSummaryView(t *testing.T) {
	s := New(testStats(), nil)
	view := s.View(100, 30)
	for _, want := range []string{"Quiz complete!", "Correct: 3", "Answered: 4 of 5", "75.00%", "LLM requests: 6", "Quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSummaryQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyPressMsg{{Code: 'q', Text: "q"}, {Code: tea.KeyEscape}} {
		s := New(testStats(), nil)
		_, cmd := s.Update(k)
		if !isQuit(cmd) {
			t.Errorf("key %q should quit", k.String())
		}
	}
}

func TestSummaryWithoutExporterSelectsQuit(t *testing.T) {
	s := New(testStats(), nil)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !isQuit(cmd) {
		t.Error("enter on the only enabled item should quit")
	}
}

func TestSummaryExport(t *testing.T) {
	var got string
	s := New(testStats(), func(path string) error {
		got = path
		return nil
	})

	// Export is the first item.
	scr, _ := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s = scr.(*SummaryScreen)
	if !s.prompting {
		t.Fatal("expected export prompt")
	}
	if s.input.Value() != DefaultExportPath {
		t.Errorf("default path = %q", s.input.Value())
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected export command")
	}
	s.Update(cmd())
	if got != DefaultExportPath {
		t.Errorf("exported to %q", got)
	}
	if s.prompting || !strings.Contains(s.View(100, 30), "Quiz saved to quiz.yaml") {
		t.Errorf("expected success status:\n%s", s.View(100, 30))
	}
}

func TestSummaryExportFailureKeepsPrompt(t *testing.T) {
	s := New(testStats(), func(string) error { return errors.New("read-only file system") })
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())

	if !s.prompting {
		t.Error("prompt should stay open after a failed export")
	}
	if !strings.Contains(s.View(100, 30), "read-only file system") {
		t.Errorf("missing error status:\n%s", s.View(100, 30))
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if s.prompting {
		t.Error("esc should close the prompt")
	}
}
