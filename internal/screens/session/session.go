// Package session is the TUI screen that asks the quiz questions.
package session

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/notequiz/internal/pipeline"
	"github.com/abhisek/notequiz/internal/quiz"
	"github.com/abhisek/notequiz/internal/router"
	"github.com/abhisek/notequiz/internal/screen"
	"github.com/abhisek/notequiz/internal/screens/summary"
	"github.com/abhisek/notequiz/internal/ui/components"
	"github.com/abhisek/notequiz/internal/ui/layout"
	"github.com/abhisek/notequiz/internal/ui/theme"
)

// Quiz scores answers. *pipeline.Coordinator implements it.
type Quiz interface {
	SubmitAnswer(ctx context.Context, questionID, answer string) pipeline.AnswerResult
	Stats() pipeline.Stats
}

type phase int

const (
	phaseAsking phase = iota
	phaseChecking
	phaseFeedback
	phaseConfirmQuit
)

// answerResultMsg carries the verdict of an asynchronous SubmitAnswer.
type answerResultMsg struct {
	Result pipeline.AnswerResult
}

// SessionScreen walks through the questions one at a time.
type SessionScreen struct {
	ctx       context.Context
	quiz      Quiz
	questions []quiz.Question
	export    summary.Exporter

	index  int
	choice components.MultiChoice
	phase  phase
	last   pipeline.AnswerResult
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates the screen. export may be nil to hide the export action on
// the summary screen.
func New(ctx context.Context, q Quiz, questions []quiz.Question, export summary.Exporter) *SessionScreen {
	s := &SessionScreen{ctx: ctx, quiz: q, questions: questions, export: export}
	s.resetChoice()
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	return nil
}

func (s *SessionScreen) Title() string {
	return fmt.Sprintf("Question %d of %d", min(s.index+1, len(s.questions)), len(s.questions))
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseConfirmQuit:
		return []layout.KeyHint{{Key: "Y", Description: "End quiz"}, {Key: "N", Description: "Keep going"}}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseChecking:
		return nil
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "1-9", Description: "Answer"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *SessionScreen) current() *quiz.Question {
	if s.index < 0 || s.index >= len(s.questions) {
		return nil
	}
	return &s.questions[s.index]
}

func (s *SessionScreen) resetChoice() {
	if q := s.current(); q != nil {
		s.choice = components.NewMultiChoice(q.Options)
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerResultMsg:
		s.last = msg.Result
		s.choice.Reveal(msg.Result.CorrectAnswer)
		s.phase = phaseFeedback
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseChecking:
		return s, nil

	case phaseConfirmQuit:
		switch key {
		case "y", "Y":
			return s, s.finish()
		case "n", "N", "esc":
			s.phase = phaseAsking
		}
		return s, nil

	case phaseFeedback:
		s.index++
		if s.current() == nil {
			return s, s.finish()
		}
		s.resetChoice()
		s.phase = phaseAsking
		return s, nil
	}

	if key == "esc" || key == "q" {
		s.phase = phaseConfirmQuit
		return s, nil
	}

	var chosen bool
	s.choice, chosen = s.choice.Update(msg)
	if !chosen {
		return s, nil
	}
	s.phase = phaseChecking
	return s, s.submit(s.current().ID, s.choice.Choice())
}

func (s *SessionScreen) submit(id, answer string) tea.Cmd {
	ctx, q := s.ctx, s.quiz
	return func() tea.Msg {
		return answerResultMsg{Result: q.SubmitAnswer(ctx, id, answer)}
	}
}

func (s *SessionScreen) finish() tea.Cmd {
	next := summary.New(s.quiz.Stats(), s.export)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *SessionScreen) View(width, height int) string {
	q := s.current()
	if q == nil {
		return ""
	}
	if s.phase == phaseConfirmQuit {
		return renderQuitConfirm(width)
	}

	inner := min(width-4, 90)
	var b strings.Builder

	bar := components.ProgressBar{Done: s.index, Total: len(s.questions), Width: inner}
	b.WriteString(bar.View())
	b.WriteString("\n")
	b.WriteString(layout.Divider(inner))
	b.WriteString("\n\n")

	if q.RelatedConcept != "" && q.RelatedConcept != quiz.GeneralConcept {
		b.WriteString(theme.Subtitle.Render("Concept: " + q.RelatedConcept))
		b.WriteString("\n\n")
	}
	b.WriteString(theme.Question.Width(inner).Render(q.Text))
	b.WriteString("\n\n")
	if q.CodeContext != "" {
		b.WriteString(theme.Code.Render(q.CodeContext))
		b.WriteString("\n\n")
	}

	b.WriteString(s.choice.View())
	b.WriteString("\n")

	switch s.phase {
	case phaseChecking:
		b.WriteString(theme.Hint.Render("Checking your answer..."))
	case phaseFeedback:
		b.WriteString(s.renderFeedback(inner))
	}

	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (s *SessionScreen) renderFeedback(width int) string {
	res := s.last
	var b strings.Builder

	switch res.Status {
	case pipeline.AnswerCorrect:
		b.WriteString(theme.Correct.Render("Correct!"))
	case pipeline.AnswerIncorrect:
		b.WriteString(theme.Incorrect.Render("Not quite."))
		b.WriteString(" ")
		b.WriteString(theme.Subtitle.Render("Correct answer: " + res.CorrectAnswer))
	default:
		b.WriteString(theme.Incorrect.Render(res.Message))
	}
	b.WriteString("\n")

	if res.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(theme.Explanation.Width(width).Render(res.Explanation))
		b.WriteString("\n")
	}
	if res.MnemonicImage != "" {
		b.WriteString("\n")
		b.WriteString(theme.Mnemonic.Width(width).Render("Picture this: " + res.MnemonicImage))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	return "\n\n\n" +
		center.Inherit(theme.Question).Render("End the quiz early?") + "\n" +
		center.Inherit(theme.Subtitle).Render("Your score so far will be kept.") + "\n\n" +
		center.Foreground(theme.Success).Render("[Y] Yes, show results") + "\n" +
		center.Foreground(theme.Primary).Render("[N] No, keep going")
}
