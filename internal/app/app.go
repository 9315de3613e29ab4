// Package app hosts the interactive quiz TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/notequiz/internal/quiz"
	"github.com/abhisek/notequiz/internal/router"
	"github.com/abhisek/notequiz/internal/screen"
	"github.com/abhisek/notequiz/internal/screens/session"
	"github.com/abhisek/notequiz/internal/screens/summary"
	"github.com/abhisek/notequiz/internal/ui/layout"
)

// ErrNoQuestions is returned by Run when there is nothing to ask.
var ErrNoQuestions = errors.New("no questions to ask")

// Options configures a TUI run.
type Options struct {
	Quiz      session.Quiz
	Questions []quiz.Question

	// Export writes the quiz to a file. Nil hides the export action.
	Export summary.Exporter
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	quiz   session.Quiz
	width  int
	height int
}

func newAppModel(ctx context.Context, opts Options) AppModel {
	first := session.New(ctx, opts.Quiz, opts.Questions, opts.Export)
	return AppModel{
		router: router.New(first),
		quiz:   opts.Quiz,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	stats := m.quiz.Stats()
	header := layout.RenderHeader(title, stats.Score, stats.Answered, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	var hints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = append(hints, p.KeyHints()...)
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run shows the questions one at a time until the user finishes or quits.
func Run(ctx context.Context, opts Options) error {
	if len(opts.Questions) == 0 {
		return ErrNoQuestions
	}
	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
