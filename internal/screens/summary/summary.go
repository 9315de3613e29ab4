// Package summary is the TUI screen shown after the last question.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/notequiz/internal/pipeline"
	"github.com/abhisek/notequiz/internal/screen"
	"github.com/abhisek/notequiz/internal/ui/components"
	"github.com/abhisek/notequiz/internal/ui/layout"
	"github.com/abhisek/notequiz/internal/ui/theme"
)

// DefaultExportPath is suggested in the export prompt.
const DefaultExportPath = "quiz.yaml"

// Exporter writes the quiz to path.
type Exporter func(path string) error

type exportDoneMsg struct {
	Path string
	Err  error
}

// SummaryScreen shows the final score and offers to export the quiz.
type SummaryScreen struct {
	stats     pipeline.Stats
	export    Exporter
	menu      components.Menu
	input     components.TextInput
	prompting bool
	status    string
	statusErr bool
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates the screen. A nil export hides the export action.
func New(stats pipeline.Stats, export Exporter) *SummaryScreen {
	s := &SummaryScreen{stats: stats, export: export}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Export quiz to YAML", Disabled: export == nil, Action: s.startExport},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return s
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.prompting {
		return []layout.KeyHint{{Key: "Enter", Description: "Save"}, {Key: "Esc", Description: "Cancel"}}
	}
	return []layout.KeyHint{{Key: "↑↓", Description: "Navigate"}, {Key: "Enter", Description: "Select"}, {Key: "Q", Description: "Quit"}}
}

func (s *SummaryScreen) startExport() tea.Cmd {
	s.prompting = true
	s.status = ""
	s.input = components.NewTextInput("path/to/quiz.yaml", DefaultExportPath, 256)
	return s.input.Init()
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case exportDoneMsg:
		s.input.Submit(msg.Err == nil)
		if msg.Err != nil {
			s.status, s.statusErr = "Export failed: "+msg.Err.Error(), true
		} else {
			s.status, s.statusErr = "Quiz saved to "+msg.Path, false
			s.prompting = false
		}
		return s, nil

	case tea.KeyMsg:
		if s.prompting {
			return s.handlePromptKey(msg)
		}
		if k := msg.String(); k == "q" || k == "esc" {
			return s, tea.Quit
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}

	if s.prompting {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SummaryScreen) handlePromptKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.prompting = false
		return s, nil
	case "enter":
		path := strings.TrimSpace(s.input.Value())
		if path == "" {
			return s, nil
		}
		export := s.export
		return s, func() tea.Msg { return exportDoneMsg{Path: path, Err: export(path)} }
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SummaryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	st := s.stats

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Inherit(theme.Title).Render("Quiz complete!"))
	b.WriteString("\n\n")
	b.WriteString(center.Inherit(theme.Body).Render(fmt.Sprintf(
		"Correct: %d        Answered: %d of %d        Accuracy: %.2f%%",
		st.Score, st.Answered, st.TotalQuestions, st.Accuracy)))
	b.WriteString("\n")
	b.WriteString(center.Inherit(theme.Subtitle).Render(fmt.Sprintf(
		"LLM requests: %d   tokens: %d", st.LLM.Requests, st.LLM.TotalTokens)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, layout.Divider(min(width-8, 60))))
	b.WriteString("\n\n")

	if s.prompting {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Save to: "+s.input.View()))
	} else {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	}

	if s.status != "" {
		style := theme.Correct
		if s.statusErr {
			style = theme.Incorrect
		}
		b.WriteString("\n\n")
		b.WriteString(center.Inherit(style).Render(s.status))
	}
	return b.String()
}
