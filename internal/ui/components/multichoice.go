package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/notequiz/internal/ui/theme"
)

// MultiChoice is a numbered option selector. Options are picked with the
// arrow keys and Enter, or directly with their number.
type MultiChoice struct {
	Options   []string
	Selected  int
	Submitted bool

	// Correct is the index of the right option once Reveal is called, or -1.
	Correct int
}

// NewMultiChoice creates a selector with the first option highlighted.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options, Correct: -1}
}

// Update handles navigation. It reports true when an option was chosen.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, bool) {
	if m.Submitted {
		return m, false
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = len(m.Options) > 0
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
			m.Selected = n - 1
			m.Submitted = true
		}
	}
	return m, m.Submitted
}

// Choice returns the highlighted option.
func (m MultiChoice) Choice() string {
	if m.Selected < 0 || m.Selected >= len(m.Options) {
		return ""
	}
	return m.Options[m.Selected]
}

// Reveal marks the option equal to answer, ignoring case, as correct.
func (m *MultiChoice) Reveal(answer string) {
	for i, o := range m.Options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(answer)) {
			m.Correct = i
			return
		}
	}
}

// View renders the options, colored by outcome after Reveal.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt)

		switch {
		case m.Submitted && i == m.Correct:
			line = theme.Correct.Render(line)
		case m.Submitted && i == m.Selected:
			line = theme.Incorrect.Render(line)
		case m.Submitted:
			line = theme.Subtitle.Render(line)
		case i == m.Selected:
			line = theme.Selected.Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
