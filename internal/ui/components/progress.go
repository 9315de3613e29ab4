package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/notequiz/internal/ui/theme"
)

// ProgressBar shows how far through the quiz the user is.
type ProgressBar struct {
	Done  int
	Total int
	Width int
}

// View renders the bar followed by "done/total".
func (p ProgressBar) View() string {
	counter := fmt.Sprintf("  %d/%d", p.Done, p.Total)

	barWidth := p.Width - len(counter)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := 0
	if p.Total > 0 {
		filled = barWidth * p.Done / p.Total
	}
	filled = max(0, min(filled, barWidth))

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		theme.Subtitle.Render(counter)
}
