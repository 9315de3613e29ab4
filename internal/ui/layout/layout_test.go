package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{MinWidth, MinHeight, false},
		{MinWidth - 1, 40, true},
		{120, MinHeight - 1, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader("Quiz", 3, 4, 80)
	if !strings.Contains(h, "NoteQuiz") || !strings.Contains(h, "Quiz") || !strings.Contains(h, "✓ 3/4") {
		t.Errorf("header missing parts:\n%s", h)
	}
}

func TestRenderFrameHeight(t *testing.T) {
	header := RenderHeader("Quiz", 0, 0, 80)
	footer := RenderFooter([]KeyHint{{Key: "Enter", Description: "Submit"}}, 80)
	frame := RenderFrame(header, "body", footer, 80, 24)
	if got := lipgloss.Height(frame); got != 24 {
		t.Errorf("frame height = %d, want 24", got)
	}
}
