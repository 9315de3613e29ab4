package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func TestMultiChoice_ArrowsAndEnter(t *testing.T) {
	m := NewMultiChoice([]string{"Values", "Threads", "Locks"})

	var done bool
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	if m.Selected != 2 {
		t.Fatalf("selected = %d, want 2", m.Selected)
	}
	m, _ = m.Update(key("up"))
	m, done = m.Update(key("enter"))
	if !done || m.Choice() != "Threads" {
		t.Fatalf("done=%v choice=%q", done, m.Choice())
	}

	// Submitted selectors ignore further keys.
	m, done = m.Update(key("1"))
	if done || m.Choice() != "Threads" {
		t.Errorf("selector changed after submit")
	}
}

func TestMultiChoice_NumberKeys(t *testing.T) {
	m := NewMultiChoice([]string{"True", "False"})
	m, done := m.Update(key("3"))
	if done {
		t.Fatal("out-of-range number must not submit")
	}
	m, done = m.Update(key("2"))
	if !done || m.Choice() != "False" {
		t.Fatalf("done=%v choice=%q", done, m.Choice())
	}
}

func TestMultiChoice_Reveal(t *testing.T) {
	m := NewMultiChoice([]string{"Values", "Threads"})
	m.Reveal(" values ")
	if m.Correct != 0 {
		t.Errorf("correct = %d, want 0", m.Correct)
	}
	view := m.View()
	if !strings.Contains(view, "1) Values") || !strings.Contains(view, "2) Threads") {
		t.Errorf("view missing options:\n%s", view)
	}
}

func TestProgressBar(t *testing.T) {
	p := ProgressBar{Done: 2, Total: 5, Width: 30}
	if !strings.Contains(p.View(), "2/5") {
		t.Errorf("progress view missing counter: %q", p.View())
	}
	empty := ProgressBar{Width: 10}
	if !strings.Contains(empty.View(), "0/0") {
		t.Errorf("empty progress view: %q", empty.View())
	}
}

func TestMenu(t *testing.T) {
	var picked string
	m := NewMenu([]MenuItem{
		{Label: "Disabled", Disabled: true},
		{Label: "Export", Action: func() tea.Cmd { picked = "export"; return nil }},
		{Label: "Quit", Action: func() tea.Cmd { picked = "quit"; return nil }},
	})
	if m.Selected != 1 {
		t.Fatalf("selected = %d, want first enabled item", m.Selected)
	}
	m, _ = m.Update(key("up"))
	if m.Selected != 1 {
		t.Errorf("moved onto a disabled item")
	}
	m, _ = m.Update(key("down"))
	m.Update(key("enter"))
	if picked != "quit" {
		t.Errorf("picked = %q", picked)
	}
}
