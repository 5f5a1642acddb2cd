package components

import (
	"image/color"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestChoiceList_Navigation(t *testing.T) {
	c := NewChoiceList([]string{"a", "b", "c"}, false)

	c, picked := c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if picked != -1 || c.Cursor != 1 {
		t.Fatalf("after down: cursor=%d picked=%d", c.Cursor, picked)
	}
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if c.Cursor != 2 {
		t.Errorf("cursor should clamp at 2, got %d", c.Cursor)
	}
	c, _ = c.Update(key('k'))
	if c.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", c.Cursor)
	}
}

func TestChoiceList_Pick(t *testing.T) {
	c := NewChoiceList([]string{"a", "b", "c"}, true)

	c, picked := c.Update(key('3'))
	if picked != 2 || c.Cursor != 2 {
		t.Errorf("digit pick: cursor=%d picked=%d", c.Cursor, picked)
	}
	_, picked = c.Update(key('9'))
	if picked != -1 {
		t.Errorf("out of range digit picked %d", picked)
	}
	_, picked = c.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if picked != 2 {
		t.Errorf("space picked %d, want 2", picked)
	}
}

func TestChoiceList_Disabled(t *testing.T) {
	c := NewChoiceList([]string{"a", "b"}, false)
	c.Disabled = true
	c, picked := c.Update(key('1'))
	if picked != -1 || c.Cursor != 0 {
		t.Errorf("disabled list reacted: cursor=%d picked=%d", c.Cursor, picked)
	}
}

func TestChoiceList_View(t *testing.T) {
	c := NewChoiceList([]string{"alpha", "beta"}, true)
	c.Selected[1] = true
	v := c.View()
	if !strings.Contains(v, "[x] 2) beta") {
		t.Errorf("selected multi option not marked:\n%s", v)
	}
	if !strings.Contains(v, "[ ] 1) alpha") {
		t.Errorf("unselected multi option not marked:\n%s", v)
	}
}

func TestMenu_SkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "on"},
		{Label: "off2", Disabled: true},
		{Label: "last"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("selection = %d, want 3", m.Selected)
	}
}

func TestTextInput_NumericOnly(t *testing.T) {
	ti := NewNumericInput("quiz id", 6)
	ti, _ = ti.Update(key('4'))
	ti, _ = ti.Update(key('x'))
	ti, _ = ti.Update(key('2'))
	if ti.Value() != "42" {
		t.Errorf("value = %q, want 42", ti.Value())
	}
	n, err := ti.NumericValue()
	if err != nil || n != 42 {
		t.Errorf("NumericValue = %d, %v", n, err)
	}
}

func TestTextInput_SubmitMarkClearsOnEdit(t *testing.T) {
	ti := NewTextInput("code", 6)
	ti, _ = ti.Update(key('A'))
	ti.Submit(false)
	if !strings.Contains(ti.View(), "✗") {
		t.Fatal("expected rejected mark after Submit(false)")
	}
	ti, _ = ti.Update(key('B'))
	if strings.Contains(ti.View(), "✗") {
		t.Error("mark should clear once the value changes")
	}
}

func TestMenu_DigitShortcut(t *testing.T) {
	ran := ""
	item := func(label string, disabled bool) MenuItem {
		return MenuItem{Label: label, Disabled: disabled, Action: func() tea.Cmd {
			ran = label
			return nil
		}}
	}
	m := NewMenu([]MenuItem{item("join", false), item("history", true), item("exit", false)})

	m, _ = m.Update(key('2'))
	if ran != "" || m.Selected != 0 {
		t.Errorf("disabled shortcut ran %q, selected %d", ran, m.Selected)
	}
	m, _ = m.Update(key('3'))
	if ran != "exit" || m.Selected != 2 {
		t.Errorf("shortcut ran %q, selected %d; want exit at 2", ran, m.Selected)
	}
}

func TestButton_Matches(t *testing.T) {
	b := NewButton("Y", "Submit", true)
	if !b.Matches("y") || !b.Matches("Y") || b.Matches("n") {
		t.Error("button should match its key in either case only")
	}
	if !strings.Contains(b.View(), "[Y] Submit") {
		t.Errorf("view = %q", b.View())
	}
}

func TestScoreBar_Bands(t *testing.T) {
	tests := []struct {
		score float64
		want  color.Color
	}{
		{95, theme.Success},
		{80, theme.Success},
		{60, theme.Warning},
		{10, theme.Error},
	}
	for _, tt := range tests {
		if got := ScoreBar(tt.score, 40).Fill; got != tt.want {
			t.Errorf("ScoreBar(%v).Fill = %v, want %v", tt.score, got, tt.want)
		}
	}
	if !strings.Contains(AnsweredBar(3, 10, 40).View(), "3/10") {
		t.Error("answered bar missing count")
	}
}
