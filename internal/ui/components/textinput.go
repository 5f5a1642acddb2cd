package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

// Filter reports whether a typed character is kept.
type Filter func(r rune) bool

// Digits keeps 0-9.
func Digits(r rune) bool { return r >= '0' && r <= '9' }

// AccessCodeChars keeps ASCII letters and digits.
func AccessCodeChars(r rune) bool {
	return Digits(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// TextInput wraps bubbles/textinput with the app palette. Filter and Upper
// are applied to the whole value after every update, so pasted text is
// cleaned the same way as typed text.
type TextInput struct {
	Model     textinput.Model
	Filter    Filter
	Upper     bool
	submitted bool
	valid     bool
}

// NewTextInput creates a focused free-text input. limit caps the length;
// zero means unlimited.
func NewTextInput(placeholder string, limit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if limit > 0 {
		ti.CharLimit = limit
	}
	return TextInput{Model: ti}
}

// NewNumericInput accepts digits only.
func NewNumericInput(placeholder string, limit int) TextInput {
	t := NewTextInput(placeholder, limit)
	t.Filter = Digits
	return t
}

// NewCodeInput accepts letters and digits and upper-cases them, matching how
// access codes are handed out.
func NewCodeInput(placeholder string, limit int) TextInput {
	t := NewTextInput(placeholder, limit)
	t.Filter = AccessCodeChars
	t.Upper = true
	return t
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	before := t.Model.Value()
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	if v := t.clean(t.Model.Value()); v != t.Model.Value() {
		t.Model.SetValue(v)
	}
	if t.Model.Value() != before {
		t.submitted = false
	}
	return t, cmd
}

func (t TextInput) clean(v string) string {
	if t.Filter != nil {
		v = strings.Map(func(r rune) rune {
			if t.Filter(r) {
				return r
			}
			return -1
		}, v)
	}
	if t.Upper {
		v = strings.ToUpper(v)
	}
	return v
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.submitted {
		if t.valid {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// NumericValue returns the trimmed input value as an integer.
func (t TextInput) NumericValue() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(t.Model.Value()), 10, 64)
}

// Submit marks the input as submitted with a validation result. Editing the
// value clears the mark.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}
