package components

import (
	"strings"

	"github.com/abhisek/quizpath/internal/ui/layout"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

// Button is a one-key action shown in dialogs, e.g. "[Y] Submit".
type Button struct {
	Key     string
	Label   string
	Primary bool
}

func NewButton(key, label string, primary bool) Button {
	return Button{Key: key, Label: label, Primary: primary}
}

// Matches reports whether a pressed key triggers the button. Letters match
// in either case.
func (b Button) Matches(key string) bool {
	return strings.EqualFold(key, b.Key)
}

// Hint is the footer entry for the button.
func (b Button) Hint() layout.KeyHint {
	return layout.KeyHint{Key: b.Key, Description: b.Label}
}

func (b Button) View() string {
	label := "[" + b.Key + "] " + b.Label
	if b.Primary {
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Render(label)
}
