package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

// ChoiceList renders answer options with a cursor. Selection state is owned
// by the caller and passed in through Selected before rendering.
type ChoiceList struct {
	Options  []string
	Cursor   int
	Multi    bool
	Selected map[int]bool
	Disabled bool
}

// NewChoiceList creates a list with the cursor on the first option.
func NewChoiceList(options []string, multi bool) ChoiceList {
	return ChoiceList{
		Options:  options,
		Multi:    multi,
		Selected: make(map[int]bool),
	}
}

// Update moves the cursor and reports the option picked by the key, or -1.
// Space and the digit keys pick.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, int) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || c.Disabled || len(c.Options) == 0 {
		return c, -1
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ":
		return c, c.Cursor
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(c.Options) {
				c.Cursor = i
				return c, i
			}
		}
	}
	return c, -1
}

// View renders the options.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor && !c.Disabled {
			prefix = "▸ "
		}
		mark := "( )"
		if c.Multi {
			mark = "[ ]"
		}
		if c.Selected[i] {
			mark = "(•)"
			if c.Multi {
				mark = "[x]"
			}
		}
		line := fmt.Sprintf("%s%s %d) %s", prefix, mark, i+1, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case c.Disabled:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		case c.Selected[i]:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
