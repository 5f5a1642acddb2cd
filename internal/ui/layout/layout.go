// Package layout draws the chrome around every screen: a header with the
// screen title and its status (the attempt clock), and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	// Both bars are one line of text inside a rounded border.
	HeaderHeight = 3
	FooterHeight = 3
)

const brand = "quizpath"

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// ContentHeight is what remains for the screen between header and footer.
func ContentHeight(totalHeight int) int {
	return max(totalHeight-HeaderHeight-FooterHeight, 0)
}

func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal too small\n\nquizpath needs %d x %d\nCurrent: %d x %d",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(msg))
}

// RenderHeader puts the brand on the left, the title in the middle and
// status on the right. status may be empty.
func RenderHeader(title, status string, width int) string {
	inner := max(width-4, 0)

	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(brand)
	mid := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(status)

	// Center the title on the bar, not on the space between the sides.
	lw, mw, rw := lipgloss.Width(left), lipgloss.Width(mid), lipgloss.Width(right)
	gapL := max((inner-mw)/2-lw, 1)
	gapR := max(inner-lw-gapL-mw-rw, 1)
	line := left + strings.Repeat(" ", gapL) + mid + strings.Repeat(" ", gapR) + right

	return bar(" "+line, width)
}

// RenderFooter lists key hints separated by dots.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	sep := lipgloss.NewStyle().Foreground(theme.Border).Render("  ·  ")

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
	}
	return bar("  "+strings.Join(parts, sep), width)
}

// RenderFrame stacks header, content and footer, sizing the content to fill
// whatever height the bars leave.
func RenderFrame(header, content, footer string, width, height int) string {
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(h).MaxHeight(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func bar(line string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(line)
}
