package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/ui/theme"
)

// ProgressBar is a horizontal meter. Value is clamped to [0, 1].
type ProgressBar struct {
	Label  string
	Value  float64
	Suffix string
	Width  int
	Fill   color.Color
}

// AnsweredBar shows how many of the attempt's questions have an answer.
func AnsweredBar(answered, total, width int) ProgressBar {
	v := 0.0
	if total > 0 {
		v = float64(answered) / float64(total)
	}
	return ProgressBar{
		Label:  "Answered",
		Value:  v,
		Suffix: fmt.Sprintf("%d/%d", answered, total),
		Width:  width,
		Fill:   theme.Secondary,
	}
}

// ScoreBar shows a percentage score coloured by band: green from 80,
// amber from 50, red below.
func ScoreBar(score float64, width int) ProgressBar {
	fill := theme.Error
	switch {
	case score >= 80:
		fill = theme.Success
	case score >= 50:
		fill = theme.Warning
	}
	return ProgressBar{
		Value:  score / 100,
		Suffix: fmt.Sprintf("%.0f%%", score),
		Width:  width,
		Fill:   fill,
	}
}

func (p ProgressBar) View() string {
	var prefix, suffix string
	if p.Label != "" {
		prefix = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	if p.Suffix != "" {
		suffix = "  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.Suffix)
	}

	barWidth := max(p.Width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 4)
	v := min(max(p.Value, 0), 1)
	filled := int(float64(barWidth)*v + 0.5)

	fill := p.Fill
	if fill == nil {
		fill = theme.Secondary
	}
	bar := lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	return prefix + bar + suffix
}
