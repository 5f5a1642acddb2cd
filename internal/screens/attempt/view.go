package attempt

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	att "github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/ui/components"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

func (s *AttemptScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.expired:
		return renderExpired(width)
	case s.sess == nil:
		return renderLoading(width)
	case s.confirming:
		return renderConfirm(width, s.sess.AnsweredCount(), s.sess.Total())
	}
	return s.renderQuestionView(width)
}

// renderQuestionView renders the current question with its answer widget.
func (s *AttemptScreen) renderQuestionView(width int) string {
	q := s.sess.Current()
	var b strings.Builder

	position := fmt.Sprintf("  Question %d", s.sess.Index()+1)
	if !s.sess.Adaptive() {
		position += fmt.Sprintf(" of %d", s.sess.Total())
	}
	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(position)
	infoRight := difficultyBadge(q.Difficulty)
	if s.sess.Adaptive() {
		st := s.sess.Builder().Streak()
		infoRight += lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("  streak +%d/-%d", st.Correct, st.Wrong))
	}

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text))
	b.WriteString("\n")
	if q.MultipleChoice() {
		b.WriteString(components.Centered("Select all that apply", width, theme.Hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if q.OpenEnded() {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + s.input.View()))
	} else {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choices.View()))
	}
	b.WriteString("\n\n")

	if msg := s.sess.QuestionError(q.ID); msg != "" {
		b.WriteString(components.Centered(msg, width, theme.Incorrect))
		b.WriteString("\n")
	}
	if s.failure != "" {
		b.WriteString(components.Centered(s.failure, width, theme.Incorrect))
		b.WriteString("\n")
	}
	if s.notice != "" {
		b.WriteString(components.Centered(s.notice, width, theme.Notice))
		b.WriteString("\n")
	}
	if s.busy != "" {
		b.WriteString(components.Centered(s.busy, width, theme.Hint))
		b.WriteString("\n")
	}

	cw := components.ContentWidth(width)
	bar := components.AnsweredBar(s.sess.AnsweredCount(), s.sess.Total(), cw)
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))

	return b.String()
}

func difficultyBadge(d quiz.Difficulty) string {
	switch d {
	case quiz.Easy:
		return theme.Easy.Render("EASY")
	case quiz.Medium:
		return theme.Medium.Render("MEDIUM")
	case quiz.Hard:
		return theme.Hard.Render("HARD")
	}
	return ""
}

var (
	confirmYes = components.NewButton("Y", "Submit", true)
	confirmNo  = components.NewButton("N", "Keep answering", false)
)

// renderConfirm asks before submitting with unanswered questions.
func renderConfirm(width, answered, total int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(min(width-8, 60)).
		Foreground(theme.Text).
		Bold(true).
		Render(att.ConfirmMessage(answered, total)))
	block := b.String()

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, confirmYes.View(), "  ", confirmNo.View())

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n\n" +
		lipgloss.PlaceHorizontal(width, lipgloss.Center, buttons)
}

// renderExpired is the terminal state after the session closed.
func renderExpired(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(components.Centered(att.ExpiredMessage, width, theme.Incorrect))
	b.WriteString("\n\n")
	b.WriteString(components.Centered("Your saved answers are kept on the server.", width,
		lipgloss.NewStyle().Foreground(theme.TextDim)))
	b.WriteString("\n")
	b.WriteString(components.Centered("Press any key to return to the dashboard.", width, theme.Hint))
	return b.String()
}

func renderLoading(width int) string {
	return components.Centered("\n\n\n  Loading attempt...", width,
		lipgloss.NewStyle().Foreground(theme.TextDim))
}

func renderError(width int, errMsg string) string {
	return components.Centered(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", errMsg), width,
		lipgloss.NewStyle().Foreground(theme.Error))
}
