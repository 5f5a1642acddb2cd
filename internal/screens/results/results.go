package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/ui/components"
	"github.com/abhisek/quizpath/internal/ui/layout"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

type resultLoadedMsg struct {
	Result *quiz.AttemptResult
	Err    error
}

// ResultsScreen displays a graded attempt.
type ResultsScreen struct {
	deps      *screens.Deps
	attemptID int64
	result    *quiz.AttemptResult
	offset    int
	errMsg    string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a screen that fetches the results of attemptID.
func New(deps *screens.Deps, attemptID int64) *ResultsScreen {
	return &ResultsScreen{deps: deps, attemptID: attemptID}
}

// NewWithResult shows an already fetched result.
func NewWithResult(r *quiz.AttemptResult) *ResultsScreen {
	return &ResultsScreen{attemptID: r.AttemptID, result: r}
}

func (s *ResultsScreen) Init() tea.Cmd {
	if s.result != nil || s.deps == nil {
		return nil
	}
	api, id := s.deps.API, s.attemptID
	return func() tea.Msg {
		r, err := api.Results(context.Background(), id)
		return resultLoadedMsg{Result: r, Err: err}
	}
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "Dashboard"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultLoadedMsg:
		if msg.Err != nil {
			s.errMsg = screens.Message(msg.Err)
			return s, nil
		}
		s.result = msg.Result
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.result != nil && s.offset < len(s.result.Questions)-1 {
				s.offset++
			}
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return components.Centered(fmt.Sprintf("\n\n\nError: %s", s.errMsg), width,
			lipgloss.NewStyle().Foreground(theme.Error))
	}
	r := s.result
	if r == nil {
		return components.Centered("\n\n\n  Loading results...", width,
			lipgloss.NewStyle().Foreground(theme.TextDim))
	}

	var b strings.Builder
	b.WriteString(components.Centered(r.QuizTitle, width, theme.Title))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Score: %.0f%%        Correct: %d/%d        Time: %s",
		r.Score, r.CorrectAnswers, r.TotalQuestions, screens.Clock(time.Duration(r.AttemptTime)*time.Second))
	b.WriteString(components.Centered(stats, width, lipgloss.NewStyle().Foreground(theme.Text)))
	b.WriteString("\n")

	cw := components.ContentWidth(width)
	bar := components.ScoreBar(r.Score, cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	// Each question takes a few lines; show what fits.
	used := lipgloss.Height(b.String())
	for i := s.offset; i < len(r.Questions); i++ {
		block := renderQuestion(i, r.Questions[i], cw)
		if used+lipgloss.Height(block) > height && i > s.offset {
			break
		}
		used += lipgloss.Height(block)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, block))
		b.WriteString("\n")
	}
	return b.String()
}

func renderQuestion(i int, q quiz.QuestionResult, cw int) string {
	mark := theme.Incorrect.Render("✗")
	if q.IsCorrect {
		mark = theme.Correct.Render("✓")
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, q.Text))

	if q.Type == quiz.OpenEnded {
		answer := q.TextResponse
		if answer == "" {
			answer = "(no answer)"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("    " + answer))
		b.WriteString("\n")
	}
	for _, a := range q.Answers {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		prefix := "    "
		switch {
		case a.IsCorrect:
			style = lipgloss.NewStyle().Foreground(theme.Success)
			prefix = "  ✓ "
		case a.IsSelected:
			style = lipgloss.NewStyle().Foreground(theme.Error)
			prefix = "  ✗ "
		}
		if a.IsSelected {
			prefix = strings.Replace(prefix, "  ", " >", 1)
		}
		b.WriteString(style.Render(prefix + a.Text))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(cw).Render(strings.TrimRight(b.String(), "\n"))
}
