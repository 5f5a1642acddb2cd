package attempts

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
	"github.com/abhisek/quizpath/internal/screens/results"
	"github.com/abhisek/quizpath/internal/ui/layout"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

// Mode selects which attempts are listed.
type Mode int

const (
	InProgress Mode = iota
	Completed
)

// row is one listed attempt.
type row struct {
	id     int64
	title  string
	detail string
	result *quiz.AttemptResult
}

type loadedMsg struct {
	Rows []row
	Err  error
}

// AttemptsScreen lists the student's open or finished attempts.
type AttemptsScreen struct {
	deps     *screens.Deps
	mode     Mode
	rows     []row
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*AttemptsScreen)(nil)
var _ screen.KeyHintProvider = (*AttemptsScreen)(nil)
var _ screen.Refresher = (*AttemptsScreen)(nil)

// New creates the list for mode.
func New(deps *screens.Deps, mode Mode) *AttemptsScreen {
	return &AttemptsScreen{deps: deps, mode: mode}
}

func (s *AttemptsScreen) Init() tea.Cmd {
	api, mode := s.deps.API, s.mode
	return func() tea.Msg {
		ctx := context.Background()
		if mode == Completed {
			list, err := api.CompletedAttempts(ctx)
			if err != nil {
				return loadedMsg{Err: err}
			}
			return loadedMsg{Rows: completedRows(list)}
		}
		list, err := api.InProgressAttempts(ctx)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Rows: inProgressRows(list)}
	}
}

// Refresh reloads the list when an opened attempt returns here.
func (s *AttemptsScreen) Refresh() tea.Cmd { return s.Init() }

func inProgressRows(list []*quiz.Attempt) []row {
	rows := make([]row, 0, len(list))
	for _, a := range list {
		detail := fmt.Sprintf("started %s  %d/%d answered",
			a.StartedAt.Local().Format("Jan 02 15:04"), answered(a), len(a.Questions))
		rows = append(rows, row{id: a.ID, title: a.QuizTitle, detail: detail})
	}
	return rows
}

func answered(a *quiz.Attempt) int {
	n := 0
	for _, r := range a.Responses {
		if !r.Empty() {
			n++
		}
	}
	return n
}

func completedRows(list []*quiz.AttemptResult) []row {
	rows := make([]row, 0, len(list))
	for _, r := range list {
		when := r.StartedAt
		if r.CompletedAt != nil {
			when = *r.CompletedAt
		}
		detail := fmt.Sprintf("%s  %.0f%%  %d/%d correct",
			when.Local().Format("Jan 02 15:04"), r.Score, r.CorrectAnswers, r.TotalQuestions)
		rows = append(rows, row{id: r.AttemptID, title: r.QuizTitle, detail: detail, result: r})
	}
	return rows
}

func (s *AttemptsScreen) Title() string {
	if s.mode == Completed {
		return "Completed"
	}
	return "In Progress"
}

func (s *AttemptsScreen) KeyHints() []layout.KeyHint {
	action := "Resume"
	if s.mode == Completed {
		action = "Results"
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: action},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *AttemptsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = screens.Message(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.rows = msg.Rows
		if s.selected >= len(s.rows) {
			s.selected = max(len(s.rows)-1, 0)
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case "enter":
			return s, s.open()
		}
	}
	return s, nil
}

func (s *AttemptsScreen) open() tea.Cmd {
	if s.selected >= len(s.rows) {
		return nil
	}
	r := s.rows[s.selected]
	var next screen.Screen
	if r.result != nil {
		next = results.NewWithResult(r.result)
	} else {
		next = attemptscreen.New(s.deps, r.id)
	}
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *AttemptsScreen) View(width, height int) string {
	center := func(style lipgloss.Style, text string) string {
		return style.Width(width).Align(lipgloss.Center).Render(text)
	}
	if s.errMsg != "" {
		return center(lipgloss.NewStyle().Foreground(theme.Error), fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center(lipgloss.NewStyle().Foreground(theme.TextDim), "\n\n  Loading attempts...")
	}
	if len(s.rows) == 0 {
		empty := "\n\n  No attempts in progress. Join a quiz to start one."
		if s.mode == Completed {
			empty = "\n\n  No completed attempts yet."
		}
		return center(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true), empty)
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, r := range s.rows {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		line := fmt.Sprintf("%s#%d  %s  %s", prefix, r.id, r.title, r.detail)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}
