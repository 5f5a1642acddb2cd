package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/store"
	"github.com/abhisek/quizpath/internal/ui/layout"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

// Limit caps how many attempts are listed.
const Limit = 50

type historyLoadedMsg struct {
	Attempts []store.AttemptSummary
	Events   map[int64][]store.Event // attempt id → journal entries
	Err      error
}

// HistoryScreen lists attempts recorded in the local journal.
type HistoryScreen struct {
	journal  store.EventRepo
	attempts []store.AttemptSummary
	events   map[int64][]store.Event
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(journal store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		journal:  journal,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		attempts, err := s.journal.Summaries(ctx, Limit)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		// Journal detail is optional; the summary list still shows without it.
		byAttempt := make(map[int64][]store.Event)
		for _, a := range attempts {
			evs, err := s.journal.Query(ctx, store.QueryOpts{AttemptID: a.AttemptID})
			if err != nil {
				break
			}
			byAttempt[a.AttemptID] = evs
		}

		return historyLoadedMsg{Attempts: attempts, Events: byAttempt}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
			s.events = msg.Events
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.attempts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No attempts recorded on this machine yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.attempts {
		dateStr := a.LastSeen.Local().Format("Jan 02, 2006")
		durationStr := fmt.Sprintf("%d:%02d", a.TotalRespTime/60, a.TotalRespTime%60)

		status := a.LastStatus
		if status == "" {
			status = "IN_PROGRESS"
		}

		failStr := ""
		if a.Failures > 0 {
			failStr = fmt.Sprintf("  %d failed save", a.Failures)
			if a.Failures > 1 {
				failStr += "s"
			}
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  #%d  %s  %d/%d correct  %s%s",
			prefix, dateStr, a.AttemptID, durationStr, a.Correct, a.Answers, status, failStr)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderEvents(a.AttemptID, width))
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderEvents(attemptID int64, width int) string {
	evs := s.events[attemptID]
	if len(evs) == 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
				Render("    No journal entries")) + "\n"
	}

	var b strings.Builder
	for _, e := range evs {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(eventColor(e)).Render("    "+describe(e))))
		b.WriteString("\n")
	}
	return b.String()
}

// describe renders one journal entry as a single line.
func describe(e store.Event) string {
	ts := e.Timestamp.Local().Format("15:04:05")
	switch {
	case e.Correct != nil && *e.Correct:
		return fmt.Sprintf("%s  %s  Q%d  correct (%ds)", ts, e.Kind, e.QuestionID, e.ResponseTime)
	case e.Correct != nil:
		return fmt.Sprintf("%s  %s  Q%d  incorrect (%ds)", ts, e.Kind, e.QuestionID, e.ResponseTime)
	case e.Difficulty != "" && e.QuestionID != 0:
		return fmt.Sprintf("%s  %s  Q%d  %s", ts, e.Kind, e.QuestionID, e.Difficulty)
	case e.Status != "":
		return fmt.Sprintf("%s  %s  %s", ts, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s  %s", ts, e.Kind)
}

func eventColor(e store.Event) color.Color {
	switch {
	case e.Correct != nil && *e.Correct:
		return theme.Success
	case e.Correct != nil, strings.Contains(e.Kind, "failed"), strings.Contains(e.Kind, "expired"):
		return theme.Error
	case strings.Contains(e.Kind, "difficulty"):
		return theme.Accent
	default:
		return theme.Text
	}
}
