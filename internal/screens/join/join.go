package join

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	att "github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
	"github.com/abhisek/quizpath/internal/ui/components"
	"github.com/abhisek/quizpath/internal/ui/layout"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

const (
	fieldQuiz = iota
	fieldCode
)

type joinedMsg struct {
	AttemptID int64
	Err       error
}

// JoinScreen asks for a quiz id and the access code handed out by the
// teacher, then opens the attempt.
type JoinScreen struct {
	deps   *screens.Deps
	fields [2]components.TextInput
	focus  int
	busy   bool
	errMsg string
}

var _ screen.Screen = (*JoinScreen)(nil)
var _ screen.KeyHintProvider = (*JoinScreen)(nil)

// New creates the join screen.
func New(deps *screens.Deps) *JoinScreen {
	s := &JoinScreen{deps: deps}
	s.fields[fieldQuiz] = components.NewNumericInput("Quiz ID", 10)
	s.fields[fieldCode] = components.NewCodeInput("Access code", 6)
	s.fields[fieldCode].Model.Blur()
	return s
}

func (s *JoinScreen) Init() tea.Cmd {
	return s.fields[fieldQuiz].Init()
}

func (s *JoinScreen) Title() string { return "Join Quiz" }

func (s *JoinScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *JoinScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case joinedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = screens.Message(msg.Err)
			if errors.Is(msg.Err, att.ErrAccessCodeRejected) {
				s.fields[fieldCode].Submit(false)
			}
			return s, nil
		}
		deps := s.deps
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: attemptscreen.New(deps, msg.AttemptID)}
		}

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			return s, s.setFocus(1 - s.focus)
		case "enter":
			if s.focus == fieldQuiz {
				return s, s.setFocus(fieldCode)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *JoinScreen) setFocus(i int) tea.Cmd {
	s.fields[s.focus].Model.Blur()
	s.focus = i
	return s.fields[i].Model.Focus()
}

func (s *JoinScreen) submit() tea.Cmd {
	s.errMsg = ""
	quizID, err := s.fields[fieldQuiz].NumericValue()
	if err != nil || quizID <= 0 {
		s.errMsg = att.MsgInvalidQuizID
		return nil
	}
	code := strings.TrimSpace(s.fields[fieldCode].Value())
	if code == "" {
		s.errMsg = att.MsgNoAccessCode
		return nil
	}

	s.busy = true
	api := s.deps.API
	return func() tea.Msg {
		id, err := att.Join(context.Background(), api, quizID, code)
		return joinedMsg{AttemptID: id, Err: err}
	}
}

func (s *JoinScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	label := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Enter the access code provided by your teacher."))
	b.WriteString("\n\n")
	b.WriteString(label.Render("Quiz ID"))
	b.WriteString("\n")
	b.WriteString(s.fields[fieldQuiz].View())
	b.WriteString("\n\n")
	b.WriteString(label.Render("Access code"))
	b.WriteString("\n")
	b.WriteString(s.fields[fieldCode].View())

	switch {
	case s.busy:
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Starting quiz..."))
	case s.errMsg != "":
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	card := components.Card(b.String(), cw)
	return "\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}
