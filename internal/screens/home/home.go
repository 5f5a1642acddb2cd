package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/screens/attempts"
	"github.com/abhisek/quizpath/internal/screens/history"
	"github.com/abhisek/quizpath/internal/screens/join"
	"github.com/abhisek/quizpath/internal/ui/components"
	"github.com/abhisek/quizpath/internal/ui/layout"
)

const (
	itemJoin = iota
	itemInProgress
	itemCompleted
	itemHistory
	itemExit
)

// countsMsg carries the dashboard counters.
type countsMsg struct {
	InProgress int
	Completed  int
	Err        error
}

// HomeScreen is the student dashboard.
type HomeScreen struct {
	deps       *screens.Deps
	menu       components.Menu
	menuLabels []string

	inProgress int
	completed  int
	loaded     bool
	errMsg     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// New creates the dashboard.
func New(deps *screens.Deps) *HomeScreen {
	menuLabels := []string{"JOIN QUIZ", "IN PROGRESS", "COMPLETED", "HISTORY", "EXIT"}

	push := func(s screen.Screen) tea.Cmd {
		return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	}

	items := []components.MenuItem{
		{Label: menuLabels[itemJoin], Action: func() tea.Cmd {
			return push(join.New(deps))
		}},
		{Label: menuLabels[itemInProgress], Action: func() tea.Cmd {
			return push(attempts.New(deps, attempts.InProgress))
		}},
		{Label: menuLabels[itemCompleted], Action: func() tea.Cmd {
			return push(attempts.New(deps, attempts.Completed))
		}},
		{Label: menuLabels[itemHistory], Disabled: deps.Journal == nil, Action: func() tea.Cmd {
			return push(history.New(deps.Journal))
		}},
		{Label: menuLabels[itemExit], Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		deps:       deps,
		menu:       components.NewMenu(items),
		menuLabels: menuLabels,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	api := h.deps.API
	return func() tea.Msg {
		ctx := context.Background()
		open, err := api.InProgressAttempts(ctx)
		if err != nil {
			return countsMsg{Err: err}
		}
		done, err := api.CompletedAttempts(ctx)
		if err != nil {
			return countsMsg{Err: err}
		}
		return countsMsg{InProgress: len(open), Completed: len(done)}
	}
}

// Refresh reloads the counters after returning from another screen.
func (h *HomeScreen) Refresh() tea.Cmd { return h.Init() }

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(countsMsg); ok {
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = screens.Message(msg.Err)
			return h, nil
		}
		h.errMsg = ""
		h.inProgress, h.completed = msg.InProgress, msg.Completed
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back header, footer and frame gaps
	termHeight := height + 8
	compact := termHeight < 30 || width < 100

	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderStatsBar(h.inProgress, h.completed, h.loaded, cw, compact))
	if h.errMsg != "" {
		sections = append(sections, renderError(h.errMsg, cw))
	}

	disabled := make(map[int]bool)
	for i, item := range h.menu.Items {
		disabled[i] = item.Disabled
	}
	if compact {
		sections = append(sections, renderMenuCompact(h.menuLabels, h.menu.Selected, cw, disabled))
	} else {
		sections = append(sections, renderMenu(h.menuLabels, h.menu.Selected, cw, disabled))
	}

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Dashboard"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "1-5", Description: "Jump"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
