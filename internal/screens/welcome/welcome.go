package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	stepEvery    = 400 * time.Millisecond
	bannerAt     = 1200 * time.Millisecond
	totalDur     = 2000 * time.Millisecond
)

// Tagline is shown under the banner.
const Tagline = "Adaptive quizzes, one question at a time."

// pathSteps light up one after another while the splash plays.
var pathSteps = []struct {
	label string
	color lipgloss.Style
}{
	{"EASY", lipgloss.NewStyle().Foreground(theme.Success).Bold(true)},
	{"MEDIUM", lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)},
	{"HARD", lipgloss.NewStyle().Foreground(theme.Error).Bold(true)},
}

type tickMsg time.Time

// WelcomeScreen shows a short splash before handing over to the dashboard.
// Any key skips it.
type WelcomeScreen struct {
	homeFactory  func() screen.Screen
	elapsed      time.Duration
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that will transition to the screen produced by homeFactory.
func New(homeFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		homeFactory: homeFactory,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
			return w, tick()
		}
		return w, nil

	case tea.KeyPressMsg:
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	homeScreen := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: homeScreen}
	}
}

// lit returns how many path steps are lit.
func (w *WelcomeScreen) lit() int {
	return min(int(w.elapsed/stepEvery), len(pathSteps))
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	dim := lipgloss.NewStyle().Foreground(theme.Border)
	var path []string
	for i, step := range pathSteps {
		if i < w.lit() {
			path = append(path, step.color.Render("● "+step.label))
		} else {
			path = append(path, dim.Render("○ "+step.label))
		}
	}
	sections = append(sections, strings.Join(path, dim.Render(" ─── ")))

	if w.elapsed >= bannerAt {
		sections = append(sections, "", RenderBanner(width), "")
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render(Tagline))
	}

	if w.elapsed >= totalDur {
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render("press any key to continue"))
	}

	content := strings.Join(sections, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
