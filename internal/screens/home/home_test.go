package home

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/screens/attempts"
	"github.com/abhisek/quizpath/internal/screens/history"
	"github.com/abhisek/quizpath/internal/screens/join"
	"github.com/abhisek/quizpath/internal/store"
)

type fakeAPI struct {
	screens.API
	open []*quiz.Attempt
	done []*quiz.AttemptResult
	err  error
}

func (f *fakeAPI) InProgressAttempts(context.Context) ([]*quiz.Attempt, error) {
	return f.open, f.err
}

func (f *fakeAPI) CompletedAttempts(context.Context) ([]*quiz.AttemptResult, error) {
	return f.done, f.err
}

type nopJournal struct{ store.EventRepo }

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testHome(f *fakeAPI, journal store.EventRepo) *HomeScreen {
	return New((&screens.Deps{API: f, Journal: journal}).WithDefaults())
}

func TestHomeScreen_Counts(t *testing.T) {
	f := &fakeAPI{
		open: []*quiz.Attempt{{ID: 1}, {ID: 2}},
		done: []*quiz.AttemptResult{{AttemptID: 3}},
	}
	h := testHome(f, nil)
	h.Update(h.Init()())

	if h.inProgress != 2 || h.completed != 1 {
		t.Errorf("counts = %d/%d, want 2/1", h.inProgress, h.completed)
	}
	if !strings.Contains(h.View(120, 40), "2 IN PROGRESS") {
		t.Error("expected counters in view")
	}

	f.open = nil
	h.Update(h.Refresh()())
	if h.inProgress != 0 {
		t.Errorf("inProgress = %d after refresh, want 0", h.inProgress)
	}
}

func TestHomeScreen_LoadError(t *testing.T) {
	h := testHome(&fakeAPI{err: errors.New("connection refused")}, nil)
	h.Update(h.Init()())
	if h.errMsg != "connection refused" {
		t.Errorf("errMsg = %q", h.errMsg)
	}
	if h.View(80, 16) == "" {
		t.Error("expected non-empty compact view")
	}
}

func TestHomeScreen_MenuNavigation(t *testing.T) {
	tests := []struct {
		name  string
		downs int
		check func(t *testing.T, msg tea.Msg)
	}{
		{"join", 0, func(t *testing.T, msg tea.Msg) {
			if _, ok := msg.(router.PushScreenMsg).Screen.(*join.JoinScreen); !ok {
				t.Error("expected join screen")
			}
		}},
		{"in progress", 1, func(t *testing.T, msg tea.Msg) {
			s, ok := msg.(router.PushScreenMsg).Screen.(*attempts.AttemptsScreen)
			if !ok || s.Title() != "In Progress" {
				t.Error("expected in-progress list")
			}
		}},
		{"completed", 2, func(t *testing.T, msg tea.Msg) {
			s, ok := msg.(router.PushScreenMsg).Screen.(*attempts.AttemptsScreen)
			if !ok || s.Title() != "Completed" {
				t.Error("expected completed list")
			}
		}},
		{"history", 3, func(t *testing.T, msg tea.Msg) {
			if _, ok := msg.(router.PushScreenMsg).Screen.(*history.HistoryScreen); !ok {
				t.Error("expected history screen")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHome(&fakeAPI{}, nopJournal{})
			for i := 0; i < tt.downs; i++ {
				h.Update(specialKey(tea.KeyDown))
			}
			_, cmd := h.Update(specialKey(tea.KeyEnter))
			if cmd == nil {
				t.Fatal("expected a command")
			}
			tt.check(t, cmd())
		})
	}
}

func TestHomeScreen_HistoryDisabledWithoutJournal(t *testing.T) {
	h := testHome(&fakeAPI{}, nil)
	for i := 0; i < 3; i++ {
		h.Update(specialKey(tea.KeyDown))
	}
	if h.menu.Selected != itemExit {
		t.Errorf("selected = %d, want exit (history skipped)", h.menu.Selected)
	}
}

func TestHomeScreen_KeyHints(t *testing.T) {
	if len(testHome(&fakeAPI{}, nil).KeyHints()) == 0 {
		t.Error("expected key hints")
	}
}
