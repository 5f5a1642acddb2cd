package attempts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
	"github.com/abhisek/quizpath/internal/screens/results"
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

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func loaded(t *testing.T, f *fakeAPI, mode Mode) *AttemptsScreen {
	t.Helper()
	s := New((&screens.Deps{API: f}).WithDefaults(), mode)
	s.Update(s.Init()())
	return s
}

var started = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestAttemptsScreen_InProgress(t *testing.T) {
	f := &fakeAPI{open: []*quiz.Attempt{
		{ID: 4, QuizTitle: "Fractions", StartedAt: started,
			Questions: []quiz.Question{{ID: 1}, {ID: 2}},
			Responses: []quiz.Response{{QuestionID: 1, AnswerIDs: []int64{11}}, {QuestionID: 2}}},
		{ID: 9, QuizTitle: "Decimals", StartedAt: started},
	}}
	s := loaded(t, f, InProgress)

	if s.Title() != "In Progress" {
		t.Errorf("Title = %q", s.Title())
	}
	if len(s.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(s.rows))
	}
	if !strings.Contains(s.rows[0].detail, "1/2 answered") {
		t.Errorf("detail = %q", s.rows[0].detail)
	}

	s.Update(specialKey(tea.KeyDown))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := msg.Screen.(*attemptscreen.AttemptScreen); !ok {
		t.Errorf("expected attempt screen, got %T", msg.Screen)
	}
}

func TestAttemptsScreen_Completed(t *testing.T) {
	done := started.Add(12 * time.Minute)
	f := &fakeAPI{done: []*quiz.AttemptResult{
		{AttemptID: 7, QuizTitle: "Fractions", Score: 50, StartedAt: started, CompletedAt: &done,
			TotalQuestions: 2, CorrectAnswers: 1},
	}}
	s := loaded(t, f, Completed)

	if !strings.Contains(s.rows[0].detail, "50%  1/2 correct") {
		t.Errorf("detail = %q", s.rows[0].detail)
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msg := cmd().(router.PushScreenMsg)
	if _, ok := msg.Screen.(*results.ResultsScreen); !ok {
		t.Errorf("expected results screen, got %T", msg.Screen)
	}
}

func TestAttemptsScreen_Empty(t *testing.T) {
	s := loaded(t, &fakeAPI{}, InProgress)
	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("expected no command on an empty list")
	}
	if !strings.Contains(s.View(100, 20), "No attempts in progress") {
		t.Error("expected empty message")
	}
}

func TestAttemptsScreen_Error(t *testing.T) {
	s := loaded(t, &fakeAPI{err: errors.New("boom")}, Completed)
	if s.errMsg != "boom" {
		t.Errorf("errMsg = %q", s.errMsg)
	}
}

func TestAttemptsScreen_RefreshClampsSelection(t *testing.T) {
	f := &fakeAPI{open: []*quiz.Attempt{{ID: 1}, {ID: 2}}}
	s := loaded(t, f, InProgress)
	s.Update(specialKey(tea.KeyDown))

	f.open = f.open[:1]
	s.Update(s.Refresh()())
	if s.selected != 0 {
		t.Errorf("selected = %d, want 0", s.selected)
	}
}
