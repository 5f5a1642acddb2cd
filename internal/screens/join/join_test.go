package join

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/api"
	att "github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
)

type fakeAPI struct {
	screens.API

	valid    bool
	startErr error
	quizID   int64
	code     string
}

func (f *fakeAPI) ValidateAccessCode(_ context.Context, code string) (bool, error) {
	return f.valid, nil
}

func (f *fakeAPI) StartAttempt(_ context.Context, quizID int64, code string) (int64, error) {
	f.quizID, f.code = quizID, code
	if f.startErr != nil {
		return 0, f.startErr
	}
	return 77, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func typeText(s *JoinScreen, text string) {
	for _, r := range text {
		s.Update(keyPress(r))
	}
}

func testJoinScreen(f *fakeAPI) *JoinScreen {
	return New((&screens.Deps{API: f}).WithDefaults())
}

func TestJoinScreen_Title(t *testing.T) {
	s := testJoinScreen(&fakeAPI{})
	if s.Title() != "Join Quiz" {
		t.Errorf("Title = %q", s.Title())
	}
}

func TestJoinScreen_QuizIDIsNumeric(t *testing.T) {
	s := testJoinScreen(&fakeAPI{})
	typeText(s, "1a2")
	if got := s.fields[fieldQuiz].Value(); got != "12" {
		t.Errorf("quiz id = %q, want %q", got, "12")
	}
}

func TestJoinScreen_EnterMovesToCode(t *testing.T) {
	s := testJoinScreen(&fakeAPI{})
	typeText(s, "3")
	s.Update(specialKey(tea.KeyEnter))
	if s.focus != fieldCode {
		t.Fatalf("focus = %d, want code field", s.focus)
	}
	typeText(s, "a-b1")
	if got := s.fields[fieldCode].Value(); got != "AB1" {
		t.Errorf("code = %q, want %q", got, "AB1")
	}
	s.Update(specialKey(tea.KeyTab))
	if s.focus != fieldQuiz {
		t.Error("expected Tab to cycle back to the quiz field")
	}
}

func TestJoinScreen_LocalValidation(t *testing.T) {
	s := testJoinScreen(&fakeAPI{valid: true})
	s.setFocus(fieldCode)
	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("expected no request without a quiz id")
	}
	if s.errMsg != att.MsgInvalidQuizID {
		t.Errorf("errMsg = %q", s.errMsg)
	}

	s.setFocus(fieldQuiz)
	typeText(s, "3")
	s.setFocus(fieldCode)
	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("expected no request without an access code")
	}
	if s.errMsg != att.MsgNoAccessCode {
		t.Errorf("errMsg = %q", s.errMsg)
	}
}

func submit(t *testing.T, s *JoinScreen) tea.Cmd {
	t.Helper()
	typeText(s, "3")
	s.Update(specialKey(tea.KeyEnter))
	typeText(s, "AB12CD")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a join command")
	}
	if !s.busy {
		t.Error("expected busy while joining")
	}
	_, next := s.Update(cmd())
	return next
}

func TestJoinScreen_Success(t *testing.T) {
	f := &fakeAPI{valid: true}
	s := testJoinScreen(f)
	next := submit(t, s)

	if f.quizID != 3 || f.code != "AB12CD" {
		t.Errorf("started quiz %d with %q", f.quizID, f.code)
	}
	if next == nil {
		t.Fatal("expected navigation")
	}
	msg, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if _, ok := msg.Screen.(*attemptscreen.AttemptScreen); !ok {
		t.Errorf("expected attempt screen, got %T", msg.Screen)
	}
}

func TestJoinScreen_Rejected(t *testing.T) {
	s := testJoinScreen(&fakeAPI{valid: false})
	if next := submit(t, s); next != nil {
		t.Error("expected no navigation")
	}
	if s.errMsg != att.MsgRejectedAccessCode {
		t.Errorf("errMsg = %q", s.errMsg)
	}
	if s.busy {
		t.Error("expected busy to clear")
	}
}

func TestJoinScreen_ServerMessage(t *testing.T) {
	s := testJoinScreen(&fakeAPI{valid: true, startErr: &api.Error{Status: 400, Message: "Session has expired"}})
	submit(t, s)
	if s.errMsg != "Session has expired" {
		t.Errorf("errMsg = %q", s.errMsg)
	}
}

func TestJoinScreen_View(t *testing.T) {
	s := testJoinScreen(&fakeAPI{})
	if s.View(80, 24) == "" {
		t.Error("expected non-empty view")
	}
}
