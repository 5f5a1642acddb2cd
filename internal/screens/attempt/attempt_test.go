package attempt

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizpath/internal/api"
	att "github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/screens/results"
)

// fakeAPI implements the calls the attempt screen makes.
type fakeAPI struct {
	screens.API

	mu           sync.Mutex
	attempt      *quiz.Attempt
	correct      map[int64]bool
	responseErr  error
	submitStatus quiz.AttemptStatus
	submissions  []quiz.Submission
	saves        int
	submits      int
}

func (f *fakeAPI) GetAttempt(context.Context, int64) (*quiz.Attempt, error) {
	return f.attempt, nil
}

func (f *fakeAPI) SubmitResponse(_ context.Context, _ int64, sub quiz.Submission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	if f.responseErr != nil {
		return false, f.responseErr
	}
	return f.correct[sub.QuestionID], nil
}

func (f *fakeAPI) SubmitAttempt(context.Context, int64, int) (quiz.AttemptStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitStatus == "" {
		return quiz.StatusSubmitted, nil
	}
	return f.submitStatus, nil
}

func (f *fakeAPI) SaveProgress(context.Context, int64) (quiz.AttemptStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return quiz.StatusInProgress, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlS() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
}

func question(id int64, typ quiz.QuestionType) quiz.Question {
	q := quiz.Question{ID: id, Text: "Question text", Type: typ, Difficulty: quiz.Medium}
	if typ != quiz.OpenEnded {
		q.Answers = []quiz.Answer{{ID: id*10 + 1, Text: "first"}, {ID: id*10 + 2, Text: "second"}}
	}
	return q
}

func linearAttempt(st quiz.AttemptStatus) *quiz.Attempt {
	return &quiz.Attempt{
		ID:        1,
		QuizTitle: "Capitals",
		Status:    st,
		Questions: []quiz.Question{
			question(1, quiz.SingleChoice),
			question(2, quiz.MultipleChoice),
			question(3, quiz.OpenEnded),
		},
	}
}

func testAttemptScreen(t *testing.T, a *quiz.Attempt) (*AttemptScreen, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{attempt: a, correct: map[int64]bool{1: true}}
	deps := (&screens.Deps{API: f, PollInterval: time.Hour}).WithDefaults()
	s := New(deps, a.ID)
	t.Cleanup(s.Stop)
	return s, f
}

// load runs the Init command and feeds its result back.
func load(t *testing.T, s *AttemptScreen) tea.Cmd {
	t.Helper()
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	_, next := s.Update(cmd())
	return next
}

func TestAttemptScreen_Title(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	if s.Title() != "Attempt" {
		t.Errorf("Title = %q, want %q", s.Title(), "Attempt")
	}
	load(t, s)
	if s.Title() != "Capitals" {
		t.Errorf("Title = %q, want %q", s.Title(), "Capitals")
	}
}

func TestAttemptScreen_View_Loading(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	if !strings.Contains(s.View(80, 24), "Loading") {
		t.Error("expected loading view")
	}
}

func TestAttemptScreen_LoadStartsClockAndPoll(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	cmd := load(t, s)
	if cmd == nil {
		t.Fatal("expected tick and poll commands after load")
	}
	if s.sess == nil || s.poller == nil {
		t.Fatal("expected session and poller")
	}
	if s.View(80, 24) == "" {
		t.Error("expected non-empty question view")
	}
}

func TestAttemptScreen_FinishedAttemptShowsResults(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusGraded))
	cmd := load(t, s)
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if _, ok := msg.Screen.(*results.ResultsScreen); !ok {
		t.Errorf("expected results screen, got %T", msg.Screen)
	}
}

func TestAttemptScreen_AbandonedAttemptShowsExpiry(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusAbandoned))
	load(t, s)
	if !s.expired {
		t.Fatal("expected expired state")
	}
	if !strings.Contains(s.View(120, 30), "no longer valid") {
		t.Error("expected expiry message in view")
	}
	_, cmd := s.Update(keyPress('x'))
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Error("expected any key to return to the dashboard")
	}
}

func TestAttemptScreen_SelectAndAdvance(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	var scr screen.Screen = s
	scr, save := scr.Update(keyPress('1'))
	if got := s.sess.Selected(1); len(got) != 1 || got[0] != 11 {
		t.Fatalf("selected = %v, want [11]", got)
	}
	if save == nil {
		t.Fatal("expected the selection to be saved")
	}
	s.Update(save())

	_, cmd := scr.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	if s.busy == "" {
		t.Error("expected busy while the answer is in flight")
	}
	s.Update(cmd())

	if s.sess.Index() != 1 {
		t.Errorf("index = %d, want 1", s.sess.Index())
	}
	if len(f.submissions) != 2 || f.submissions[1].QuestionID != 1 {
		t.Errorf("submissions = %+v, want the answer saved then flushed on next", f.submissions)
	}
	if correct, known := s.sess.Outcome(1); !known || !correct {
		t.Error("expected recorded correct outcome")
	}
}

func TestAttemptScreen_SelectionSavesWithoutMoving(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, cmd := s.Update(keyPress('2'))
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	s.Update(cmd())

	if len(f.submissions) != 1 {
		t.Fatalf("submissions = %d, want 1", len(f.submissions))
	}
	if got := f.submissions[0]; got.QuestionID != 1 || len(got.SelectedAnswerIDs) != 1 || got.SelectedAnswerIDs[0] != 12 {
		t.Errorf("submission = %+v", got)
	}
	if s.sess.Index() != 0 {
		t.Errorf("index = %d, want 0", s.sess.Index())
	}
	if s.saving || s.sess.InFlight() {
		t.Error("expected the save to be settled")
	}
}

func TestAttemptScreen_NavigationWaitsForSave(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, save := s.Update(keyPress('1'))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Fatal("expected next to wait for the save in flight")
	}
	if s.sess.Index() != 0 {
		t.Fatalf("index = %d, want 0 while saving", s.sess.Index())
	}

	_, next := s.Update(save())
	if next == nil {
		t.Fatal("expected the queued next to run")
	}
	s.Update(next())
	if s.sess.Index() != 1 {
		t.Errorf("index = %d, want 1", s.sess.Index())
	}
	if len(f.submissions) != 2 {
		t.Errorf("submissions = %d, want 2", len(f.submissions))
	}
}

func TestAttemptScreen_ChangeDuringSaveIsSentAgain(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, save := s.Update(keyPress('1'))
	if _, cmd := s.Update(keyPress('2')); cmd != nil {
		t.Fatal("expected no second save while one is in flight")
	}

	_, again := s.Update(save())
	if again == nil {
		t.Fatal("expected the newer answer to be sent")
	}
	s.Update(again())

	if len(f.submissions) != 2 {
		t.Fatalf("submissions = %d, want 2", len(f.submissions))
	}
	if got := f.submissions[1].SelectedAnswerIDs; len(got) != 1 || got[0] != 12 {
		t.Errorf("last saved answer = %v, want [12]", got)
	}
}

func TestAttemptScreen_TypingSavesAfterPause(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	s.Update(specialKey(tea.KeyEnter))
	s.Update(specialKey(tea.KeyEnter))

	s.Update(keyPress('h'))
	first := s.textSeq
	s.Update(keyPress('i'))

	if _, cmd := s.Update(textSaveMsg{QuestionID: 3, Seq: first}); cmd != nil {
		t.Error("expected a superseded pause to be ignored")
	}
	_, cmd := s.Update(textSaveMsg{QuestionID: 3, Seq: s.textSeq})
	if cmd == nil {
		t.Fatal("expected a save once typing paused")
	}
	s.Update(cmd())

	if len(f.submissions) != 1 || f.submissions[0].TextResponse != "hi" {
		t.Errorf("submissions = %+v", f.submissions)
	}
}

func TestAttemptScreen_AuthFailureDoesNotExpire(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	f.responseErr = &api.Error{Status: 401, Message: "Invalid or expired token"}
	load(t, s)

	_, cmd := s.Update(keyPress('1'))
	s.Update(cmd())

	if s.expired || s.sess.Expired() {
		t.Fatal("an auth failure must not expire the attempt")
	}
	if s.sess.QuestionError(1) != att.SaveFailedMessage {
		t.Errorf("question error = %q", s.sess.QuestionError(1))
	}
}

func TestAttemptScreen_AlreadyFinishedShowsResults(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	f.responseErr = &api.Error{Status: 400, Message: "Attempt is no longer in progress"}
	f.attempt = linearAttempt(quiz.StatusSubmitted)

	_, cmd := s.Update(keyPress('1'))
	_, next := s.Update(cmd())

	if s.expired {
		t.Fatal("a finished attempt is not an expiry")
	}
	if next == nil {
		t.Fatal("expected navigation to results")
	}
	if _, ok := next().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg")
	}
}

func TestAttemptScreen_EmptyAnswerSkipsNetwork(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command for an empty answer")
	}
	if s.sess.Index() != 1 {
		t.Errorf("index = %d, want 1", s.sess.Index())
	}
	if len(f.submissions) != 0 {
		t.Errorf("submissions = %d, want 0", len(f.submissions))
	}
}

func TestAttemptScreen_Previous(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	s.Update(specialKey(tea.KeyEnter))

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if s.sess.Index() != 0 {
		t.Errorf("index = %d, want 0", s.sess.Index())
	}
}

func TestAttemptScreen_MultipleChoiceToggles(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	s.Update(specialKey(tea.KeyEnter))

	s.Update(keyPress('1'))
	s.Update(keyPress('2'))
	if got := s.sess.Selected(2); len(got) != 2 {
		t.Fatalf("selected = %v, want two answers", got)
	}
	s.Update(keyPress('1'))
	if got := s.sess.Selected(2); len(got) != 1 || got[0] != 22 {
		t.Errorf("selected = %v, want [22]", got)
	}
	if !s.choices.Selected[1] || s.choices.Selected[0] {
		t.Errorf("widget selection not mirrored: %v", s.choices.Selected)
	}
}

func TestAttemptScreen_OpenEndedTyping(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	s.Update(specialKey(tea.KeyEnter))
	s.Update(specialKey(tea.KeyEnter))

	s.Update(keyPress('h'))
	s.Update(keyPress('i'))
	if got := s.sess.Text(3); got != "hi" {
		t.Errorf("text = %q, want %q", got, "hi")
	}
}

func TestAttemptScreen_ExpiryOnSend(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	f.responseErr = &api.Error{Status: 400, Message: "Quiz session has expired. This attempt is no longer valid."}
	load(t, s)

	_, cmd := s.Update(keyPress('1'))
	s.Update(cmd())

	if !s.expired || !s.sess.Expired() {
		t.Fatal("expected expired state")
	}
	if !s.stopped {
		t.Error("expected poller to be stopped")
	}
	if s.sess.Index() != 0 {
		t.Errorf("index = %d, want 0 after expiry", s.sess.Index())
	}
}

func TestAttemptScreen_TransientFailureKeepsGoing(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	f.responseErr = &api.ErrUnavailable{Status: 503}
	load(t, s)

	_, save := s.Update(keyPress('1'))
	s.Update(save())
	if s.sess.QuestionError(1) != att.SaveFailedMessage {
		t.Fatalf("question error = %q", s.sess.QuestionError(1))
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	s.Update(cmd())

	if s.expired {
		t.Fatal("transient failure must not expire the attempt")
	}
	if s.sess.Index() != 1 {
		t.Errorf("index = %d, want 1", s.sess.Index())
	}
	if s.sess.QuestionError(1) != att.SaveFailedMessage {
		t.Errorf("question error = %q", s.sess.QuestionError(1))
	}
}

func TestAttemptScreen_SubmitConfirm(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	s.Update(ctrlS())
	if !s.confirming {
		t.Fatal("expected confirmation with unanswered questions")
	}
	if !strings.Contains(s.View(100, 30), "answered 0 out of 3") {
		t.Error("expected confirm message in view")
	}

	s.Update(keyPress('n'))
	if s.confirming {
		t.Fatal("expected confirmation to be dismissed")
	}

	s.Update(ctrlS())
	_, cmd := s.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	_, next := s.Update(cmd())
	if f.submits != 1 {
		t.Errorf("submits = %d, want 1", f.submits)
	}
	if next == nil {
		t.Fatal("expected navigation to results")
	}
	if _, ok := next().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg")
	}
}

func TestAttemptScreen_SubmitNotAccepted(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	f.submitStatus = quiz.StatusInProgress
	load(t, s)

	s.Update(ctrlS())
	_, cmd := s.Update(keyPress('y'))
	s.Update(cmd())

	if !strings.HasPrefix(s.failure, "Submission failed") {
		t.Errorf("failure = %q", s.failure)
	}
	if s.sess.Finished() {
		t.Error("attempt must stay open")
	}
}

func TestAttemptScreen_SaveAndExit(t *testing.T) {
	s, f := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, save := s.Update(keyPress('2'))
	s.Update(save())
	_, cmd := s.Update(specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	_, next := s.Update(cmd())
	if f.saves != 1 || len(f.submissions) != 2 {
		t.Errorf("saves = %d submissions = %d", f.saves, len(f.submissions))
	}
	if _, ok := next().(router.PopToRootMsg); !ok {
		t.Error("expected PopToRootMsg after saving")
	}
}

func TestAttemptScreen_PollExpiry(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	s.Update(pollMsg{Result: att.PollResult{Status: quiz.StatusAbandoned}, OK: true})
	if !s.expired {
		t.Error("expected expired state after ABANDONED poll")
	}
}

func TestAttemptScreen_PollFinished(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, cmd := s.Update(pollMsg{Result: att.PollResult{Status: quiz.StatusGraded}, OK: true})
	if cmd == nil {
		t.Fatal("expected navigation to results")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg")
	}
}

func TestAttemptScreen_PollInProgressKeepsWaiting(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, cmd := s.Update(pollMsg{Result: att.PollResult{Status: quiz.StatusInProgress}, OK: true})
	if cmd == nil {
		t.Error("expected the poll bridge to be re-armed")
	}
}

func TestAttemptScreen_Tick(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)

	_, cmd := s.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("expected the next tick")
	}
	if s.sess.Elapsed() != time.Second {
		t.Errorf("elapsed = %v, want 1s", s.sess.Elapsed())
	}
	if !strings.Contains(s.HeaderStatus(), "0:01") {
		t.Errorf("header status = %q", s.HeaderStatus())
	}
}

func TestAttemptScreen_KeyHints(t *testing.T) {
	s, _ := testAttemptScreen(t, linearAttempt(quiz.StatusInProgress))
	load(t, s)
	if len(s.KeyHints()) == 0 {
		t.Error("expected non-empty key hints")
	}
}

func TestAttemptScreen_AdaptiveEscalates(t *testing.T) {
	a := &quiz.Attempt{ID: 1, QuizTitle: "Adaptive", Adaptive: true, Status: quiz.StatusInProgress}
	for i := int64(1); i <= 4; i++ {
		q := question(i, quiz.SingleChoice)
		q.Difficulty = quiz.Medium
		a.Questions = append(a.Questions, q)
	}
	hard := question(9, quiz.SingleChoice)
	hard.Difficulty = quiz.Hard
	a.Questions = append(a.Questions, hard)

	s, f := testAttemptScreen(t, a)
	f.correct = map[int64]bool{1: true, 2: true, 3: true, 4: true}
	load(t, s)

	for i := 0; i < 3; i++ {
		_, save := s.Update(keyPress('1'))
		s.Update(save())
		_, cmd := s.Update(specialKey(tea.KeyEnter))
		s.Update(cmd())
	}
	if got := s.sess.Current().Difficulty; got != quiz.Hard {
		t.Errorf("difficulty = %s, want HARD after three correct answers", got)
	}
	if !strings.Contains(s.notice, "HARD") {
		t.Errorf("notice = %q", s.notice)
	}
}
