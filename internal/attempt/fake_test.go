package attempt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/events"
	"github.com/abhisek/quizpath/internal/quiz"
)

// fakeAPI implements API for testing.
type fakeAPI struct {
	mu sync.Mutex

	attempt     *quiz.Attempt
	correct     map[int64]bool // question id -> correct
	responseErr error
	submitErr   error
	submitState quiz.AttemptStatus
	saveErr     error
	getErr      error

	submissions []quiz.Submission
	submitCalls int
	saveCalls   int
	getCalls    int
}

func (f *fakeAPI) GetAttempt(_ context.Context, _ int64) (*quiz.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
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

func (f *fakeAPI) SubmitAttempt(_ context.Context, _ int64, _ int) (quiz.AttemptStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.submitState == "" {
		return quiz.StatusSubmitted, nil
	}
	return f.submitState, nil
}

func (f *fakeAPI) SaveProgress(_ context.Context, _ int64) (quiz.AttemptStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return quiz.StatusInProgress, nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)} }
func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errNetwork = errors.New("connection refused")

// rejected is an error as the attempt API reports it.
func rejected(status int, msg string) error {
	return &api.Error{Status: status, Message: msg}
}

func choice(id int64, d quiz.Difficulty) quiz.Question {
	return quiz.Question{
		ID:         id,
		Text:       "pick one",
		Type:       quiz.SingleChoice,
		Difficulty: d,
		Answers:    []quiz.Answer{{ID: id*10 + 1, Text: "a"}, {ID: id*10 + 2, Text: "b"}},
	}
}

func multi(id int64, d quiz.Difficulty) quiz.Question {
	q := choice(id, d)
	q.Type = quiz.MultipleChoice
	return q
}

func open(id int64, d quiz.Difficulty) quiz.Question {
	return quiz.Question{ID: id, Text: "explain", Type: quiz.OpenEnded, Difficulty: d}
}

func newTestSession(t interface{ Fatalf(string, ...any) }, a *quiz.Attempt, c *clock) *Session {
	opts := DefaultSessionOptions()
	opts.Now = c.Now
	s, err := NewSession(a, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}
