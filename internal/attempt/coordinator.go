package attempt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/events"
	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/quiz"
)

// SaveFailedMessage is shown next to a question whose answer did not reach
// the server.
const SaveFailedMessage = "Failed to save your answer. Please try again."

// ExpiredMessage is shown when the quiz session has closed.
const ExpiredMessage = "Quiz session has expired. This attempt is no longer valid."

// ErrNotFinished means the server accepted a submission but did not report
// SUBMITTED or GRADED.
var ErrNotFinished = errors.New("submission was not accepted")

// API is the slice of the remote attempt API the coordinator needs.
type API interface {
	GetAttempt(ctx context.Context, attemptID int64) (*quiz.Attempt, error)
	SubmitResponse(ctx context.Context, attemptID int64, sub quiz.Submission) (correct bool, err error)
	SubmitAttempt(ctx context.Context, attemptID int64, totalTime int) (quiz.AttemptStatus, error)
	SaveProgress(ctx context.Context, attemptID int64) (quiz.AttemptStatus, error)
}

var expirySignals = []string{
	"expired",
	"no longer valid",
	"abandoned",
}

// closedSignal is the server's answer to a write on an attempt that already
// left IN_PROGRESS, usually because it was submitted elsewhere.
const closedSignal = "no longer in progress"

// IsExpiryMessage reports whether a server message means the session is gone.
func IsExpiryMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, sig := range expirySignals {
		if strings.Contains(m, sig) {
			return true
		}
	}
	return false
}

type failure int

const (
	failTransient failure = iota
	failExpired
	// failClosed asks for a status re-read; the attempt may be finished.
	failClosed
)

// classify sorts a failed call. Only a rejection from the attempt API can
// end the session; auth failures and anything that never reached the
// server stay transient.
func classify(err error) failure {
	if errors.Is(err, ErrSessionExpired) {
		return failExpired
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return failTransient
	}
	switch {
	case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusForbidden:
		return failTransient
	case strings.Contains(strings.ToLower(apiErr.Message), closedSignal):
		return failClosed
	case IsExpiryMessage(apiErr.Message):
		return failExpired
	}
	return failTransient
}

// IsExpiry reports whether err signals session expiry.
func IsExpiry(err error) bool {
	return err != nil && classify(err) == failExpired
}

// Coordinator pushes answers and attempt transitions to the server and folds
// the results back into a Session.
//
// Each operation comes in two forms. The one-shot methods (SubmitCurrent,
// Advance, SubmitAttempt, SaveAndExit) do everything in the calling
// goroutine. The UI instead calls Prepare on its own goroutine, runs Send,
// Finish or Save in a command, and applies the result back on its goroutine
// so the session is never touched concurrently.
type Coordinator struct {
	api       API
	publisher events.Publisher
	logger    logging.Logger
}

// NewCoordinator creates a coordinator. publisher and logger may be nil.
func NewCoordinator(api API, publisher events.Publisher, logger logging.Logger) *Coordinator {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{api: api, publisher: publisher, logger: logger}
}

// Outcome is the result of sending one answer.
type Outcome struct {
	QuestionID int64
	Difficulty quiz.Difficulty
	// Skipped is set when there was nothing to send.
	Skipped bool
	Correct bool
	Expired bool
	Err     error
	// Status is set when the server refused the answer because the attempt
	// had already moved on, and holds the status read back afterwards.
	Status quiz.AttemptStatus
	// ResponseTime is the seconds reported with the answer.
	ResponseTime int
}

// Pending is an answer ready to send, captured on the UI goroutine.
type Pending struct {
	AttemptID  int64
	Difficulty quiz.Difficulty
	Submission quiz.Submission
}

// Prepare builds the payload for the current question and marks the session
// in flight. ok is false when the answer is empty; nothing should be sent
// and the session is not marked.
func (c *Coordinator) Prepare(s *Session) (p Pending, ok bool, err error) {
	if err := s.guard(); err != nil {
		return Pending{}, false, err
	}
	if s.inFlight {
		return Pending{}, false, ErrInFlight
	}

	q := s.Current()
	s.flushDuration()
	if !s.Answered(q.ID) {
		return Pending{}, false, nil
	}

	sub := quiz.Submission{
		QuestionID:       q.ID,
		ResponseTime:     int(s.durations[q.ID] / time.Second),
		IsMultipleChoice: q.MultipleChoice(),
		IsOpenEnded:      q.OpenEnded(),
	}
	if q.OpenEnded() {
		sub.TextResponse = strings.TrimSpace(s.text[q.ID])
	} else {
		sub.SelectedAnswerIDs = s.Selected(q.ID)
	}

	s.inFlight = true
	return Pending{AttemptID: s.ID(), Difficulty: q.Difficulty, Submission: sub}, true, nil
}

// Send posts one answer. It does not touch any Session.
func (c *Coordinator) Send(ctx context.Context, p Pending) Outcome {
	out := Outcome{
		QuestionID:   p.Submission.QuestionID,
		Difficulty:   p.Difficulty,
		ResponseTime: p.Submission.ResponseTime,
	}
	log := c.logger.With("attempt_id", p.AttemptID, "question_id", p.Submission.QuestionID)

	correct, err := c.api.SubmitResponse(ctx, p.AttemptID, p.Submission)
	if err == nil {
		out.Correct = correct
		log.Debug("answer saved", "correct", correct, "response_time", p.Submission.ResponseTime)
		c.publish(ctx, events.Event{
			Kind: events.AnswerSubmitted, AttemptID: p.AttemptID, QuestionID: out.QuestionID,
			Difficulty: string(p.Difficulty), Correct: &correct, ResponseTime: out.ResponseTime,
		})
		return out
	}

	out.Err = err
	kind := classify(err)
	if kind == failClosed {
		out.Status = c.recheck(ctx, p.AttemptID)
		if out.Status.Abandoned() {
			kind = failExpired
		}
	}
	switch {
	case kind == failExpired:
		out.Expired = true
		log.Warn("session expired while saving answer", "error", err)
		c.publish(ctx, events.Event{Kind: events.SessionExpired, AttemptID: p.AttemptID, QuestionID: out.QuestionID, Message: err.Error()})
	case out.Status.Finished():
		log.Info("attempt already finished", "status", out.Status)
	default:
		log.LogError(err, "save answer failed")
		c.publish(ctx, events.Event{Kind: events.AnswerFailed, AttemptID: p.AttemptID, QuestionID: out.QuestionID, Message: err.Error()})
	}
	return out
}

// Apply folds a send outcome back into the session and clears the in-flight
// flag. Transient failures are recorded per question and never block
// navigation.
func (c *Coordinator) Apply(s *Session, out Outcome) {
	s.inFlight = false
	if out.Skipped {
		return
	}
	switch {
	case out.Expired:
		s.MarkExpired()
	case out.Status.Finished():
		s.ApplyStatus(out.Status)
	case out.Err != nil:
		s.errs[out.QuestionID] = SaveFailedMessage
	default:
		delete(s.errs, out.QuestionID)
		s.outcomes[out.QuestionID] = out.Correct
	}
}

// SubmitCurrent saves the current question's answer. Empty answers are not
// sent. A transient failure is reported in the Outcome, not as an error;
// the returned error is only set when the session refuses the call, has
// just expired or turned out to be finished already.
func (c *Coordinator) SubmitCurrent(ctx context.Context, s *Session) (Outcome, error) {
	p, ok, err := c.Prepare(s)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{QuestionID: s.Current().ID, Skipped: true}, nil
	}
	out := c.Send(ctx, p)
	c.Apply(s, out)
	switch {
	case s.Expired():
		return out, ErrSessionExpired
	case s.Finished():
		return out, ErrFinished
	}
	return out, nil
}

// StepAfter moves the session forward once an answer round-trip is done.
// The outcome of the current question drives the adaptive policy; an answer
// whose correctness is unknown (skipped or failed) counts as not correct.
func (c *Coordinator) StepAfter(s *Session, out Outcome) (StepResult, error) {
	correct, _ := s.Outcome(s.Current().ID)
	if !out.Skipped && out.Err == nil {
		correct = out.Correct
	}
	prev := s.Current()
	res, err := s.Step(correct)
	if err != nil {
		return res, err
	}
	switch {
	case res.Exhausted:
		c.publish(context.Background(), events.Event{Kind: events.SequenceExhausted, AttemptID: s.ID(), QuestionID: prev.ID})
	case res.DifficultyChanged:
		c.logger.Info("difficulty changed", "attempt_id", s.ID(), "from", prev.Difficulty, "to", res.Question.Difficulty)
		c.publish(context.Background(), events.Event{
			Kind: events.DifficultyChanged, AttemptID: s.ID(), QuestionID: res.Question.ID,
			Difficulty: string(res.Question.Difficulty), Message: string(prev.Difficulty),
		})
	}
	return res, nil
}

// Advance saves the current answer and moves to the next question, serving
// a new one when at the end of the sequence.
func (c *Coordinator) Advance(ctx context.Context, s *Session) (StepResult, error) {
	out, err := c.SubmitCurrent(ctx, s)
	if err != nil {
		return StepResult{}, err
	}
	return c.StepAfter(s, out)
}

// FinishResult is the outcome of a submit or save round-trip.
type FinishResult struct {
	Flush   Outcome
	Status  quiz.AttemptStatus
	Expired bool
	Err     error
}

// Finish flushes a pending answer (if any) and submits the attempt.
func (c *Coordinator) Finish(ctx context.Context, attemptID int64, pending *Pending, totalTime int) FinishResult {
	res := c.flush(ctx, attemptID, pending)
	if res.Expired || res.Status.Finished() {
		return res
	}

	st, err := c.api.SubmitAttempt(ctx, attemptID, totalTime)
	log := c.logger.With("attempt_id", attemptID)
	if err != nil {
		c.settleFailure(ctx, attemptID, err, &res)
		if res.Err != nil && !res.Expired {
			log.LogError(err, "submit attempt failed")
		}
		return res
	}
	switch {
	case !st.Finished():
		res.Status = st
		res.Err = ErrNotFinished
		log.Warn("submit returned unexpected status", "status", st)
	default:
		res.Status = st
		log.Info("attempt submitted", "status", st, "total_time", totalTime)
		c.publish(ctx, events.Event{Kind: events.AttemptSubmitted, AttemptID: attemptID, Status: string(st), ResponseTime: totalTime})
	}
	return res
}

// Save flushes a pending answer (if any) and asks the server to keep the
// attempt for later.
func (c *Coordinator) Save(ctx context.Context, attemptID int64, pending *Pending) FinishResult {
	res := c.flush(ctx, attemptID, pending)
	if res.Expired || res.Status.Finished() {
		return res
	}

	st, err := c.api.SaveProgress(ctx, attemptID)
	log := c.logger.With("attempt_id", attemptID)
	if err != nil {
		c.settleFailure(ctx, attemptID, err, &res)
		if res.Err != nil && !res.Expired {
			log.LogError(err, "save progress failed")
		}
		return res
	}
	res.Status = st
	log.Info("progress saved", "status", st)
	c.publish(ctx, events.Event{Kind: events.AttemptSaved, AttemptID: attemptID, Status: string(st)})
	return res
}

// settleFailure records a failed submit or save in res. An attempt that
// turns out to be finished already is not a failure: res carries its status.
func (c *Coordinator) settleFailure(ctx context.Context, attemptID int64, err error, res *FinishResult) {
	kind := classify(err)
	if kind == failClosed {
		st := c.recheck(ctx, attemptID)
		switch {
		case st.Finished():
			res.Status = st
			c.logger.Info("attempt already finished", "attempt_id", attemptID, "status", st)
			return
		case st.Abandoned():
			kind = failExpired
		}
	}
	res.Err = err
	if kind == failExpired {
		res.Expired = true
		c.logger.Warn("session expired", "attempt_id", attemptID, "error", err)
		c.publish(ctx, events.Event{Kind: events.SessionExpired, AttemptID: attemptID, Message: err.Error()})
	}
}

// recheck reads the attempt status after the server said the attempt is no
// longer in progress. It returns "" when the read fails.
func (c *Coordinator) recheck(ctx context.Context, attemptID int64) quiz.AttemptStatus {
	a, err := c.api.GetAttempt(ctx, attemptID)
	if err != nil {
		c.logger.LogError(err, "re-read attempt status", "attempt_id", attemptID)
		return ""
	}
	return a.Status
}

func (c *Coordinator) flush(ctx context.Context, attemptID int64, pending *Pending) FinishResult {
	if pending == nil {
		return FinishResult{Flush: Outcome{Skipped: true}}
	}
	out := c.Send(ctx, *pending)
	res := FinishResult{Flush: out}
	switch {
	case out.Expired:
		res.Expired = true
		res.Err = out.Err
	case out.Status.Finished():
		res.Status = out.Status
	}
	return res
}

// ApplyFinish folds a submit or save result into the session.
func (c *Coordinator) ApplyFinish(s *Session, res FinishResult) {
	c.Apply(s, res.Flush)
	s.inFlight = false
	switch {
	case res.Expired:
		s.MarkExpired()
	case res.Err == nil && res.Status != "":
		s.ApplyStatus(res.Status)
	}
}

// PrepareFinish is Prepare for submit and save: it always marks the session
// in flight and returns nil when there is no answer to flush.
func (c *Coordinator) PrepareFinish(s *Session) (*Pending, error) {
	p, ok, err := c.Prepare(s)
	if err != nil {
		return nil, err
	}
	s.inFlight = true
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SubmitAttempt flushes the current answer and submits the attempt. On
// success the session is finished and the returned status is SUBMITTED or
// GRADED; anything else is an error and is not retried.
func (c *Coordinator) SubmitAttempt(ctx context.Context, s *Session) (quiz.AttemptStatus, error) {
	p, err := c.PrepareFinish(s)
	if err != nil {
		return s.Status(), err
	}
	res := c.Finish(ctx, s.ID(), p, s.TotalSeconds())
	c.ApplyFinish(s, res)
	if res.Expired {
		return quiz.StatusAbandoned, ErrSessionExpired
	}
	return res.Status, res.Err
}

// SaveAndExit flushes the current answer and saves progress.
func (c *Coordinator) SaveAndExit(ctx context.Context, s *Session) error {
	p, err := c.PrepareFinish(s)
	if err != nil {
		return err
	}
	res := c.Save(ctx, s.ID(), p)
	c.ApplyFinish(s, res)
	if res.Expired {
		return ErrSessionExpired
	}
	return res.Err
}

// Opened records that an attempt view was opened.
func (c *Coordinator) Opened(ctx context.Context, s *Session, resumed bool) {
	msg := "started"
	if resumed {
		msg = "resumed"
	}
	c.logger.Info("attempt opened", "attempt_id", s.ID(), "adaptive", s.Adaptive(), "mode", msg)
	c.publish(ctx, events.Event{Kind: events.AttemptOpened, AttemptID: s.ID(), Status: string(s.Status()), Message: msg})
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	if err := c.publisher.Publish(ctx, e); err != nil {
		c.logger.LogError(err, "publish activity event", "kind", e.Kind)
	}
}
