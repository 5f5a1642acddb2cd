package attempt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/quizpath/internal/adaptive"
	"github.com/abhisek/quizpath/internal/quiz"
)

var (
	// ErrNoQuestions means the attempt has nothing to show.
	ErrNoQuestions = errors.New("attempt has no questions")

	// ErrSessionExpired means the quiz session closed; the attempt is frozen.
	ErrSessionExpired = errors.New("quiz session has expired")

	// ErrFinished means the attempt was already submitted or graded.
	ErrFinished = errors.New("attempt is no longer in progress")

	// ErrInFlight means another mutating call has not returned yet.
	ErrInFlight = errors.New("a submission is already in progress")

	// ErrUnknownQuestion means an answer referenced a question outside the attempt.
	ErrUnknownQuestion = errors.New("question is not part of this attempt")
)

// Mode picks how an attempt's questions are sequenced.
type Mode int

const (
	// ModeAuto follows the attempt's adaptive flag.
	ModeAuto Mode = iota
	ModeAdaptive
	ModeLinear
)

// ParseMode accepts "auto", "on" or "off".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "on", "true", "adaptive":
		return ModeAdaptive, nil
	case "off", "false", "linear":
		return ModeLinear, nil
	}
	return ModeAuto, fmt.Errorf("unknown sequencing mode %q", s)
}

// SessionOptions tunes how a session sequences questions.
type SessionOptions struct {
	Policy    adaptive.Policy
	ResetMode adaptive.ResetMode
	Mode      Mode
	Now       func() time.Time
}

// DefaultSessionOptions uses the default adaptive policy and wall clock.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Policy:    adaptive.DefaultPolicy(),
		ResetMode: adaptive.ResetOnEffectiveChange,
		Now:       time.Now,
	}
}

func (o SessionOptions) adaptive(a *quiz.Attempt) bool {
	switch o.Mode {
	case ModeAdaptive:
		return true
	case ModeLinear:
		return false
	}
	return a.Adaptive
}

// Session is the client-side state of one open attempt. It is owned by a
// single goroutine (the UI loop); nothing here is safe for concurrent use.
type Session struct {
	attempt *quiz.Attempt
	byID    map[int64]quiz.Question

	// builder is nil for linear quizzes, which show questions in server order.
	builder   *adaptive.Builder
	linear    []quiz.Question
	policy    adaptive.Policy
	resetMode adaptive.ResetMode

	index int

	selected  map[int64][]int64
	text      map[int64]string
	durations map[int64]time.Duration
	outcomes  map[int64]bool
	errs      map[int64]string

	questionStart time.Time
	elapsed       time.Duration

	status    quiz.AttemptStatus
	inFlight  bool
	expired   bool
	exhausted bool

	now func() time.Time
}

// NewSession builds the session for a freshly fetched attempt and picks the
// first question.
func NewSession(a *quiz.Attempt, opts SessionOptions) (*Session, error) {
	if a == nil || len(a.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == (adaptive.Policy{}) {
		opts.Policy = adaptive.DefaultPolicy()
	}

	s := &Session{
		attempt:   a,
		byID:      make(map[int64]quiz.Question, len(a.Questions)),
		selected:  make(map[int64][]int64),
		text:      make(map[int64]string),
		durations: make(map[int64]time.Duration),
		outcomes:  make(map[int64]bool),
		errs:      make(map[int64]string),
		policy:    opts.Policy,
		resetMode: opts.ResetMode,
		status:    a.Status,
		expired:   a.Status.Abandoned(),
		now:       opts.Now,
	}
	for _, q := range a.Questions {
		s.byID[q.ID] = q
	}

	if opts.adaptive(a) {
		s.builder = adaptive.NewBuilder(adaptive.NewPool(a.Questions), opts.Policy, opts.ResetMode)
		if _, ok := s.builder.Start(); !ok {
			return nil, ErrNoQuestions
		}
	} else {
		s.linear = slices.Clone(a.Questions)
	}

	s.questionStart = s.now()
	return s, nil
}

// Attempt returns the attempt metadata the session was built from.
func (s *Session) Attempt() *quiz.Attempt { return s.attempt }

// ID returns the attempt id.
func (s *Session) ID() int64 { return s.attempt.ID }

// Adaptive reports whether questions are sequenced adaptively.
func (s *Session) Adaptive() bool { return s.builder != nil }

// Sequence returns the questions visible so far.
func (s *Session) Sequence() []quiz.Question {
	if s.builder != nil {
		return s.builder.Sequence()
	}
	return slices.Clone(s.linear)
}

func (s *Session) seqLen() int {
	if s.builder != nil {
		return s.builder.Len()
	}
	return len(s.linear)
}

func (s *Session) at(i int) quiz.Question {
	if s.builder != nil {
		return s.builder.At(i)
	}
	return s.linear[i]
}

// Current returns the question on screen.
func (s *Session) Current() quiz.Question { return s.at(s.index) }

// Index returns the position of the current question in the sequence.
func (s *Session) Index() int { return s.index }

// Total returns the number of questions in the attempt.
func (s *Session) Total() int { return len(s.attempt.Questions) }

// Builder exposes the adaptive builder; nil for linear quizzes.
func (s *Session) Builder() *adaptive.Builder { return s.builder }

// AtFrontier reports whether the current question is the last one served.
func (s *Session) AtFrontier() bool { return s.index == s.seqLen()-1 }

// CanAdvance reports whether "next" can still produce a question. When it
// returns false at the frontier the caller should offer submission instead.
func (s *Session) CanAdvance() bool {
	if !s.AtFrontier() {
		return true
	}
	if s.builder != nil {
		return s.builder.HasMore()
	}
	return false
}

// Exhausted reports whether an advance found no question left.
func (s *Session) Exhausted() bool { return s.exhausted }

// Status returns the last known server status.
func (s *Session) Status() quiz.AttemptStatus { return s.status }

// Expired reports whether the session was closed by the server.
func (s *Session) Expired() bool { return s.expired }

// Finished reports whether the attempt reached SUBMITTED or GRADED.
func (s *Session) Finished() bool { return s.status.Finished() }

// InFlight reports whether a mutating call is outstanding.
func (s *Session) InFlight() bool { return s.inFlight }

// Elapsed returns the local attempt clock.
func (s *Session) Elapsed() time.Duration { return s.elapsed }

// TotalSeconds returns the elapsed time in whole seconds.
func (s *Session) TotalSeconds() int { return int(s.elapsed / time.Second) }

// Tick advances the local attempt clock. Nothing is persisted per tick.
func (s *Session) Tick(d time.Duration) {
	if s.frozen() || d <= 0 {
		return
	}
	s.elapsed += d
}

func (s *Session) frozen() bool { return s.expired || s.status.Finished() }

func (s *Session) guard() error {
	switch {
	case s.expired:
		return ErrSessionExpired
	case s.status.Finished():
		return ErrFinished
	}
	return nil
}

// Select records a choice. Single-choice questions keep one answer;
// multiple-choice questions toggle membership.
func (s *Session) Select(questionID, answerID int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	q, ok := s.byID[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if _, ok := q.Answer(answerID); !ok {
		return fmt.Errorf("answer %d does not belong to question %d", answerID, questionID)
	}

	if !q.MultipleChoice() {
		s.selected[questionID] = []int64{answerID}
		return nil
	}
	cur := s.selected[questionID]
	if i := slices.Index(cur, answerID); i >= 0 {
		s.selected[questionID] = slices.Delete(slices.Clone(cur), i, i+1)
		return nil
	}
	s.selected[questionID] = append(slices.Clone(cur), answerID)
	return nil
}

// SetText records a free-text response.
func (s *Session) SetText(questionID int64, text string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if _, ok := s.byID[questionID]; !ok {
		return ErrUnknownQuestion
	}
	s.text[questionID] = text
	return nil
}

// Selected returns the chosen answer ids for a question.
func (s *Session) Selected(questionID int64) []int64 { return slices.Clone(s.selected[questionID]) }

// Text returns the free-text response for a question.
func (s *Session) Text(questionID int64) string { return s.text[questionID] }

// Answered reports whether the question has a non-empty answer.
func (s *Session) Answered(questionID int64) bool {
	q, ok := s.byID[questionID]
	if !ok {
		return false
	}
	if q.OpenEnded() {
		return strings.TrimSpace(s.text[questionID]) != ""
	}
	return len(s.selected[questionID]) > 0
}

// AnsweredCount counts answered questions across the whole attempt.
func (s *Session) AnsweredCount() int {
	n := 0
	for id := range s.byID {
		if s.Answered(id) {
			n++
		}
	}
	return n
}

// UnansweredCount counts questions still without an answer.
func (s *Session) UnansweredCount() int { return s.Total() - s.AnsweredCount() }

// Duration returns the accumulated time spent on a question, including the
// running span if it is on screen.
func (s *Session) Duration(questionID int64) time.Duration {
	d := s.durations[questionID]
	if s.Current().ID == questionID && !s.frozen() {
		d += s.now().Sub(s.questionStart)
	}
	return d
}

// QuestionError returns the inline error for a question, if any.
func (s *Session) QuestionError(questionID int64) string { return s.errs[questionID] }

// Outcome returns the last correctness reported for a question.
func (s *Session) Outcome(questionID int64) (correct, known bool) {
	correct, known = s.outcomes[questionID]
	return correct, known
}

// flushDuration banks the time spent on the current question so far.
func (s *Session) flushDuration() {
	now := s.now()
	if !s.frozen() {
		s.durations[s.Current().ID] += now.Sub(s.questionStart)
	}
	s.questionStart = now
}

func (s *Session) moveTo(i int) {
	s.flushDuration()
	s.index = i
}

// Prev moves back one question. Returns false at the start.
func (s *Session) Prev() bool {
	if s.frozen() || s.index == 0 {
		return false
	}
	s.moveTo(s.index - 1)
	return true
}

// Forward revisits the next already-served question. It never serves a new
// one; use Step for that.
func (s *Session) Forward() bool {
	if s.frozen() || s.AtFrontier() {
		return false
	}
	s.moveTo(s.index + 1)
	return true
}

// StepResult describes what a "next" action did.
type StepResult struct {
	// Moved is set when the index changed.
	Moved bool
	// Served is set when a new question was appended to the sequence.
	Served bool
	// Question is the question now on screen.
	Question quiz.Question
	// Exhausted is set when no further question exists; the caller should
	// offer submission.
	Exhausted bool
	// DifficultyChanged is set when the served question's level differs
	// from the previous one.
	DifficultyChanged bool
}

// Step is the single entry point for "next". Behind the frontier it moves
// forward through already-served questions. At the frontier it asks the
// builder for a new question using wasCorrect as the outcome of the current
// one.
func (s *Session) Step(wasCorrect bool) (StepResult, error) {
	if err := s.guard(); err != nil {
		return StepResult{}, err
	}
	if !s.AtFrontier() {
		s.moveTo(s.index + 1)
		return StepResult{Moved: true, Question: s.Current()}, nil
	}

	if s.builder == nil {
		s.exhausted = true
		return StepResult{Exhausted: true, Question: s.Current()}, nil
	}

	prev := s.Current()
	q, ok := s.builder.Advance(wasCorrect)
	if !ok {
		s.exhausted = true
		return StepResult{Exhausted: true, Question: prev}, nil
	}
	s.moveTo(s.index + 1)
	return StepResult{
		Moved:             true,
		Served:            true,
		Question:          q,
		DifficultyChanged: q.Difficulty != prev.Difficulty,
	}, nil
}

// MarkExpired freezes the session after the server reported expiry.
func (s *Session) MarkExpired() {
	if !s.expired {
		s.flushDuration()
	}
	s.expired = true
	s.status = quiz.StatusAbandoned
}

// ApplyStatus folds a polled or returned status into the session.
func (s *Session) ApplyStatus(st quiz.AttemptStatus) {
	switch {
	case st.Abandoned():
		s.MarkExpired()
	case st.Finished():
		s.flushDuration()
		s.status = st
	}
}

// ConfirmMessage is the prompt shown when submitting with unanswered
// questions.
func ConfirmMessage(answered, total int) string {
	return fmt.Sprintf("You've only answered %d out of %d questions. Are you sure you want to submit?", answered, total)
}

// NeedsConfirm reports whether submitting should ask for confirmation first.
func (s *Session) NeedsConfirm() bool { return s.AnsweredCount() < s.Total() }
