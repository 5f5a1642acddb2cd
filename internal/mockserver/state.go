package mockserver

import (
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizpath/internal/quiz"
)

// Messages returned by the fake server, matching the real backend.
const (
	MsgSessionExpired    = "Quiz session has expired. This attempt is no longer valid."
	MsgNotInProgress     = "Attempt is no longer in progress"
	MsgAttemptNotFound   = "Attempt not found or not accessible"
	MsgCodeExpired       = "Session has expired"
	MsgInvalidCode       = "Invalid access code"
	MsgResultsNotReady   = "Attempt results are not available. The quiz must be submitted first."
	MsgQuizNotFound      = "Quiz not found"
	MsgQuizInactive      = "Quiz is not active"
	MsgCodeMismatch      = "Access code does not match this quiz"
	MsgSessionNotStarted = "Quiz session has not started yet"
	MsgWindowClosed      = "Quiz session has expired"
	MsgQuestionNotInQuiz = "Question does not belong to this quiz"
	MsgAnswerNotInQ      = "Answer does not belong to this question"
	MsgSessionExists     = "An active session already exists for this quiz"
	MsgNotOwner          = "You can only create sessions for your own quizzes"
)

// Session statuses.
const (
	SessionActive  = "ACTIVE"
	SessionExpired = "EXPIRED"
)

// DefaultSessionMinutes is used when a session request has no duration.
const DefaultSessionMinutes = 30

// RushThreshold is the response time under which a wrong answer counts as
// a rushing error in the weakness report.
const RushThreshold = 5

type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string { return e.Message }

func badRequest(msg string) error { return &statusError{Status: http.StatusBadRequest, Message: msg} }

type user struct {
	ID       int64
	Username string
	Password string
	Role     string
}

type question struct {
	quiz.Question
	correct  map[int64]bool
	accepted []string
}

type quizDef struct {
	ID        int64
	Title     string
	Adaptive  bool
	Active    bool
	OwnerID   int64
	Questions []question
}

type response struct {
	QuestionID   int64
	Type         quiz.QuestionType
	AnswerIDs    []int64
	Text         string
	Correct      bool
	ResponseTime int
	At           time.Time
}

type attemptRec struct {
	ID           int64
	UserID       int64
	QuizID       int64
	SessionID    int64
	Status       quiz.AttemptStatus
	Score        float64
	AttemptTime  int
	StartedAt    time.Time
	CompletedAt  *time.Time
	LastAccessed time.Time

	order     []int64
	responses map[int64]*response
}

// state is the in-memory backend. All methods are safe for concurrent use.
type state struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[int64]*user
	quizzes  map[int64]*quizDef
	sessions map[int64]*quiz.QuizSession
	attempts map[int64]*attemptRec

	nextSession int64
	nextAttempt int64
	nextResp    int64
}

func newState(now func() time.Time) *state {
	return &state{
		now:      now,
		users:    make(map[int64]*user),
		quizzes:  make(map[int64]*quizDef),
		sessions: make(map[int64]*quiz.QuizSession),
		attempts: make(map[int64]*attemptRec),
	}
}

func (s *state) login(username, password string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.Password == password {
			return u, true
		}
	}
	return nil, false
}

// newAccessCode returns six upper-case characters from a random UUID.
func newAccessCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

// sessionLive reports whether a session currently admits attempts, and
// flips it to EXPIRED once its window has passed.
func (s *state) sessionLive(sess *quiz.QuizSession) bool {
	if sess.Status == SessionActive && s.now().After(sess.EndTime) {
		sess.Status = SessionExpired
	}
	return sess.Status == SessionActive
}

func (s *state) sessionByCode(code string) *quiz.QuizSession {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, sess := range s.sessions {
		if sess.AccessCode == code {
			return sess
		}
	}
	return nil
}

// createSession opens an access-code window on a quiz owned by the caller.
func (s *state) createSession(userID, quizID int64, minutes int) (*quiz.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[quizID]
	if !ok {
		return nil, badRequest(MsgQuizNotFound)
	}
	if q.OwnerID != userID {
		return nil, &statusError{Status: http.StatusForbidden, Message: MsgNotOwner}
	}
	if !q.Active {
		return nil, badRequest("Cannot create a session for an inactive quiz")
	}
	for _, existing := range s.sessions {
		if existing.QuizID == quizID && s.sessionLive(existing) {
			return nil, badRequest(MsgSessionExists)
		}
	}
	if minutes <= 0 {
		minutes = DefaultSessionMinutes
	}
	return s.addSession(quizID, newAccessCode(), s.now(), time.Duration(minutes)*time.Minute), nil
}

func (s *state) addSession(quizID int64, code string, start time.Time, d time.Duration) *quiz.QuizSession {
	s.nextSession++
	sess := &quiz.QuizSession{
		ID:         s.nextSession,
		QuizID:     quizID,
		AccessCode: code,
		StartTime:  start,
		EndTime:    start.Add(d),
		Status:     SessionActive,
	}
	s.sessions[sess.ID] = sess
	return sess
}

func (s *state) validateCode(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionByCode(code)
	return sess != nil && s.sessionLive(sess) && !s.now().Before(sess.StartTime)
}

// expireSession closes a session immediately.
func (s *state) expireSession(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionByCode(code)
	if sess == nil {
		return false
	}
	sess.Status = SessionExpired
	return true
}

// startAttempt joins a quiz. An existing in-progress attempt whose session
// is still live is returned instead of a new one.
func (s *state) startAttempt(userID, quizID int64, code string) (*attemptRec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[quizID]
	if !ok {
		return nil, badRequest(MsgQuizNotFound)
	}
	if !q.Active {
		return nil, badRequest(MsgQuizInactive)
	}

	var sess *quiz.QuizSession
	if strings.TrimSpace(code) != "" {
		sess = s.sessionByCode(code)
		switch {
		case sess == nil:
			return nil, badRequest(MsgInvalidCode)
		case sess.Status != SessionActive:
			return nil, badRequest(MsgCodeExpired)
		case sess.QuizID != quizID:
			return nil, badRequest(MsgCodeMismatch)
		case s.now().Before(sess.StartTime):
			return nil, badRequest(MsgSessionNotStarted)
		case s.now().After(sess.EndTime):
			sess.Status = SessionExpired
			return nil, badRequest(MsgWindowClosed)
		}
	}

	for _, a := range s.attempts {
		if a.UserID != userID || a.QuizID != quizID || a.Status != quiz.StatusInProgress {
			continue
		}
		if s.checkAttempt(a) {
			return a, nil
		}
	}

	s.nextAttempt++
	a := &attemptRec{
		ID:        s.nextAttempt,
		UserID:    userID,
		QuizID:    quizID,
		Status:    quiz.StatusInProgress,
		StartedAt: s.now(),
		responses: make(map[int64]*response),
	}
	if sess != nil {
		a.SessionID = sess.ID
	}
	s.attempts[a.ID] = a
	return a, nil
}

// checkAttempt abandons an in-progress attempt whose session is gone and
// reports whether it is still in progress.
func (s *state) checkAttempt(a *attemptRec) bool {
	if a.Status != quiz.StatusInProgress {
		return false
	}
	if a.SessionID == 0 {
		return true
	}
	sess, ok := s.sessions[a.SessionID]
	if !ok || !s.sessionLive(sess) {
		a.Status = quiz.StatusAbandoned
		return false
	}
	return true
}

func (s *state) ownAttempt(userID, attemptID int64) (*attemptRec, error) {
	a, ok := s.attempts[attemptID]
	if !ok || a.UserID != userID {
		return nil, &statusError{Status: http.StatusNotFound, Message: MsgAttemptNotFound}
	}
	return a, nil
}

// writable loads an attempt that may still be changed.
func (s *state) writable(userID, attemptID int64) (*attemptRec, error) {
	a, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status == quiz.StatusInProgress && !s.checkAttempt(a) {
		return nil, badRequest(MsgSessionExpired)
	}
	if a.Status != quiz.StatusInProgress {
		return nil, badRequest(MsgNotInProgress)
	}
	return a, nil
}

func (s *state) getAttempt(userID, attemptID int64) (*quiz.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	s.checkAttempt(a)
	return s.view(a), nil
}

func (s *state) inProgress(userID int64) []*quiz.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*quiz.Attempt
	for _, a := range s.sortedAttempts() {
		if a.UserID == userID && s.checkAttempt(a) {
			out = append(out, s.view(a))
		}
	}
	return out
}

func (s *state) sortedAttempts() []*attemptRec {
	out := make([]*attemptRec, 0, len(s.attempts))
	for _, a := range s.attempts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// submitResponse grades and upserts one answer.
func (s *state) submitResponse(userID, attemptID int64, in responseInput) (*response, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.writable(userID, attemptID)
	if err != nil {
		return nil, 0, err
	}
	q, ok := s.quizzes[a.QuizID].question(in.QuestionID)
	if !ok {
		return nil, 0, badRequest(MsgQuestionNotInQuiz)
	}

	ids := in.AnswerIDs
	if in.AnswerID != nil && len(ids) == 0 {
		ids = []int64{*in.AnswerID}
	}
	for _, id := range ids {
		if _, ok := q.correct[id]; !ok {
			return nil, 0, badRequest(MsgAnswerNotInQ)
		}
	}
	if q.Type == quiz.SingleChoice && len(ids) > 1 {
		ids = ids[:1]
	}

	r, existed := a.responses[q.ID]
	if !existed {
		r = &response{QuestionID: q.ID, Type: q.Type}
		a.responses[q.ID] = r
		a.order = append(a.order, q.ID)
	}
	r.AnswerIDs = slices.Clone(ids)
	r.Text = strings.TrimSpace(in.TextResponse)
	r.ResponseTime = in.ResponseTime
	r.At = s.now()
	r.Correct = q.grade(r)
	a.LastAccessed = r.At

	s.nextResp++
	return r, s.nextResp, nil
}

type responseInput struct {
	QuestionID   int64
	AnswerID     *int64
	AnswerIDs    []int64
	TextResponse string
	ResponseTime int
}

func (q *quizDef) question(id int64) (*question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// grade marks choice answers correct when the selection equals the set of
// correct options, and free text when it matches an accepted answer.
func (q *question) grade(r *response) bool {
	if q.Type == quiz.OpenEnded {
		for _, acc := range q.accepted {
			if strings.EqualFold(strings.TrimSpace(acc), r.Text) {
				return true
			}
		}
		return false
	}
	if len(r.AnswerIDs) == 0 {
		return false
	}
	want := 0
	for _, ok := range q.correct {
		if ok {
			want++
		}
	}
	got := 0
	for _, id := range r.AnswerIDs {
		if !q.correct[id] {
			return false
		}
		got++
	}
	return got == want
}

func (s *state) saveProgress(userID, attemptID int64) (*quiz.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.writable(userID, attemptID)
	if err != nil {
		return nil, err
	}
	a.LastAccessed = s.now()
	return s.view(a), nil
}

// submitAttempt scores and closes the attempt: score = correct/total*100.
func (s *state) submitAttempt(userID, attemptID int64, totalTime int) (*quiz.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.writable(userID, attemptID)
	if err != nil {
		return nil, err
	}

	total := len(s.quizzes[a.QuizID].Questions)
	correct := 0
	for _, r := range a.responses {
		if r.Correct {
			correct++
		}
	}
	if total > 0 {
		a.Score = float64(correct) / float64(total) * 100
	}
	now := s.now()
	a.Status = quiz.StatusSubmitted
	a.CompletedAt = &now
	a.AttemptTime = totalTime
	return s.view(a), nil
}

// results returns the graded view and marks the attempt GRADED.
func (s *state) results(userID, attemptID int64) (*quiz.AttemptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !a.Status.Finished() {
		return nil, badRequest(MsgResultsNotReady)
	}
	a.Status = quiz.StatusGraded
	return s.result(a), nil
}

func (s *state) completed(userID int64) []*quiz.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*quiz.AttemptResult
	for _, a := range s.sortedAttempts() {
		if a.UserID == userID && a.Status.Finished() {
			out = append(out, s.result(a))
		}
	}
	return out
}

func (s *state) result(a *attemptRec) *quiz.AttemptResult {
	q := s.quizzes[a.QuizID]
	res := &quiz.AttemptResult{
		AttemptID:      a.ID,
		QuizID:         q.ID,
		QuizTitle:      q.Title,
		Score:          a.Score,
		AttemptTime:    a.AttemptTime,
		StartedAt:      a.StartedAt,
		CompletedAt:    a.CompletedAt,
		TotalQuestions: len(q.Questions),
	}
	for _, qq := range q.Questions {
		r := a.responses[qq.ID]
		qr := quiz.QuestionResult{ID: qq.ID, Text: qq.Text, Type: qq.Type}
		if r != nil {
			qr.IsCorrect = r.Correct
			qr.TextResponse = r.Text
			if r.Correct {
				res.CorrectAnswers++
			}
		}
		for _, ans := range qq.Answers {
			qr.Answers = append(qr.Answers, quiz.AnswerResult{
				ID:         ans.ID,
				Text:       ans.Text,
				IsSelected: r != nil && slices.Contains(r.AnswerIDs, ans.ID),
				IsCorrect:  qq.correct[ans.ID],
			})
		}
		res.Questions = append(res.Questions, qr)
	}
	return res
}

// view renders an attempt as served to the client, responses in the order
// they were first given.
func (s *state) view(a *attemptRec) *quiz.Attempt {
	q := s.quizzes[a.QuizID]
	v := &quiz.Attempt{
		ID:          a.ID,
		QuizID:      q.ID,
		QuizTitle:   q.Title,
		Adaptive:    q.Adaptive,
		Status:      a.Status,
		Score:       a.Score,
		AttemptTime: a.AttemptTime,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
	for _, qq := range q.Questions {
		v.Questions = append(v.Questions, qq.Question)
	}
	for _, id := range a.order {
		r := a.responses[id]
		correct := r.Correct
		v.Responses = append(v.Responses, quiz.Response{
			QuestionID:       r.QuestionID,
			AnswerIDs:        slices.Clone(r.AnswerIDs),
			TextResponse:     r.Text,
			IsMultipleChoice: r.Type == quiz.MultipleChoice,
			IsOpenEnded:      r.Type == quiz.OpenEnded,
			Correct:          &correct,
		})
	}
	return v
}

// weakness aggregates a user's answers given between from and to
// (inclusive dates; zero means unbounded).
func (s *state) weakness(userID int64, from, to time.Time) *quiz.WeaknessReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := &quiz.WeaknessReport{StatsByType: make(map[quiz.QuestionType]quiz.TypeStats)}
	totalTime := make(map[quiz.QuestionType]int)
	for _, a := range s.attempts {
		if a.UserID != userID {
			continue
		}
		for _, r := range a.responses {
			if !from.IsZero() && r.At.Before(from) {
				continue
			}
			if !to.IsZero() && !r.At.Before(to.AddDate(0, 0, 1)) {
				continue
			}
			rep.TotalQuestions++
			st := rep.StatsByType[r.Type]
			st.Attempted++
			if !r.Correct {
				st.Incorrect++
				if r.ResponseTime < RushThreshold {
					rep.RushingErrors++
				}
			}
			totalTime[r.Type] += r.ResponseTime
			rep.StatsByType[r.Type] = st
		}
	}
	for t, st := range rep.StatsByType {
		st.AverageTimeSec = float64(totalTime[t]) / float64(st.Attempted)
		rep.StatsByType[t] = st
	}
	return rep
}
