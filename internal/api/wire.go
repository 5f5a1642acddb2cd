package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizpath/internal/quiz"
)

// Timestamp accepts both RFC 3339 and zone-less ISO-8601 date-times, and
// null.
type Timestamp struct{ time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t Timestamp) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// AnswerDTO is a selectable option. Correctness is never sent with an
// attempt.
type AnswerDTO struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuestionDTO is a question as served with an attempt.
type QuestionDTO struct {
	ID         int64       `json:"id"`
	Text       string      `json:"text"`
	Type       string      `json:"type"`
	Difficulty string      `json:"difficulty,omitempty"`
	Answers    []AnswerDTO `json:"answers"`
}

// ResponseDTO is a saved answer. Older servers send a single answerId.
type ResponseDTO struct {
	QuestionID        int64   `json:"questionId"`
	AnswerID          *int64  `json:"answerId,omitempty"`
	SelectedAnswerIDs []int64 `json:"selectedAnswerIds,omitempty"`
	TextResponse      string  `json:"textResponse,omitempty"`
	IsMultipleChoice  bool    `json:"isMultipleChoice,omitempty"`
	IsOpenEnded       bool    `json:"isOpenEnded,omitempty"`
	IsCorrect         *bool   `json:"isCorrect,omitempty"`
}

// AttemptDTO is the attempt payload.
type AttemptDTO struct {
	AttemptID   int64         `json:"attemptId"`
	QuizID      int64         `json:"quizId"`
	QuizTitle   string        `json:"quizTitle"`
	Adaptive    bool          `json:"adaptive,omitempty"`
	Status      string        `json:"status"`
	Score       *float64      `json:"score"`
	AttemptTime *int          `json:"attemptTime"`
	StartedAt   Timestamp     `json:"startedAt"`
	CompletedAt Timestamp     `json:"completedAt"`
	Questions   []QuestionDTO `json:"questions"`
	Responses   []ResponseDTO `json:"responses,omitempty"`
}

// UserResponseDTO is what the server returns for one saved answer.
type UserResponseDTO struct {
	ResponseID int64  `json:"responseId"`
	QuestionID int64  `json:"questionId"`
	AnswerID   *int64 `json:"answerId,omitempty"`
	IsCorrect  bool   `json:"isCorrect"`
}

// AnswerResultDTO is an option in a graded question.
type AnswerResultDTO struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	IsSelected bool   `json:"isSelected"`
	IsCorrect  bool   `json:"isCorrect"`
}

// QuestionResultDTO is a graded question.
type QuestionResultDTO struct {
	ID           int64             `json:"id"`
	Text         string            `json:"text"`
	Type         string            `json:"type"`
	IsCorrect    bool              `json:"isCorrect"`
	TextResponse string            `json:"textResponse,omitempty"`
	Answers      []AnswerResultDTO `json:"answers"`
}

// AttemptResultDTO is the results payload of a finished attempt.
type AttemptResultDTO struct {
	AttemptID      int64               `json:"attemptId"`
	QuizID         int64               `json:"quizId"`
	QuizTitle      string              `json:"quizTitle"`
	Score          float64             `json:"score"`
	AttemptTime    int                 `json:"attemptTime"`
	StartedAt      Timestamp           `json:"startedAt"`
	CompletedAt    Timestamp           `json:"completedAt"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectAnswers int                 `json:"correctAnswers"`
	Questions      []QuestionResultDTO `json:"questions"`
}

// QuizSessionDTO is a teacher-opened access window.
type QuizSessionDTO struct {
	SessionID  int64     `json:"sessionId"`
	QuizID     int64     `json:"quizId"`
	AccessCode string    `json:"accessCode"`
	CreatedBy  int64     `json:"createdBy,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  Timestamp `json:"createdAt"`
	ExpiresAt  Timestamp `json:"expiresAt"`
}

// TypeStatsDTO aggregates one question type in a weakness report.
type TypeStatsDTO struct {
	Attempted      int     `json:"attempted"`
	Incorrect      int     `json:"incorrect"`
	AverageTimeSec float64 `json:"averageTimeSec"`
}

// WeaknessReportDTO is the weakness report payload.
type WeaknessReportDTO struct {
	TotalQuestions int                     `json:"totalQuestions"`
	RushingErrors  int                     `json:"rushingErrors"`
	StatsByType    map[string]TypeStatsDTO `json:"statsByType"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// StartAttemptResponse carries the id of the started (or reused) attempt.
type StartAttemptResponse struct {
	AttemptID int64 `json:"attemptId"`
}

// Domain conversions.

func (d QuestionDTO) toDomain() quiz.Question {
	q := quiz.Question{
		ID:      d.ID,
		Text:    d.Text,
		Answers: make([]quiz.Answer, len(d.Answers)),
	}
	if t, err := quiz.ParseQuestionType(d.Type); err == nil {
		q.Type = t
	} else {
		q.Type = quiz.SingleChoice
	}
	if diff, err := quiz.ParseDifficulty(d.Difficulty); err == nil {
		q.Difficulty = diff
	}
	for i, a := range d.Answers {
		q.Answers[i] = quiz.Answer{ID: a.ID, Text: a.Text}
	}
	return q
}

func (d ResponseDTO) toDomain() quiz.Response {
	r := quiz.Response{
		QuestionID:       d.QuestionID,
		TextResponse:     d.TextResponse,
		IsMultipleChoice: d.IsMultipleChoice,
		IsOpenEnded:      d.IsOpenEnded,
		Correct:          d.IsCorrect,
	}
	switch {
	case len(d.SelectedAnswerIDs) > 0:
		r.AnswerIDs = append([]int64(nil), d.SelectedAnswerIDs...)
	case d.AnswerID != nil:
		r.AnswerIDs = []int64{*d.AnswerID}
	}
	return r
}

// ToDomain converts the payload into a quiz.Attempt.
func (d AttemptDTO) ToDomain() *quiz.Attempt {
	a := &quiz.Attempt{
		ID:          d.AttemptID,
		QuizID:      d.QuizID,
		QuizTitle:   d.QuizTitle,
		Adaptive:    d.Adaptive,
		Status:      quiz.ParseStatus(d.Status),
		StartedAt:   d.StartedAt.Time,
		CompletedAt: d.CompletedAt.ptr(),
		Questions:   make([]quiz.Question, len(d.Questions)),
	}
	if d.Score != nil {
		a.Score = *d.Score
	}
	if d.AttemptTime != nil {
		a.AttemptTime = *d.AttemptTime
	}
	for i, q := range d.Questions {
		a.Questions[i] = q.toDomain()
	}
	for _, r := range d.Responses {
		a.Responses = append(a.Responses, r.toDomain())
	}
	return a
}

// ToDomain converts the payload into a quiz.AttemptResult.
func (d AttemptResultDTO) ToDomain() *quiz.AttemptResult {
	r := &quiz.AttemptResult{
		AttemptID:      d.AttemptID,
		QuizID:         d.QuizID,
		QuizTitle:      d.QuizTitle,
		Score:          d.Score,
		AttemptTime:    d.AttemptTime,
		StartedAt:      d.StartedAt.Time,
		CompletedAt:    d.CompletedAt.ptr(),
		TotalQuestions: d.TotalQuestions,
		CorrectAnswers: d.CorrectAnswers,
		Questions:      make([]quiz.QuestionResult, len(d.Questions)),
	}
	for i, q := range d.Questions {
		qt, err := quiz.ParseQuestionType(q.Type)
		if err != nil {
			qt = quiz.SingleChoice
		}
		qr := quiz.QuestionResult{
			ID:           q.ID,
			Text:         q.Text,
			Type:         qt,
			IsCorrect:    q.IsCorrect,
			TextResponse: q.TextResponse,
			Answers:      make([]quiz.AnswerResult, len(q.Answers)),
		}
		for j, a := range q.Answers {
			qr.Answers[j] = quiz.AnswerResult{ID: a.ID, Text: a.Text, IsSelected: a.IsSelected, IsCorrect: a.IsCorrect}
		}
		r.Questions[i] = qr
	}
	return r
}

// ToDomain converts the payload into a quiz.QuizSession.
func (d QuizSessionDTO) ToDomain() *quiz.QuizSession {
	return &quiz.QuizSession{
		ID:         d.SessionID,
		QuizID:     d.QuizID,
		AccessCode: d.AccessCode,
		StartTime:  d.CreatedAt.Time,
		EndTime:    d.ExpiresAt.Time,
		Status:     d.Status,
	}
}

// ToDomain converts the payload into a quiz.WeaknessReport.
func (d WeaknessReportDTO) ToDomain() *quiz.WeaknessReport {
	r := &quiz.WeaknessReport{
		TotalQuestions: d.TotalQuestions,
		RushingErrors:  d.RushingErrors,
		StatsByType:    make(map[quiz.QuestionType]quiz.TypeStats, len(d.StatsByType)),
	}
	for k, v := range d.StatsByType {
		qt := quiz.QuestionType(strings.ToUpper(k))
		r.StatsByType[qt] = quiz.TypeStats{Attempted: v.Attempted, Incorrect: v.Incorrect, AverageTimeSec: v.AverageTimeSec}
	}
	return r
}

// FromAttempt builds the wire form of an attempt. Used by the fake server.
func FromAttempt(a *quiz.Attempt) AttemptDTO {
	d := AttemptDTO{
		AttemptID: a.ID,
		QuizID:    a.QuizID,
		QuizTitle: a.QuizTitle,
		Adaptive:  a.Adaptive,
		Status:    string(a.Status),
		StartedAt: Timestamp{a.StartedAt},
		Questions: make([]QuestionDTO, len(a.Questions)),
	}
	if a.CompletedAt != nil {
		d.CompletedAt = Timestamp{*a.CompletedAt}
	}
	if a.Status.Finished() {
		score, at := a.Score, a.AttemptTime
		d.Score, d.AttemptTime = &score, &at
	}
	for i, q := range a.Questions {
		qd := QuestionDTO{ID: q.ID, Text: q.Text, Type: string(q.Type), Difficulty: string(q.Difficulty), Answers: make([]AnswerDTO, len(q.Answers))}
		for j, ans := range q.Answers {
			qd.Answers[j] = AnswerDTO{ID: ans.ID, Text: ans.Text}
		}
		d.Questions[i] = qd
	}
	for _, r := range a.Responses {
		d.Responses = append(d.Responses, ResponseDTO{
			QuestionID:        r.QuestionID,
			SelectedAnswerIDs: r.AnswerIDs,
			TextResponse:      r.TextResponse,
			IsMultipleChoice:  r.IsMultipleChoice,
			IsOpenEnded:       r.IsOpenEnded,
			IsCorrect:         r.Correct,
		})
	}
	return d
}

// FromResult builds the wire form of attempt results. Used by the fake server.
func FromResult(r *quiz.AttemptResult) AttemptResultDTO {
	d := AttemptResultDTO{
		AttemptID:      r.AttemptID,
		QuizID:         r.QuizID,
		QuizTitle:      r.QuizTitle,
		Score:          r.Score,
		AttemptTime:    r.AttemptTime,
		StartedAt:      Timestamp{r.StartedAt},
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		Questions:      make([]QuestionResultDTO, len(r.Questions)),
	}
	if r.CompletedAt != nil {
		d.CompletedAt = Timestamp{*r.CompletedAt}
	}
	for i, q := range r.Questions {
		qd := QuestionResultDTO{ID: q.ID, Text: q.Text, Type: string(q.Type), IsCorrect: q.IsCorrect, TextResponse: q.TextResponse, Answers: make([]AnswerResultDTO, len(q.Answers))}
		for j, a := range q.Answers {
			qd.Answers[j] = AnswerResultDTO{ID: a.ID, Text: a.Text, IsSelected: a.IsSelected, IsCorrect: a.IsCorrect}
		}
		d.Questions[i] = qd
	}
	return d
}

// FromSession builds the wire form of a quiz session. Used by the fake server.
func FromSession(s *quiz.QuizSession) QuizSessionDTO {
	return QuizSessionDTO{
		SessionID:  s.ID,
		QuizID:     s.QuizID,
		AccessCode: s.AccessCode,
		Status:     s.Status,
		CreatedAt:  Timestamp{s.StartTime},
		ExpiresAt:  Timestamp{s.EndTime},
	}
}

// FromWeaknessReport builds the wire form of a weakness report.
func FromWeaknessReport(r *quiz.WeaknessReport) WeaknessReportDTO {
	d := WeaknessReportDTO{
		TotalQuestions: r.TotalQuestions,
		RushingErrors:  r.RushingErrors,
		StatsByType:    make(map[string]TypeStatsDTO, len(r.StatsByType)),
	}
	for k, v := range r.StatsByType {
		d.StatsByType[string(k)] = TypeStatsDTO{Attempted: v.Attempted, Incorrect: v.Incorrect, AverageTimeSec: v.AverageTimeSec}
	}
	return d
}
