package quiz

import (
	"strings"
	"time"
)

// Response is a persisted answer as returned with an attempt.
// Choice questions carry AnswerIDs; open-ended questions carry TextResponse.
type Response struct {
	QuestionID       int64
	AnswerIDs        []int64
	TextResponse     string
	IsMultipleChoice bool
	IsOpenEnded      bool
	// Correct is the server's grading of the answer, nil when not reported.
	Correct *bool
}

// Empty reports whether the response records no answer at all.
func (r Response) Empty() bool {
	return len(r.AnswerIDs) == 0 && strings.TrimSpace(r.TextResponse) == ""
}

// Attempt is one student's run through a quiz.
type Attempt struct {
	ID          int64
	QuizID      int64
	QuizTitle   string
	Adaptive    bool
	Status      AttemptStatus
	Score       float64
	AttemptTime int // seconds
	StartedAt   time.Time
	CompletedAt *time.Time
	Questions   []Question
	Responses   []Response
}

// QuestionOrder returns question ids in server order.
func (a *Attempt) QuestionOrder() []int64 {
	ids := make([]int64, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.ID
	}
	return ids
}

// AnswerResult is one option in a graded question.
type AnswerResult struct {
	ID         int64
	Text       string
	IsSelected bool
	IsCorrect  bool
}

// QuestionResult is a graded question.
type QuestionResult struct {
	ID           int64
	Text         string
	Type         QuestionType
	IsCorrect    bool
	TextResponse string
	Answers      []AnswerResult
}

// AttemptResult is the read-only view of a finished attempt.
type AttemptResult struct {
	AttemptID      int64
	QuizID         int64
	QuizTitle      string
	Score          float64
	AttemptTime    int
	StartedAt      time.Time
	CompletedAt    *time.Time
	TotalQuestions int
	CorrectAnswers int
	Questions      []QuestionResult
}

// QuizSession is a teacher-opened, access-code-gated window.
type QuizSession struct {
	ID         int64
	QuizID     int64
	AccessCode string
	StartTime  time.Time
	EndTime    time.Time
	Status     string
}

// TypeStats aggregates answers for one question type.
type TypeStats struct {
	Attempted      int
	Incorrect      int
	AverageTimeSec float64
}

// WeaknessReport summarises a student's mistakes over a date range.
type WeaknessReport struct {
	TotalQuestions int
	RushingErrors  int
	StatsByType    map[QuestionType]TypeStats
}
