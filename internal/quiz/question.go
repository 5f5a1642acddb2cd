package quiz

import (
	"fmt"
	"strings"
)

// QuestionType selects how a question is answered.
type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE_CHOICE"
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	OpenEnded      QuestionType = "OPEN_ENDED"
)

// ParseQuestionType maps a wire value to a QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(s))) {
	case SingleChoice:
		return SingleChoice, nil
	case MultipleChoice:
		return MultipleChoice, nil
	case OpenEnded:
		return OpenEnded, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// Answer is one selectable option. Correctness is never sent to students.
type Answer struct {
	ID   int64
	Text string
}

// Question is immutable once fetched for an attempt.
type Question struct {
	ID         int64
	Text       string
	Type       QuestionType
	Difficulty Difficulty
	Answers    []Answer
}

// MultipleChoice reports whether several answers may be selected.
func (q Question) MultipleChoice() bool { return q.Type == MultipleChoice }

// OpenEnded reports whether the question takes free text.
func (q Question) OpenEnded() bool { return q.Type == OpenEnded }

// Answer returns the option with the given id.
func (q Question) Answer(id int64) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}
