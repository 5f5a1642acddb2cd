package attempt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/quizpath/internal/quiz"
)

func TestResumeIndex(t *testing.T) {
	order := []int64{1, 2, 3, 4}
	tests := []struct {
		name      string
		responses []quiz.Response
		want      int
	}{
		{"no responses", nil, 0},
		{
			"one past last answered",
			[]quiz.Response{
				{QuestionID: 1, AnswerIDs: []int64{11}},
				{QuestionID: 2},
				{QuestionID: 3, TextResponse: "x"},
				{QuestionID: 4, TextResponse: "  "},
			},
			3,
		},
		{"only first answered", []quiz.Response{{QuestionID: 1, AnswerIDs: []int64{11}}}, 1},
		{"last answered stays on last", []quiz.Response{{QuestionID: 4, AnswerIDs: []int64{41}}}, 3},
		{"only empty responses", []quiz.Response{{QuestionID: 2}, {QuestionID: 3, TextResponse: " "}}, 0},
		{"unknown question ids", []quiz.Response{{QuestionID: 99, AnswerIDs: []int64{1}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResumeIndex(order, tt.responses); got != tt.want {
				t.Errorf("ResumeIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResumeIndex_EmptyOrder(t *testing.T) {
	if got := ResumeIndex(nil, []quiz.Response{{QuestionID: 1, AnswerIDs: []int64{1}}}); got != 0 {
		t.Errorf("ResumeIndex = %d, want 0", got)
	}
}

func TestResume_LinearSeedsAnswers(t *testing.T) {
	a := &quiz.Attempt{
		ID:     1,
		Status: quiz.StatusInProgress,
		Questions: []quiz.Question{
			choice(1, quiz.Easy), multi(2, quiz.Medium), open(3, quiz.Hard), choice(4, quiz.Easy),
		},
	}
	s := newTestSession(t, a, newClock())
	Resume(s, []quiz.Response{
		{QuestionID: 1, AnswerIDs: []int64{12}},
		{QuestionID: 2, AnswerIDs: []int64{21, 22, 999}},
		{QuestionID: 3, TextResponse: "  my answer "},
	})

	assert.Equal(t, []int64{12}, s.Selected(1))
	assert.Equal(t, []int64{21, 22}, s.Selected(2), "foreign answer ids are dropped")
	assert.Equal(t, "my answer", s.Text(3))
	assert.Equal(t, 3, s.Index())
	assert.Equal(t, int64(4), s.Current().ID)
}

func TestResume_AdaptiveRebuildsSequence(t *testing.T) {
	yes := true
	s := newTestSession(t, adaptiveAttempt(), newClock())
	Resume(s, []quiz.Response{
		{QuestionID: 2, AnswerIDs: []int64{21}, Correct: &yes},
		{QuestionID: 4, AnswerIDs: []int64{41}, Correct: &yes},
	})

	// HARD is empty now, so the question served on resume falls back to MEDIUM.
	assert.Equal(t, []int64{2, 4, 3}, seqIDs(s))
	assert.Equal(t, 2, s.Index(), "one past the last answered question")
	assert.Equal(t, int64(3), s.Current().ID)
	assert.False(t, s.Answered(3))
	assert.Equal(t, 3, s.Builder().Pool().Remaining())

	correct, known := s.Outcome(4)
	assert.True(t, known)
	assert.True(t, correct)
}

func TestResume_AdaptiveServesNextUnanswered(t *testing.T) {
	a := &quiz.Attempt{
		ID: 3, Adaptive: true, Status: quiz.StatusInProgress,
		Questions: []quiz.Question{choice(1, quiz.Medium), choice(2, quiz.Medium), choice(3, quiz.Easy)},
	}
	s := newTestSession(t, a, newClock())
	Resume(s, []quiz.Response{{QuestionID: 1, AnswerIDs: []int64{11}}})

	assert.Equal(t, []int64{1, 2}, seqIDs(s))
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, int64(2), s.Current().ID)
	assert.False(t, s.Answered(2))
	assert.True(t, s.CanAdvance(), "questions remain in the pools")
}

func TestResume_AdaptiveAllAnsweredStaysOnLast(t *testing.T) {
	a := &quiz.Attempt{
		ID: 4, Adaptive: true, Status: quiz.StatusInProgress,
		Questions: []quiz.Question{choice(1, quiz.Medium), choice(2, quiz.Easy)},
	}
	s := newTestSession(t, a, newClock())
	Resume(s, []quiz.Response{
		{QuestionID: 1, AnswerIDs: []int64{11}},
		{QuestionID: 2, AnswerIDs: []int64{21}},
	})

	assert.Equal(t, []int64{1, 2}, seqIDs(s))
	assert.Equal(t, 1, s.Index())
	assert.False(t, s.CanAdvance())
}

func seqIDs(s *Session) []int64 {
	var out []int64
	for _, q := range s.Sequence() {
		out = append(out, q.ID)
	}
	return out
}

func TestResume_AdaptiveWithoutAnswersKeepsHead(t *testing.T) {
	s := newTestSession(t, adaptiveAttempt(), newClock())
	Resume(s, nil)
	assert.Equal(t, int64(2), s.Current().ID)
	assert.Len(t, s.Sequence(), 1)
}

func TestLoad(t *testing.T) {
	linear := func(st quiz.AttemptStatus, responses ...quiz.Response) *quiz.Attempt {
		return &quiz.Attempt{
			ID:        9,
			Status:    st,
			Questions: []quiz.Question{choice(1, quiz.Easy), choice(2, quiz.Easy), choice(3, quiz.Easy)},
			Responses: responses,
		}
	}

	tests := []struct {
		name        string
		attempt     *quiz.Attempt
		getErr      error
		wantErr     error
		wantResumed bool
		wantIndex   int
	}{
		{name: "fresh", attempt: linear(quiz.StatusInProgress)},
		{
			name:        "resumed",
			attempt:     linear(quiz.StatusInProgress, quiz.Response{QuestionID: 1, AnswerIDs: []int64{11}}),
			wantResumed: true,
			wantIndex:   1,
		},
		{name: "submitted", attempt: linear(quiz.StatusSubmitted), wantErr: ErrFinished},
		{name: "graded", attempt: linear(quiz.StatusGraded), wantErr: ErrFinished},
		{name: "abandoned", attempt: linear(quiz.StatusAbandoned), wantErr: ErrSessionExpired},
		{name: "fetch fails", getErr: errNetwork, wantErr: errNetwork},
		{name: "no questions", attempt: &quiz.Attempt{ID: 9, Status: quiz.StatusInProgress}, wantErr: ErrNoQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{attempt: tt.attempt, getErr: tt.getErr}
			s, resumed, err := Load(context.Background(), api, 9, DefaultSessionOptions())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resumed != tt.wantResumed {
				t.Errorf("resumed = %v, want %v", resumed, tt.wantResumed)
			}
			if s.Index() != tt.wantIndex {
				t.Errorf("index = %d, want %d", s.Index(), tt.wantIndex)
			}
		})
	}
}
