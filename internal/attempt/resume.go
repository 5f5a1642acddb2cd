package attempt

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/quizpath/internal/adaptive"
	"github.com/abhisek/quizpath/internal/quiz"
)

// ResumeIndex picks where to reopen an attempt: one past the last answered
// question in order. If the last question in order is itself answered the
// student stays on it rather than jumping back to the start.
func ResumeIndex(order []int64, responses []quiz.Response) int {
	if len(order) == 0 || len(responses) == 0 {
		return 0
	}

	answered := make(map[int64]bool, len(responses))
	for _, r := range responses {
		if !r.Empty() {
			answered[r.QuestionID] = true
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		if !answered[order[i]] {
			continue
		}
		if i == len(order)-1 {
			return i
		}
		return i + 1
	}
	return 0
}

// Resume replays persisted responses into a fresh session: answer maps and
// known outcomes are seeded, an adaptive sequence is rebuilt from the
// answered questions, and the index is set with ResumeIndex. Responses for
// unknown questions are ignored.
func Resume(s *Session, responses []quiz.Response) {
	var served []int64
	for _, r := range responses {
		q, ok := s.byID[r.QuestionID]
		if !ok || r.Empty() {
			continue
		}
		if q.OpenEnded() {
			s.text[q.ID] = strings.TrimSpace(r.TextResponse)
		} else {
			ids := make([]int64, 0, len(r.AnswerIDs))
			for _, id := range r.AnswerIDs {
				if _, ok := q.Answer(id); ok {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				continue
			}
			if !q.MultipleChoice() {
				ids = ids[:1]
			}
			s.selected[q.ID] = ids
		}
		if r.Correct != nil {
			s.outcomes[q.ID] = *r.Correct
		}
		served = append(served, q.ID)
	}

	if s.builder != nil && len(served) > 0 {
		// The answered questions become the visible sequence, in the order
		// they were answered; the rest stay in the pools. The next question
		// is served right away so the student lands past the last answer.
		b := adaptive.NewBuilder(adaptive.NewPool(s.attempt.Questions), s.policy, s.resetMode)
		b.Restore(served, s.outcomes)
		if b.HasMore() {
			last, _ := b.Last()
			b.Advance(s.outcomes[last.ID])
		}
		s.builder = b
	}

	order := make([]int64, 0, s.seqLen())
	for _, q := range s.Sequence() {
		order = append(order, q.ID)
	}
	s.index = ResumeIndex(order, responses)
	if s.index >= s.seqLen() {
		s.index = s.seqLen() - 1
	}
	s.questionStart = s.now()
}

// Load fetches an attempt and opens a session on it, replaying any saved
// responses. A finished attempt yields ErrFinished and an abandoned one
// ErrSessionExpired, so the caller can route to results or back out.
func Load(ctx context.Context, api API, attemptID int64, opts SessionOptions) (s *Session, resumed bool, err error) {
	a, err := api.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, false, fmt.Errorf("load attempt %d: %w", attemptID, err)
	}
	switch {
	case a.Status.Finished():
		return nil, false, ErrFinished
	case a.Status.Abandoned():
		return nil, false, ErrSessionExpired
	}

	s, err = NewSession(a, opts)
	if err != nil {
		return nil, false, err
	}
	if len(a.Responses) > 0 {
		Resume(s, a.Responses)
		resumed = true
	}
	return s, resumed, nil
}
