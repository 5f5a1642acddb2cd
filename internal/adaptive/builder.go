package adaptive

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizpath/internal/quiz"
)

// ResetMode decides what counts as a difficulty change for streak resets.
type ResetMode int

const (
	// ResetOnEffectiveChange resets streaks only when the question actually
	// served has a different difficulty than the one just answered.
	ResetOnEffectiveChange ResetMode = iota

	// ResetOnTargetChange resets streaks whenever the policy asks for a new
	// level, even if fallback then serves the same level again.
	ResetOnTargetChange
)

// ParseResetMode accepts "effective" or "target".
func ParseResetMode(s string) (ResetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "effective":
		return ResetOnEffectiveChange, nil
	case "target":
		return ResetOnTargetChange, nil
	}
	return 0, fmt.Errorf("unknown streak reset mode %q", s)
}

func (m ResetMode) String() string {
	if m == ResetOnTargetChange {
		return "target"
	}
	return "effective"
}

// Builder grows the visible question sequence of an adaptive attempt.
// The sequence is append-only and its head is fixed once started.
type Builder struct {
	pool      *Pool
	policy    Policy
	mode      ResetMode
	streak    Streak
	seq       []quiz.Question
	exhausted bool
}

// NewBuilder creates a builder over pool.
func NewBuilder(pool *Pool, policy Policy, mode ResetMode) *Builder {
	return &Builder{pool: pool, policy: policy, mode: mode}
}

// Start picks the first question (MEDIUM, else EASY, else HARD). Calling it
// again returns the existing head.
func (b *Builder) Start() (quiz.Question, bool) {
	if len(b.seq) > 0 {
		return b.seq[0], true
	}
	if q, ok := b.pullFirst(InitialOrder); ok {
		b.seq = append(b.seq, q)
		return q, true
	}
	b.exhausted = true
	return quiz.Question{}, false
}

// Advance records the outcome of the last question in the sequence and
// appends the next one. It returns false once every bucket is empty; the
// last element of the sequence is then final.
func (b *Builder) Advance(wasCorrect bool) (quiz.Question, bool) {
	if len(b.seq) == 0 {
		return b.Start()
	}
	if b.exhausted {
		return quiz.Question{}, false
	}

	current := b.seq[len(b.seq)-1].Difficulty
	b.streak.Record(wasCorrect)
	target := b.policy.Target(current, b.streak)

	q, ok := b.pullFirst(FallbackOrder(target))
	b.settle(current, target, q.Difficulty, ok)

	if !ok {
		b.exhausted = true
		return quiz.Question{}, false
	}
	b.seq = append(b.seq, q)
	return q, true
}

// Restore replays an already-served sequence (for a resumed attempt) by
// moving the given questions out of the pool in order. Unknown ids are
// skipped. The streak is rebuilt from correct, where a missing entry counts
// as wrong. The outcome of the last restored question is left for the next
// Advance, as it would be in a live attempt.
func (b *Builder) Restore(ids []int64, correct map[int64]bool) {
	for _, id := range ids {
		q, ok := b.pool.Take(id)
		if !ok {
			continue
		}
		if last, ok := b.Last(); ok {
			b.streak.Record(correct[last.ID])
			b.settle(last.Difficulty, b.policy.Target(last.Difficulty, b.streak), q.Difficulty, true)
		}
		b.seq = append(b.seq, q)
	}
	b.exhausted = len(b.seq) > 0 && b.pool.Empty()
}

// settle applies the streak reset rule after moving from current towards
// target. served is only meaningful when ok.
func (b *Builder) settle(current, target, served quiz.Difficulty, ok bool) {
	switch b.mode {
	case ResetOnTargetChange:
		if target != current {
			b.streak.Reset()
		}
	default:
		if ok && served != current {
			b.streak.Reset()
		}
	}
}

func (b *Builder) pullFirst(order []quiz.Difficulty) (quiz.Question, bool) {
	for _, d := range order {
		if q, ok := b.pool.Pull(d); ok {
			return q, true
		}
	}
	return quiz.Question{}, false
}

// Sequence returns a copy of the questions served so far.
func (b *Builder) Sequence() []quiz.Question {
	out := make([]quiz.Question, len(b.seq))
	copy(out, b.seq)
	return out
}

// At returns the i-th served question.
func (b *Builder) At(i int) quiz.Question { return b.seq[i] }

// Len returns the sequence length.
func (b *Builder) Len() int { return len(b.seq) }

// Last returns the most recently served question.
func (b *Builder) Last() (quiz.Question, bool) {
	if len(b.seq) == 0 {
		return quiz.Question{}, false
	}
	return b.seq[len(b.seq)-1], true
}

// Streak returns the current streak counters.
func (b *Builder) Streak() Streak { return b.streak }

// Exhausted reports whether Advance has run out of questions.
func (b *Builder) Exhausted() bool { return b.exhausted }

// HasMore reports whether the pool can still serve a question.
func (b *Builder) HasMore() bool { return !b.exhausted && !b.pool.Empty() }

// Pool exposes the underlying pool for inspection.
func (b *Builder) Pool() *Pool { return b.pool }
