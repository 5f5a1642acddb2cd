package adaptive

import "github.com/abhisek/quizpath/internal/quiz"

const (
	DefaultEscalateAfter   = 3
	DefaultDeescalateAfter = 2
)

// Policy maps the current difficulty and streak to a target difficulty.
type Policy struct {
	EscalateAfter   int
	DeescalateAfter int
}

// DefaultPolicy escalates after 3 correct answers and de-escalates after 2
// wrong ones.
func DefaultPolicy() Policy {
	return Policy{
		EscalateAfter:   DefaultEscalateAfter,
		DeescalateAfter: DefaultDeescalateAfter,
	}
}

// Target returns the difficulty the next question should come from.
// Moves are one level at a time and clamp at both ends.
func (p Policy) Target(current quiz.Difficulty, s Streak) quiz.Difficulty {
	switch {
	case s.Correct >= p.EscalateAfter:
		return current.Harder()
	case s.Wrong >= p.DeescalateAfter:
		return current.Easier()
	}
	return current
}

// InitialOrder is the preference for the first question of an attempt.
var InitialOrder = []quiz.Difficulty{quiz.Medium, quiz.Easy, quiz.Hard}

// FallbackOrder returns the buckets to try for target, target first.
func FallbackOrder(target quiz.Difficulty) []quiz.Difficulty {
	switch target {
	case quiz.Hard:
		return []quiz.Difficulty{quiz.Hard, quiz.Medium, quiz.Easy}
	case quiz.Easy:
		return []quiz.Difficulty{quiz.Easy, quiz.Medium, quiz.Hard}
	}
	return []quiz.Difficulty{quiz.Medium, quiz.Easy, quiz.Hard}
}
