package quiz

import "strings"

// AttemptStatus is the server-owned lifecycle of an attempt.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusSubmitted  AttemptStatus = "SUBMITTED"
	StatusGraded     AttemptStatus = "GRADED"
	StatusAbandoned  AttemptStatus = "ABANDONED"
)

// ParseStatus never fails: anything it does not recognise is treated as
// IN_PROGRESS so the client keeps going.
func ParseStatus(s string) AttemptStatus {
	switch AttemptStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusSubmitted:
		return StatusSubmitted
	case StatusGraded:
		return StatusGraded
	case StatusAbandoned:
		return StatusAbandoned
	}
	return StatusInProgress
}

// Finished reports a terminal success state (results are viewable).
func (s AttemptStatus) Finished() bool {
	return s == StatusSubmitted || s == StatusGraded
}

// Abandoned reports the terminal failure state of an expired session.
func (s AttemptStatus) Abandoned() bool { return s == StatusAbandoned }

// Terminal reports whether no further mutation is allowed.
func (s AttemptStatus) Terminal() bool { return s.Finished() || s.Abandoned() }

func (s AttemptStatus) String() string { return string(s) }
