package attempt

import (
	"time"

	att "github.com/abhisek/quizpath/internal/attempt"
)

// loadedMsg is sent when the attempt has been fetched and a session built.
type loadedMsg struct {
	Session *att.Session
	Resumed bool
	Err     error
}

// tickMsg advances the attempt clock.
type tickMsg time.Time

// pollMsg carries one status poll. ok is false once the poller stopped.
type pollMsg struct {
	Result att.PollResult
	OK     bool
}

type direction int

const (
	dirNext direction = iota
	dirPrev
	// dirStay saves the answer in place after it changed.
	dirStay
)

// sentMsg is sent when an answer round-trip finished.
type sentMsg struct {
	Outcome att.Outcome
	Dir     direction
}

// finishedMsg is sent when a submit or save round-trip finished.
type finishedMsg struct {
	Result att.FinishResult
	Submit bool
}

// textSaveMsg fires once typing has paused on an open-ended question. Seq
// identifies the edit it was scheduled for; later edits supersede it.
type textSaveMsg struct {
	QuestionID int64
	Seq        int
}
