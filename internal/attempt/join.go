package attempt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Messages shown when a join is refused before reaching the server.
const (
	MsgNoAccessCode       = "Please enter an access code"
	MsgInvalidQuizID      = "Invalid quiz ID"
	MsgRejectedAccessCode = "Invalid or expired access code. Please check and try again."
)

var (
	// ErrNoAccessCode means the code was blank.
	ErrNoAccessCode = errors.New(MsgNoAccessCode)

	// ErrInvalidQuizID means the quiz id was not a positive number.
	ErrInvalidQuizID = errors.New(MsgInvalidQuizID)

	// ErrAccessCodeRejected means the server reported the code as invalid
	// or expired.
	ErrAccessCodeRejected = errors.New(MsgRejectedAccessCode)
)

// Joiner is the part of the API used to enter a quiz with an access code.
type Joiner interface {
	ValidateAccessCode(ctx context.Context, code string) (bool, error)
	StartAttempt(ctx context.Context, quizID int64, accessCode string) (int64, error)
}

// Join checks the access code and starts (or reopens) an attempt for the
// quiz, returning its id.
func Join(ctx context.Context, j Joiner, quizID int64, accessCode string) (int64, error) {
	code := strings.TrimSpace(accessCode)
	switch {
	case code == "":
		return 0, ErrNoAccessCode
	case quizID <= 0:
		return 0, ErrInvalidQuizID
	}

	ok, err := j.ValidateAccessCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("validate access code: %w", err)
	}
	if !ok {
		return 0, ErrAccessCodeRejected
	}

	id, err := j.StartAttempt(ctx, quizID, code)
	if err != nil {
		return 0, fmt.Errorf("start attempt: %w", err)
	}
	return id, nil
}
