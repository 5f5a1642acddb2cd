// Package screens holds what the terminal screens share: the API they talk
// to and the engine settings they open attempts with.
package screens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/store"
)

// API is the part of the attempt API the screens call.
type API interface {
	attempt.API
	ValidateAccessCode(ctx context.Context, code string) (bool, error)
	StartAttempt(ctx context.Context, quizID int64, accessCode string) (int64, error)
	InProgressAttempts(ctx context.Context) ([]*quiz.Attempt, error)
	CompletedAttempts(ctx context.Context) ([]*quiz.AttemptResult, error)
	Results(ctx context.Context, attemptID int64) (*quiz.AttemptResult, error)
}

var _ API = (*api.Client)(nil)

// Deps is handed to every screen.
type Deps struct {
	API          API
	Coordinator  *attempt.Coordinator
	Session      attempt.SessionOptions
	TickInterval time.Duration
	PollInterval time.Duration
	// Journal is optional; the history screen is disabled without it.
	Journal store.EventRepo
	Logger  logging.Logger
}

// WithDefaults fills unset fields.
func (d *Deps) WithDefaults() *Deps {
	out := *d
	if out.TickInterval <= 0 {
		out.TickInterval = time.Second
	}
	if out.PollInterval <= 0 {
		out.PollInterval = attempt.DefaultPollInterval
	}
	if out.Logger == nil {
		out.Logger = logging.NewNop()
	}
	if out.Coordinator == nil {
		out.Coordinator = attempt.NewCoordinator(out.API, nil, out.Logger)
	}
	if out.Session.Now == nil {
		out.Session = attempt.DefaultSessionOptions()
	}
	return &out
}

// Message turns an error into text for the screen, preferring the server's
// own message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Clock formats a duration as m:ss.
func Clock(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
