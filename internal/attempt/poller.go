package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/quiz"
)

// DefaultPollInterval is how often attempt status is re-fetched.
const DefaultPollInterval = 30 * time.Second

// StatusFunc fetches the current attempt status.
type StatusFunc func(ctx context.Context) (quiz.AttemptStatus, error)

// PollResult is one status check.
type PollResult struct {
	Status quiz.AttemptStatus
	Err    error
	At     time.Time
}

// Poller periodically re-fetches attempt status so server-side expiry is
// noticed while the student sits on a question. It must be stopped when the
// attempt view goes away.
type Poller struct {
	fetch    StatusFunc
	interval time.Duration
	logger   logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller creates a stopped poller.
func NewPoller(fetch StatusFunc, interval time.Duration, logger logging.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{fetch: fetch, interval: interval, logger: logger}
}

// StatusOf adapts an API to a StatusFunc for one attempt.
func StatusOf(api API, attemptID int64) StatusFunc {
	return func(ctx context.Context) (quiz.AttemptStatus, error) {
		a, err := api.GetAttempt(ctx, attemptID)
		if err != nil {
			return "", err
		}
		return a.Status, nil
	}
}

// Start launches the polling loop. The first check happens one interval
// after Start. The returned channel is closed once the poller stops; a
// second Start without Stop returns nil.
func (p *Poller) Start(ctx context.Context) <-chan PollResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	out := make(chan PollResult, 1)

	go func() {
		defer close(p.done)
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			st, err := p.fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				p.logger.Warn("status poll failed", "error", err)
			}

			select {
			case out <- PollResult{Status: st, Err: err, At: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Stop cancels the loop and waits for it to exit. Safe to call more than
// once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ApplyPoll folds a poll result into the session. A failed poll changes
// nothing unless the error itself says the session expired.
func (s *Session) ApplyPoll(r PollResult) {
	if r.Err != nil {
		if IsExpiry(r.Err) {
			s.MarkExpired()
		}
		return
	}
	s.ApplyStatus(r.Status)
}
