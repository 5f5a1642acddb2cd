package attempt

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizpath/internal/quiz"
)

func TestPoller_DeliversStatus(t *testing.T) {
	api := &fakeAPI{attempt: &quiz.Attempt{ID: 1, Status: quiz.StatusAbandoned}}
	p := NewPoller(StatusOf(api, 1), 5*time.Millisecond, nil)
	ch := p.Start(context.Background())
	defer p.Stop()

	select {
	case r := <-ch:
		require.NoError(t, r.Err)
		assert.Equal(t, quiz.StatusAbandoned, r.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no poll result")
	}
}

func TestPoller_StopClosesChannel(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(func(context.Context) (quiz.AttemptStatus, error) {
		calls.Add(1)
		return quiz.StatusInProgress, nil
	}, time.Millisecond, nil)

	ch := p.Start(context.Background())
	require.NotNil(t, ch)
	assert.Nil(t, p.Start(context.Background()), "second start is refused")

	p.Stop()
	p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				n := calls.Load()
				time.Sleep(10 * time.Millisecond)
				assert.Equal(t, n, calls.Load(), "no polling after stop")
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Stop")
		}
	}
}

func TestPoller_StopBeforeStart(t *testing.T) {
	p := NewPoller(func(context.Context) (quiz.AttemptStatus, error) { return "", nil }, time.Second, nil)
	p.Stop()
}

func TestPoller_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(func(context.Context) (quiz.AttemptStatus, error) { return quiz.StatusInProgress, nil }, time.Millisecond, nil)
	ch := p.Start(ctx)
	cancel()

	for range ch {
	}
	p.Stop()
}

func TestApplyPoll(t *testing.T) {
	tests := []struct {
		name     string
		result   PollResult
		expired  bool
		finished bool
	}{
		{"in progress", PollResult{Status: quiz.StatusInProgress}, false, false},
		{"abandoned", PollResult{Status: quiz.StatusAbandoned}, true, false},
		{"submitted elsewhere", PollResult{Status: quiz.StatusSubmitted}, false, true},
		{"network error", PollResult{Err: errNetwork}, false, false},
		{"expiry error", PollResult{Err: rejected(400, "Session has expired")}, true, false},
		{"expiry text without a server rejection", PollResult{Err: errors.New("Session has expired")}, false, false},
		{"auth failure", PollResult{Err: rejected(401, "Invalid or expired token")}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, linearAttempt(), newClock())
			s.ApplyPoll(tt.result)
			assert.Equal(t, tt.expired, s.Expired())
			assert.Equal(t, tt.finished, s.Finished())
		})
	}
}
