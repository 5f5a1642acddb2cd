package attempt

import (
	"context"
	"errors"
	"testing"
)

type fakeJoiner struct {
	valid       bool
	validateErr error
	startErr    error
	startID     int64

	validated string
	started   bool
}

func (f *fakeJoiner) ValidateAccessCode(_ context.Context, code string) (bool, error) {
	f.validated = code
	return f.valid, f.validateErr
}

func (f *fakeJoiner) StartAttempt(_ context.Context, _ int64, _ string) (int64, error) {
	f.started = true
	return f.startID, f.startErr
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name      string
		joiner    *fakeJoiner
		quizID    int64
		code      string
		wantID    int64
		wantErr   error
		wantStart bool
	}{
		{name: "ok", joiner: &fakeJoiner{valid: true, startID: 42}, quizID: 1, code: " AB12CD ", wantID: 42, wantStart: true},
		{name: "blank code", joiner: &fakeJoiner{valid: true}, quizID: 1, code: "  ", wantErr: ErrNoAccessCode},
		{name: "bad quiz id", joiner: &fakeJoiner{valid: true}, quizID: 0, code: "AB12CD", wantErr: ErrInvalidQuizID},
		{name: "rejected", joiner: &fakeJoiner{valid: false}, quizID: 1, code: "AB12CD", wantErr: ErrAccessCodeRejected},
		{name: "validate fails", joiner: &fakeJoiner{validateErr: errNetwork}, quizID: 1, code: "AB12CD", wantErr: errNetwork},
		{name: "start fails", joiner: &fakeJoiner{valid: true, startErr: errNetwork}, quizID: 1, code: "AB12CD", wantErr: errNetwork, wantStart: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Join(context.Background(), tt.joiner, tt.quizID, tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("id = %d, want %d", id, tt.wantID)
			}
			if tt.joiner.started != tt.wantStart {
				t.Errorf("started = %v, want %v", tt.joiner.started, tt.wantStart)
			}
		})
	}
}

func TestJoin_TrimsCode(t *testing.T) {
	j := &fakeJoiner{valid: true, startID: 1}
	if _, err := Join(context.Background(), j, 3, " xy12ab\n"); err != nil {
		t.Fatal(err)
	}
	if j.validated != "xy12ab" {
		t.Errorf("validated %q, want %q", j.validated, "xy12ab")
	}
}
