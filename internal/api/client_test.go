package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizpath/internal/quiz"
)

const attemptJSON = `{
	"attemptId": 7, "quizId": 3, "quizTitle": "Fractions", "adaptive": true, "status": "IN_PROGRESS",
	"score": null, "attemptTime": null, "startedAt": "2026-05-01T09:00:00.123", "completedAt": null,
	"questions": [
		{"id": 1, "text": "q1", "type": "SINGLE_CHOICE", "difficulty": "EASY", "answers": [{"id": 11, "text": "a"}]},
		{"id": 2, "text": "q2", "type": "MULTIPLE_CHOICE", "difficulty": "HARD", "answers": [{"id": 21, "text": "a"}, {"id": 22, "text": "b"}]},
		{"id": 3, "text": "q3", "type": "OPEN_ENDED", "difficulty": null, "answers": []}
	],
	"responses": [
		{"questionId": 1, "answerId": 11},
		{"questionId": 2, "selectedAnswerIds": [21, 22], "isMultipleChoice": true},
		{"questionId": 3, "textResponse": "because", "isOpenEnded": true, "isCorrect": false}
	]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Token: "tok", Retry: fastRetry()})
}

func TestGetAttempt_DecodesPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attempts/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, attemptJSON)
	})

	a, err := c.GetAttempt(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.ID)
	assert.True(t, a.Adaptive)
	assert.Equal(t, quiz.StatusInProgress, a.Status)
	assert.Nil(t, a.CompletedAt)
	assert.Equal(t, 2026, a.StartedAt.Year())
	require.Len(t, a.Questions, 3)
	assert.Equal(t, quiz.Hard, a.Questions[1].Difficulty)
	assert.Equal(t, quiz.MultipleChoice, a.Questions[1].Type)
	assert.Equal(t, quiz.Difficulty(""), a.Questions[2].Difficulty)

	require.Len(t, a.Responses, 3)
	assert.Equal(t, []int64{11}, a.Responses[0].AnswerIDs)
	assert.Equal(t, []int64{21, 22}, a.Responses[1].AnswerIDs)
	assert.Equal(t, "because", a.Responses[2].TextResponse)
	assert.Nil(t, a.Responses[0].Correct, "grading is optional")
	require.NotNil(t, a.Responses[2].Correct)
	assert.False(t, *a.Responses[2].Correct)
}

func TestGetAttempt_UnknownStatusIsInProgress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"attemptId": 7, "status": "PAUSED", "questions": []}`)
	})
	a, err := c.GetAttempt(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusInProgress, a.Status)
}

func TestGetAttempt_InvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"attemptId": 7, "status": "IN_PROGRESS", "questions": [{"id": 1, "type": "ESSAY"}]}`)
	})
	_, err := c.GetAttempt(context.Background(), 7)
	var inv *ErrInvalidPayload
	assert.True(t, errors.As(err, &inv), "got %v", err)
}

func TestGetAttempt_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, attemptJSON)
	})
	_, err := c.GetAttempt(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.SubmitAttempt(context.Background(), 7, 60)
	var unavail *ErrUnavailable
	require.True(t, errors.As(err, &unavail), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, unavail.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitResponse_SendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/attempts/7/responses", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["questionId"])
		assert.Equal(t, []any{}, body["selectedAnswerIds"])
		assert.Equal(t, "why not", body["textResponse"])
		assert.Equal(t, float64(12), body["responseTime"])
		assert.Equal(t, true, body["isOpenEnded"])
		io.WriteString(w, `{"responseId": 1, "questionId": 3, "isCorrect": true}`)
	})

	ok, err := c.SubmitResponse(context.Background(), 7, quiz.Submission{
		QuestionID: 3, TextResponse: "why not", ResponseTime: 12, IsOpenEnded: true,
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitResponse_ExpiryMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message": "Quiz session has expired. This attempt is no longer valid."}`)
	})
	_, err := c.SubmitResponse(context.Background(), 7, quiz.Submission{QuestionID: 1, SelectedAnswerIDs: []int64{11}})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Quiz session has expired. This attempt is no longer valid.", err.Error())
}

func TestStartAttempt_ValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"attemptId": 9}`)
	})

	_, err := c.StartAttempt(context.Background(), 1, "abc")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Fields, "accessCode")
	assert.Zero(t, calls.Load())

	id, err := c.StartAttempt(context.Background(), 1, " ab12cd ")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestLogin_StoresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			io.WriteString(w, `{"token": "fresh"}`)
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		io.WriteString(w, `true`)
	})
	tok, err := c.Login(context.Background(), "student", "secret")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)

	ok, err := c.ValidateAccessCode(context.Background(), "ab12cd")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWeaknessReport_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-04-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-04-30", r.URL.Query().Get("to"))
		io.WriteString(w, `{"totalQuestions": 10, "rushingErrors": 2,
			"statsByType": {"SINGLE_CHOICE": {"attempted": 6, "incorrect": 2, "averageTimeSec": 4.5}}}`)
	})
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	rep, err := c.WeaknessReport(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.RushingErrors)
	assert.Equal(t, 6, rep.StatsByType[quiz.SingleChoice].Attempted)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Options{BaseURL: srv.URL, Retry: fastRetry()})

	_, err := c.GetAttempt(context.Background(), 1)
	var unavail *ErrUnavailable
	assert.True(t, errors.As(err, &unavail), "got %v", err)
}

func TestTimestamp_Layouts(t *testing.T) {
	for _, in := range []string{`"2026-05-01T09:00:00Z"`, `"2026-05-01T09:00:00"`, `"2026-05-01T09:00:00.5"`, `"2026-05-01"`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.Equal(t, time.May, ts.Month(), in)
	}
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
