// Package api is the HTTP client for the remote attempt API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/quiz"
)

// DefaultBaseURL is the attempt API address when none is configured.
const DefaultBaseURL = "http://localhost:8080"

const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   RetryConfig
	Logger  logging.Logger
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the attempt API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
	logger  logging.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{baseURL: base, http: hc, retry: retry, logger: logger, token: opts.Token}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := LoginRequest{Username: username, Password: password}
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp, ""); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &ErrInvalidPayload{Err: fmt.Errorf("login response has no token")}
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

// NormalizeAccessCode trims and upper-cases a typed access code.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateAccessCode asks whether a code opens an active session.
func (c *Client) ValidateAccessCode(ctx context.Context, code string) (bool, error) {
	q := url.Values{"accessCode": {NormalizeAccessCode(code)}}
	var ok bool
	if err := c.do(ctx, http.MethodGet, "/quiz-sessions/validate", q, nil, &ok, ""); err != nil {
		return false, err
	}
	return ok, nil
}

// StartAttempt joins a quiz with an access code. The server returns an
// existing in-progress attempt when there is one.
func (c *Client) StartAttempt(ctx context.Context, quizID int64, accessCode string) (int64, error) {
	req := StartAttemptRequest{QuizID: quizID, AccessCode: NormalizeAccessCode(accessCode)}
	if err := ValidateRequest(req); err != nil {
		return 0, err
	}
	var resp StartAttemptResponse
	if err := c.do(ctx, http.MethodPost, "/quizzes/attempts", nil, req, &resp, ""); err != nil {
		return 0, err
	}
	if resp.AttemptID <= 0 {
		return 0, &ErrInvalidPayload{Err: fmt.Errorf("start attempt response has no attemptId")}
	}
	return resp.AttemptID, nil
}

// GetAttempt fetches an attempt with its questions and saved responses.
func (c *Client) GetAttempt(ctx context.Context, attemptID int64) (*quiz.Attempt, error) {
	var d AttemptDTO
	if err := c.do(ctx, http.MethodGet, attemptPath(attemptID, ""), nil, nil, &d, schemaAttempt); err != nil {
		return nil, err
	}
	return d.ToDomain(), nil
}

// InProgressAttempts lists attempts that can be resumed.
func (c *Client) InProgressAttempts(ctx context.Context) ([]*quiz.Attempt, error) {
	var ds []AttemptDTO
	if err := c.do(ctx, http.MethodGet, "/attempts/in-progress", nil, nil, &ds, schemaAttemptList); err != nil {
		return nil, err
	}
	out := make([]*quiz.Attempt, len(ds))
	for i, d := range ds {
		out[i] = d.ToDomain()
	}
	return out, nil
}

// CompletedAttempts lists submitted and graded attempts with their results.
func (c *Client) CompletedAttempts(ctx context.Context) ([]*quiz.AttemptResult, error) {
	var ds []AttemptResultDTO
	if err := c.do(ctx, http.MethodGet, "/attempts/completed", nil, nil, &ds, schemaResultList); err != nil {
		return nil, err
	}
	out := make([]*quiz.AttemptResult, len(ds))
	for i, d := range ds {
		out[i] = d.ToDomain()
	}
	return out, nil
}

// SubmitResponse saves one answer and reports whether it was correct.
func (c *Client) SubmitResponse(ctx context.Context, attemptID int64, sub quiz.Submission) (bool, error) {
	req := SubmitResponseRequest{
		QuestionID:        sub.QuestionID,
		SelectedAnswerIDs: sub.SelectedAnswerIDs,
		TextResponse:      sub.TextResponse,
		ResponseTime:      sub.ResponseTime,
		IsMultipleChoice:  sub.IsMultipleChoice,
		IsOpenEnded:       sub.IsOpenEnded,
	}
	if req.SelectedAnswerIDs == nil {
		req.SelectedAnswerIDs = []int64{}
	}
	if err := ValidateRequest(req); err != nil {
		return false, err
	}
	var resp UserResponseDTO
	if err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "responses"), nil, req, &resp, ""); err != nil {
		return false, err
	}
	return resp.IsCorrect, nil
}

// SaveProgress keeps the attempt for later and returns its status.
func (c *Client) SaveProgress(ctx context.Context, attemptID int64) (quiz.AttemptStatus, error) {
	var d AttemptDTO
	if err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "save-progress"), nil, nil, &d, schemaAttempt); err != nil {
		return "", err
	}
	return quiz.ParseStatus(d.Status), nil
}

// SubmitAttempt finalises the attempt with the total elapsed seconds.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID int64, totalTime int) (quiz.AttemptStatus, error) {
	req := SubmitAttemptRequest{TotalTime: totalTime}
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	var d AttemptDTO
	if err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "submit"), nil, req, &d, schemaAttempt); err != nil {
		return "", err
	}
	return quiz.ParseStatus(d.Status), nil
}

// Results fetches the graded view of a finished attempt.
func (c *Client) Results(ctx context.Context, attemptID int64) (*quiz.AttemptResult, error) {
	var d AttemptResultDTO
	if err := c.do(ctx, http.MethodGet, attemptPath(attemptID, "results"), nil, nil, &d, schemaResult); err != nil {
		return nil, err
	}
	return d.ToDomain(), nil
}

// CreateSession opens an access-code window for a quiz.
func (c *Client) CreateSession(ctx context.Context, quizID int64, durationMinutes int) (*quiz.QuizSession, error) {
	req := CreateSessionRequest{QuizID: quizID, DurationMinutes: durationMinutes}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	var d QuizSessionDTO
	if err := c.do(ctx, http.MethodPost, "/quiz-sessions", nil, req, &d, ""); err != nil {
		return nil, err
	}
	return d.ToDomain(), nil
}

// WeaknessReport fetches the current student's mistakes between two dates.
func (c *Client) WeaknessReport(ctx context.Context, from, to time.Time) (*quiz.WeaknessReport, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.DateOnly))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.DateOnly))
	}
	var d WeaknessReportDTO
	if err := c.do(ctx, http.MethodGet, "/students/me/weakness-report", q, nil, &d, ""); err != nil {
		return nil, err
	}
	return d.ToDomain(), nil
}

func attemptPath(id int64, suffix string) string {
	p := "/attempts/" + strconv.FormatInt(id, 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// do sends one request. GETs are retried on transient failures; writes are
// sent once. When schema is set the body is validated before decoding.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, schema string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	send := func() error { return c.send(ctx, method, u, payload, out, schema) }
	if method == http.MethodGet {
		return c.retry.retry(ctx, send)
	}
	return send()
}

func (c *Client) send(ctx context.Context, method, u string, payload []byte, out any, schema string) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("api request failed", "method", method, "url", u, "error", err)
		return &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ErrUnavailable{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("api request", "method", method, "url", u, "status", resp.StatusCode, "latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := normalizeError(resp.StatusCode, raw)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &ErrUnavailable{Status: resp.StatusCode, RetryAfter: retryAfter(resp.Header), Err: apiErr}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if schema != "" {
		if err := validatePayload(schema, raw); err != nil {
			c.logger.LogError(err, "invalid api payload", "url", u)
			return err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrInvalidPayload{Content: raw, Err: err}
	}
	return nil
}

func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
