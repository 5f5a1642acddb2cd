// Package mockserver is an in-memory implementation of the attempt API for
// local development and end-to-end tests.
package mockserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/quiz"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Options configures a Server.
type Options struct {
	// Secret signs login tokens.
	Secret string
	// AllowedOrigins are the browser origins allowed by CORS.
	AllowedOrigins []string
	// SeedCodes opens one session per seeded quiz with these access codes,
	// keyed by quiz id.
	SeedCodes map[int64]string
	// SessionLength is the window of seeded sessions.
	SessionLength time.Duration
	Logger        logging.Logger
	Now           func() time.Time
}

// DefaultOptions returns options for local use.
func DefaultOptions() Options {
	return Options{
		Secret:         "quizpath-dev-secret",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		SeedCodes:      map[int64]string{AdaptiveQuizID: "ADAPT1", LinearQuizID: "LINEA1"},
		SessionLength:  DefaultSessionMinutes * time.Minute,
	}
}

// Server serves the fake attempt API.
type Server struct {
	state   *state
	auth    *authService
	logger  logging.Logger
	handler http.Handler
}

// New builds a seeded server.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.SessionLength <= 0 {
		opts.SessionLength = DefaultSessionMinutes * time.Minute
	}

	st := newState(opts.Now)
	st.seed()
	for quizID, code := range opts.SeedCodes {
		st.openSession(quizID, code, opts.SessionLength)
	}

	s := &Server{
		state:  st,
		auth:   &authService{hmac: []byte(opts.Secret), now: opts.Now},
		logger: opts.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	s.routes(r)

	s.handler = cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Sessions lists every quiz session.
func (s *Server) Sessions() []quiz.QuizSession {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	out := make([]quiz.QuizSession, 0, len(s.state.sessions))
	for id := int64(1); id <= s.state.nextSession; id++ {
		if sess, ok := s.state.sessions[id]; ok {
			out = append(out, *sess)
		}
	}
	return out
}

// ExpireSession closes the session with the given access code now.
func (s *Server) ExpireSession(code string) bool { return s.state.expireSession(code) }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("mock attempt API listening", "addr", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/auth/login", s.login)

	authed := r.Group("/", s.auth.requireAuth())
	authed.POST("/quizzes/attempts", s.startAttempt)
	authed.GET("/quiz-sessions/validate", s.validateCode)
	authed.POST("/quiz-sessions", requireRole(RoleTeacher), s.createSession)
	authed.GET("/students/me/weakness-report", s.weaknessReport)

	attempts := authed.Group("/attempts")
	attempts.GET("/in-progress", s.inProgress)
	attempts.GET("/completed", s.completed)
	attempts.GET("/:id", s.getAttempt)
	attempts.POST("/:id/responses", s.submitResponse)
	attempts.POST("/:id/save-progress", s.saveProgress)
	attempts.POST("/:id/submit", s.submitAttempt)
	attempts.GET("/:id/results", s.results)
}

func fail(c *gin.Context, err error) {
	var se *statusError
	if errors.As(err, &se) {
		c.JSON(se.Status, ErrorResponse{Message: se.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
}

// bindFail reports a binding error as a field-error object, the shape the
// real backend uses for validation failures.
func bindFail(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"request": "Invalid request body: " + err.Error()})
}

func attemptID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid value: attempt id"})
		return 0, false
	}
	return id, true
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFail(c, err)
		return
	}
	u, ok := s.state.login(body.Username, body.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid username or password"})
		return
	}
	tok, err := s.auth.issue(u)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.LoginResponse{Token: tok})
}

type startBody struct {
	QuizID     int64  `json:"quizId" binding:"required,gt=0"`
	AccessCode string `json:"accessCode"`
}

func (s *Server) startAttempt(c *gin.Context) {
	var body startBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFail(c, err)
		return
	}
	a, err := s.state.startAttempt(userID(c), body.QuizID, body.AccessCode)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.StartAttemptResponse{AttemptID: a.ID})
}

func (s *Server) validateCode(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.validateCode(c.Query("accessCode")))
}

type sessionBody struct {
	QuizID          int64 `json:"quizId" binding:"required,gt=0"`
	DurationMinutes int   `json:"durationMinutes" binding:"omitempty,min=1,max=600"`
}

func (s *Server) createSession(c *gin.Context) {
	var body sessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFail(c, err)
		return
	}
	sess, err := s.state.createSession(userID(c), body.QuizID, body.DurationMinutes)
	if err != nil {
		fail(c, err)
		return
	}
	s.logger.Info("quiz session opened", "quiz_id", sess.QuizID, "access_code", sess.AccessCode)
	c.JSON(http.StatusCreated, api.FromSession(sess))
}

func (s *Server) weaknessReport(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid value: from"})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid value: to"})
		return
	}
	c.JSON(http.StatusOK, api.FromWeaknessReport(s.state.weakness(userID(c), from, to)))
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, v)
}

func (s *Server) inProgress(c *gin.Context) {
	out := []api.AttemptDTO{}
	for _, a := range s.state.inProgress(userID(c)) {
		out = append(out, api.FromAttempt(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) completed(c *gin.Context) {
	out := []api.AttemptResultDTO{}
	for _, r := range s.state.completed(userID(c)) {
		out = append(out, api.FromResult(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAttempt(c *gin.Context) {
	id, ok := attemptID(c)
	if !ok {
		return
	}
	a, err := s.state.getAttempt(userID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromAttempt(a))
}

type responseBody struct {
	QuestionID        int64   `json:"questionId" binding:"required,gt=0"`
	AnswerID          *int64  `json:"answerId"`
	SelectedAnswerIDs []int64 `json:"selectedAnswerIds"`
	TextResponse      string  `json:"textResponse"`
	ResponseTime      int     `json:"responseTime" binding:"gte=0"`
	IsMultipleChoice  bool    `json:"isMultipleChoice"`
	IsOpenEnded       bool    `json:"isOpenEnded"`
}

func (s *Server) submitResponse(c *gin.Context) {
	id, ok := attemptID(c)
	if !ok {
		return
	}
	var body responseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFail(c, err)
		return
	}
	r, respID, err := s.state.submitResponse(userID(c), id, responseInput{
		QuestionID:   body.QuestionID,
		AnswerID:     body.AnswerID,
		AnswerIDs:    body.SelectedAnswerIDs,
		TextResponse: body.TextResponse,
		ResponseTime: body.ResponseTime,
	})
	if err != nil {
		fail(c, err)
		return
	}
	out := api.UserResponseDTO{ResponseID: respID, QuestionID: r.QuestionID, IsCorrect: r.Correct}
	if len(r.AnswerIDs) > 0 {
		first := r.AnswerIDs[0]
		out.AnswerID = &first
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) saveProgress(c *gin.Context) {
	id, ok := attemptID(c)
	if !ok {
		return
	}
	a, err := s.state.saveProgress(userID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromAttempt(a))
}

type submitBody struct {
	TotalTime int `json:"totalTime" binding:"gte=0"`
}

func (s *Server) submitAttempt(c *gin.Context) {
	id, ok := attemptID(c)
	if !ok {
		return
	}
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		bindFail(c, err)
		return
	}
	a, err := s.state.submitAttempt(userID(c), id, body.TotalTime)
	if err != nil {
		fail(c, err)
		return
	}
	s.logger.Info("attempt submitted", "attempt_id", a.ID, "score", a.Score)
	c.JSON(http.StatusOK, api.FromAttempt(a))
}

func (s *Server) results(c *gin.Context) {
	id, ok := attemptID(c)
	if !ok {
		return
	}
	r, err := s.state.results(userID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromResult(r))
}
