package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	att "github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/router"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/screens/results"
	"github.com/abhisek/quizpath/internal/ui/components"
	"github.com/abhisek/quizpath/internal/ui/layout"
)

// textSaveDelay is how long typing must pause before an open answer is sent.
const textSaveDelay = 800 * time.Millisecond

// AttemptScreen hosts one open attempt: it drives the session with key
// presses, the one-second clock and the status poll.
type AttemptScreen struct {
	deps      *screens.Deps
	attemptID int64

	sess    *att.Session
	poller  *att.Poller
	polls   <-chan att.PollResult
	stopped bool

	choices  components.ChoiceList
	input    components.TextInput
	shownQID int64

	// saving is set while an in-place save runs. An answer edited meanwhile
	// is sent again afterwards (resave) and a navigation key waits (queued).
	saving  bool
	resave  bool
	queued  func() (screen.Screen, tea.Cmd)
	textSeq int

	confirming bool
	busy       string
	notice     string
	failure    string
	errMsg     string
	expired    bool
}

var _ screen.Screen = (*AttemptScreen)(nil)
var _ screen.KeyHintProvider = (*AttemptScreen)(nil)
var _ screen.StatusProvider = (*AttemptScreen)(nil)
var _ screen.BackHandler = (*AttemptScreen)(nil)
var _ screen.Stopper = (*AttemptScreen)(nil)

// New creates a screen that loads attemptID on Init.
func New(deps *screens.Deps, attemptID int64) *AttemptScreen {
	return &AttemptScreen{
		deps:      deps,
		attemptID: attemptID,
		input:     components.NewTextInput("Type your answer...", 500),
	}
}

func (s *AttemptScreen) Init() tea.Cmd {
	api, id, opts := s.deps.API, s.attemptID, s.deps.Session
	return func() tea.Msg {
		sess, resumed, err := att.Load(context.Background(), api, id, opts)
		return loadedMsg{Session: sess, Resumed: resumed, Err: err}
	}
}

func (s *AttemptScreen) Title() string {
	if s.sess != nil {
		return s.sess.Attempt().QuizTitle
	}
	return "Attempt"
}

// HandlesBack keeps Esc for save-and-exit.
func (s *AttemptScreen) HandlesBack() bool { return true }

// HeaderStatus shows progress and the attempt clock.
func (s *AttemptScreen) HeaderStatus() string {
	if s.sess == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d answered   %s",
		s.sess.AnsweredCount(), s.sess.Total(), screens.Clock(s.sess.Elapsed()))
}

func (s *AttemptScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "" || s.expired:
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.sess == nil:
		return nil
	case s.confirming:
		return []layout.KeyHint{confirmYes.Hint(), confirmNo.Hint()}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Next"},
		{Key: "Shift+Tab", Description: "Previous"},
	}
	if !s.sess.Current().OpenEnded() {
		hints = append(hints, layout.KeyHint{Key: "Space/1-9", Description: "Choose"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Submit"},
		layout.KeyHint{Key: "Esc", Description: "Save & exit"},
	)
}

// Stop ends the status poll. Called by the router when the screen leaves.
func (s *AttemptScreen) Stop() {
	if s.poller != nil {
		s.poller.Stop()
	}
	s.stopped = true
}

func (s *AttemptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)
	case tickMsg:
		return s.handleTick()
	case pollMsg:
		return s.handlePoll(msg)
	case sentMsg:
		return s.handleSent(msg)
	case textSaveMsg:
		return s.handleTextSave(msg)
	case finishedMsg:
		return s.handleFinished(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.editingText() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *AttemptScreen) handleLoaded(msg loadedMsg) (screen.Screen, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, att.ErrFinished):
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: results.New(s.deps, s.attemptID)}
		}
	case errors.Is(msg.Err, att.ErrSessionExpired):
		s.expired = true
		return s, nil
	case msg.Err != nil:
		s.errMsg = screens.Message(msg.Err)
		return s, nil
	}

	s.sess = msg.Session
	s.deps.Coordinator.Opened(context.Background(), s.sess, msg.Resumed)
	s.syncQuestion()

	if s.stopped {
		return s, nil
	}
	s.poller = att.NewPoller(att.StatusOf(s.deps.API, s.attemptID), s.deps.PollInterval, s.deps.Logger)
	s.polls = s.poller.Start(context.Background())
	return s, tea.Batch(s.tick(), waitPoll(s.polls), s.input.Init())
}

func (s *AttemptScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.sess == nil || s.expired || s.sess.Finished() || s.stopped {
		return s, nil
	}
	s.sess.Tick(s.deps.TickInterval)
	return s, s.tick()
}

func (s *AttemptScreen) handlePoll(msg pollMsg) (screen.Screen, tea.Cmd) {
	if !msg.OK || s.sess == nil {
		return s, nil
	}
	s.sess.ApplyPoll(msg.Result)
	switch {
	case s.sess.Expired():
		return s.expire()
	case s.sess.Finished():
		s.Stop()
		return s, s.showResults()
	}
	return s, waitPoll(s.polls)
}

func (s *AttemptScreen) handleSent(msg sentMsg) (screen.Screen, tea.Cmd) {
	if msg.Dir == dirStay {
		s.saving = false
	} else {
		s.busy = ""
	}
	s.deps.Coordinator.Apply(s.sess, msg.Outcome)
	switch {
	case s.sess.Expired():
		return s.expire()
	case s.sess.Finished():
		s.Stop()
		return s, s.showResults()
	case msg.Dir != dirStay:
		return s.move(msg.Dir, msg.Outcome)
	case s.resave:
		s.resave = false
		return s.saveAnswer()
	case s.queued != nil:
		run := s.queued
		s.queued = nil
		return run()
	}
	s.syncQuestion()
	return s, nil
}

func (s *AttemptScreen) handleTextSave(msg textSaveMsg) (screen.Screen, tea.Cmd) {
	if s.sess == nil || s.stopped || s.expired || msg.Seq != s.textSeq || s.busy != "" {
		return s, nil
	}
	if s.sess.Current().ID != msg.QuestionID {
		return s, nil
	}
	return s.saveAnswer()
}

func (s *AttemptScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	s.busy = ""
	s.deps.Coordinator.ApplyFinish(s.sess, msg.Result)
	switch {
	case s.sess.Expired():
		return s.expire()
	case msg.Result.Err != nil && msg.Submit:
		s.failure = "Submission failed: " + screens.Message(msg.Result.Err)
		s.syncQuestion()
		return s, nil
	case msg.Result.Err != nil:
		s.failure = "Could not save progress: " + screens.Message(msg.Result.Err)
		s.syncQuestion()
		return s, nil
	case s.sess.Finished():
		s.Stop()
		return s, s.showResults()
	}
	s.Stop()
	return s, func() tea.Msg { return router.PopToRootMsg{} }
}

func (s *AttemptScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.expired {
		return s, func() tea.Msg { return router.PopToRootMsg{} }
	}
	if s.sess == nil {
		if key == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}
	if s.busy != "" {
		return s, nil
	}

	if s.confirming {
		switch {
		case confirmYes.Matches(key):
			s.confirming = false
			return s.afterSave(func() (screen.Screen, tea.Cmd) { return s.finish(true) })
		case confirmNo.Matches(key), key == "esc":
			s.confirming = false
		}
		return s, nil
	}

	switch key {
	case "enter", "tab":
		return s.afterSave(func() (screen.Screen, tea.Cmd) { return s.step(dirNext) })
	case "shift+tab":
		return s.afterSave(func() (screen.Screen, tea.Cmd) { return s.step(dirPrev) })
	case "ctrl+s":
		if s.sess.NeedsConfirm() {
			s.confirming = true
			return s, nil
		}
		return s.afterSave(func() (screen.Screen, tea.Cmd) { return s.finish(true) })
	case "esc":
		return s.afterSave(func() (screen.Screen, tea.Cmd) { return s.finish(false) })
	}

	q := s.sess.Current()
	if q.OpenEnded() {
		before := s.sess.Text(q.ID)
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		if err := s.sess.SetText(q.ID, s.input.Value()); err != nil {
			s.deps.Logger.Debug("text ignored", "question_id", q.ID, "error", err)
			return s, cmd
		}
		if s.sess.Text(q.ID) == before {
			return s, cmd
		}
		s.textSeq++
		seq, qid := s.textSeq, q.ID
		return s, tea.Batch(cmd, tea.Tick(textSaveDelay, func(time.Time) tea.Msg {
			return textSaveMsg{QuestionID: qid, Seq: seq}
		}))
	}

	var picked int
	s.choices, picked = s.choices.Update(msg)
	if picked < 0 || picked >= len(q.Answers) {
		return s, nil
	}
	if err := s.sess.Select(q.ID, q.Answers[picked].ID); err != nil {
		s.deps.Logger.Debug("selection ignored", "question_id", q.ID, "error", err)
		return s, nil
	}
	s.syncQuestion()
	return s.saveAnswer()
}

// saveAnswer sends the current answer without moving. While a save is
// already running the answer is marked for another round instead.
func (s *AttemptScreen) saveAnswer() (screen.Screen, tea.Cmd) {
	if s.saving {
		s.resave = true
		return s, nil
	}
	p, ok, err := s.deps.Coordinator.Prepare(s.sess)
	switch {
	case errors.Is(err, att.ErrSessionExpired):
		return s.expire()
	case err != nil, !ok:
		return s, nil
	}
	s.saving = true
	coord := s.deps.Coordinator
	return s, func() tea.Msg {
		return sentMsg{Outcome: coord.Send(context.Background(), p), Dir: dirStay}
	}
}

// afterSave runs a navigation or finish action now, or once the in-place
// save in flight has landed.
func (s *AttemptScreen) afterSave(run func() (screen.Screen, tea.Cmd)) (screen.Screen, tea.Cmd) {
	if s.saving {
		s.queued = run
		return s, nil
	}
	return run()
}

// step saves the current answer (if any) and then moves.
func (s *AttemptScreen) step(dir direction) (screen.Screen, tea.Cmd) {
	s.notice = ""
	s.failure = ""
	p, ok, err := s.deps.Coordinator.Prepare(s.sess)
	if err != nil {
		if errors.Is(err, att.ErrSessionExpired) {
			return s.expire()
		}
		return s, nil
	}
	if !ok {
		return s.move(dir, att.Outcome{QuestionID: s.sess.Current().ID, Skipped: true})
	}

	s.busy = "Saving answer..."
	s.syncQuestion()
	coord := s.deps.Coordinator
	return s, func() tea.Msg {
		return sentMsg{Outcome: coord.Send(context.Background(), p), Dir: dir}
	}
}

func (s *AttemptScreen) move(dir direction, out att.Outcome) (screen.Screen, tea.Cmd) {
	if dir == dirPrev {
		s.sess.Prev()
		s.syncQuestion()
		return s, nil
	}

	res, err := s.deps.Coordinator.StepAfter(s.sess, out)
	switch {
	case errors.Is(err, att.ErrSessionExpired):
		return s.expire()
	case err != nil:
		s.failure = screens.Message(err)
	case res.Exhausted:
		s.notice = "No more questions. Press Ctrl+S to submit."
	case res.DifficultyChanged:
		s.notice = fmt.Sprintf("Difficulty is now %s.", res.Question.Difficulty)
	}
	s.syncQuestion()
	return s, nil
}

// finish submits the attempt, or saves it for later when submit is false.
func (s *AttemptScreen) finish(submit bool) (screen.Screen, tea.Cmd) {
	s.notice = ""
	s.failure = ""
	p, err := s.deps.Coordinator.PrepareFinish(s.sess)
	if err != nil {
		if errors.Is(err, att.ErrSessionExpired) {
			return s.expire()
		}
		return s, nil
	}

	coord, id, total := s.deps.Coordinator, s.sess.ID(), s.sess.TotalSeconds()
	if submit {
		s.busy = "Submitting..."
		s.syncQuestion()
		return s, func() tea.Msg {
			return finishedMsg{Result: coord.Finish(context.Background(), id, p, total), Submit: true}
		}
	}
	s.busy = "Saving progress..."
	s.syncQuestion()
	return s, func() tea.Msg {
		return finishedMsg{Result: coord.Save(context.Background(), id, p)}
	}
}

func (s *AttemptScreen) expire() (screen.Screen, tea.Cmd) {
	s.expired = true
	s.confirming = false
	s.busy = ""
	s.saving, s.resave, s.queued = false, false, nil
	s.Stop()
	return s, nil
}

func (s *AttemptScreen) showResults() tea.Cmd {
	deps, id := s.deps, s.attemptID
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: results.New(deps, id)}
	}
}

// syncQuestion points the widgets at the current question and mirrors the
// session's answer state into them.
func (s *AttemptScreen) syncQuestion() {
	q := s.sess.Current()
	if q.ID != s.shownQID {
		s.shownQID = q.ID
		options := make([]string, len(q.Answers))
		for i, a := range q.Answers {
			options[i] = a.Text
		}
		s.choices = components.NewChoiceList(options, q.MultipleChoice())
		s.input = components.NewTextInput("Type your answer...", 500)
		s.input.Model.SetValue(s.sess.Text(q.ID))
	}

	selected := make(map[int]bool)
	for _, id := range s.sess.Selected(q.ID) {
		for i, a := range q.Answers {
			if a.ID == id {
				selected[i] = true
			}
		}
	}
	s.choices.Selected = selected
	s.choices.Disabled = s.busy != "" || s.expired || s.sess.Finished()
}

func (s *AttemptScreen) editingText() bool {
	return s.sess != nil && s.busy == "" && !s.confirming && !s.expired && s.sess.Current().OpenEnded()
}

func (s *AttemptScreen) tick() tea.Cmd {
	return tea.Tick(s.deps.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitPoll bridges the poller's channel into the event loop.
func waitPoll(ch <-chan att.PollResult) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		return pollMsg{Result: r, OK: ok}
	}
}
