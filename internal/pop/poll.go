package pop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seyi-falode/blogpilot/internal/common"
)

// Terminal poll outcomes, wrapped in common.AppError by Wait.
var (
	ErrTimeout      = errors.New("poll deadline exceeded")
	ErrStuckUnknown = errors.New("status stuck at Unknown")
)

// Fetcher is the status-fetch capability the engine polls with.
type Fetcher interface {
	FetchStatus(ctx context.Context, taskID string) (*StatusReport, error)
}

// pollState names the non-terminal states of a polling session. Terminal
// outcomes (success, failure, timeout) leave the loop via return.
type pollState int

const (
	stateRunning pollState = iota
	stateUnknownBackoff
	stateFinalCheck
)

// Engine waits on one report job at a time. It tolerates the remote API's
// intermittent "Unknown" placeholder responses without discarding progress
// already observed, and never blocks past its deadline.
type Engine struct {
	fetch Fetcher
	clock Clock
	log   *slog.Logger

	deadline          time.Duration
	pollInterval      time.Duration
	unknownWait       time.Duration
	extendedWait      time.Duration
	maxUnknownRetries int
	highProgress      int
}

// Option configures a poll engine.
type Option func(*Engine)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDeadline bounds a whole polling session. Default 20 minutes.
func WithDeadline(d time.Duration) Option {
	return func(e *Engine) { e.deadline = d }
}

// WithPollInterval sets the wait between ordinary status fetches. Default 20s.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithUnknownWait sets the wait after an Unknown observation at low progress.
// Default 30s.
func WithUnknownWait(d time.Duration) Option {
	return func(e *Engine) { e.unknownWait = d }
}

// WithExtendedWait sets the wait after an Unknown observation once progress
// has already passed the high-progress threshold. Default 60s.
func WithExtendedWait(d time.Duration) Option {
	return func(e *Engine) { e.extendedWait = d }
}

// WithMaxUnknownRetries caps consecutive Unknown observations before the
// final check. Default 8.
func WithMaxUnknownRetries(n int) Option {
	return func(e *Engine) { e.maxUnknownRetries = n }
}

func NewEngine(fetch Fetcher, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		fetch:             fetch,
		clock:             systemClock{},
		log:               logger,
		deadline:          20 * time.Minute,
		pollInterval:      20 * time.Second,
		unknownWait:       30 * time.Second,
		extendedWait:      60 * time.Second,
		maxUnknownRetries: 8,
		highProgress:      50,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// session is the state owned by a single Wait call. It is never shared and
// dies with the call.
type session struct {
	taskID       string
	deadline     time.Time
	lastProgress int // monotone: never decreased by a new observation
	unknownCount int
	prevLabel    string
}

// observe folds a report into the session, retaining the highest progress.
func (s *session) observe(rep *StatusReport) {
	if rep.Progress > s.lastProgress {
		s.lastProgress = rep.Progress
	}
}

func (r *StatusReport) unknown() bool {
	return r.RawStatus == StatusUnknown && r.Progress == 0
}

// Wait polls the task until it completes, fails, or the deadline passes.
// On success the returned report carries the page score and content brief
// from the qualifying observation.
func (e *Engine) Wait(ctx context.Context, taskID string) (*StatusReport, error) {
	s := &session{
		taskID:   taskID,
		deadline: e.clock.Now().Add(e.deadline),
	}
	e.log.Info("pop.poll.start", "task_id", taskID, "deadline", e.deadline)

	st := stateRunning
	for {
		switch st {
		case stateRunning:
			rep, next, err := e.running(ctx, s)
			if err != nil {
				return nil, err
			}
			if rep != nil {
				return rep, nil
			}
			st = next

		case stateUnknownBackoff:
			st = e.unknownBackoff(s)

		case stateFinalCheck:
			return e.finalCheck(ctx, s)
		}
	}
}

// running performs one ordinary poll step. It returns a non-nil report on
// terminal success, an error on a terminal failure, or the next state.
func (e *Engine) running(ctx context.Context, s *session) (*StatusReport, pollState, error) {
	if e.clock.Now().After(s.deadline) {
		e.log.Error("pop.poll.timeout", "task_id", s.taskID, "last_progress", s.lastProgress)
		return nil, 0, common.NewAppError(common.CodeTimeout, "report job did not finish in time", ErrTimeout)
	}

	rep, err := e.fetch.FetchStatus(ctx, s.taskID)
	if err != nil {
		// Fatal on the first garbled response, matching the submit path:
		// the remote gives no way to tell a dead task from a dead endpoint.
		e.log.Error("pop.poll.invalid_response", "task_id", s.taskID, "error", err)
		return nil, 0, common.NewAppError(common.CodeTransport, "invalid response while polling", err)
	}
	s.observe(rep)

	if rep.Complete() {
		e.log.Info("pop.poll.ready", "task_id", s.taskID, "score", rep.Score)
		return rep, 0, nil
	}

	if rep.unknown() {
		s.unknownCount++
		return nil, stateUnknownBackoff, nil
	}

	s.unknownCount = 0
	if rep.RawStatus != s.prevLabel {
		e.log.Info("pop.poll.status_change", "task_id", s.taskID,
			"status", rep.RawStatus, "progress", rep.Progress)
		s.prevLabel = rep.RawStatus
	}
	e.clock.Sleep(e.pollInterval)
	return nil, stateRunning, nil
}

// unknownBackoff decides how to react to a run of Unknown observations.
// A job that was already far along gets a longer grace period; one that
// never reported progress exhausts its retry budget faster.
func (e *Engine) unknownBackoff(s *session) pollState {
	switch {
	case s.lastProgress >= e.highProgress && s.unknownCount < e.maxUnknownRetries:
		e.log.Warn("pop.poll.unknown_extended_wait", "task_id", s.taskID,
			"last_progress", s.lastProgress, "unknown_count", s.unknownCount)
		e.clock.Sleep(e.extendedWait)
		return stateRunning

	case s.unknownCount >= e.maxUnknownRetries:
		e.log.Error("pop.poll.unknown_exhausted", "task_id", s.taskID,
			"unknown_count", s.unknownCount, "max", e.maxUnknownRetries)
		return stateFinalCheck

	default:
		e.log.Warn("pop.poll.unknown_retry", "task_id", s.taskID,
			"unknown_count", s.unknownCount, "max", e.maxUnknownRetries)
		e.clock.Sleep(e.unknownWait)
		return stateRunning
	}
}

// finalCheck performs exactly one more fetch after the Unknown budget is
// spent. Only an unambiguous terminal success rescues the session.
func (e *Engine) finalCheck(ctx context.Context, s *session) (*StatusReport, error) {
	rep, err := e.fetch.FetchStatus(ctx, s.taskID)
	if err != nil {
		e.log.Error("pop.poll.final_check_invalid_response", "task_id", s.taskID, "error", err)
		return nil, common.NewAppError(common.CodeTransport, "invalid response on final check", err)
	}
	s.observe(rep)

	if rep.Complete() {
		e.log.Info("pop.poll.ready_on_final_check", "task_id", s.taskID, "score", rep.Score)
		return rep, nil
	}
	e.log.Error("pop.poll.final_check_failed", "task_id", s.taskID,
		"status", rep.RawStatus, "progress", rep.Progress)
	return nil, common.NewAppError(common.CodeAnomalous,
		"status stuck at Unknown after retry budget", ErrStuckUnknown)
}
