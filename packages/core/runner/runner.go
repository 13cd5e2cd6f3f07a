package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/core/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the final state of a run
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// ProgressFunc receives the completion percentage and a status line before
// each executed step. It runs on the runner's goroutine and must not block.
type ProgressFunc func(percent int, status string)

// CompleteFunc receives the final report exactly once
type CompleteFunc func(report *Report)

// Orchestrator runs one action with retries
type Orchestrator interface {
	RunWithRetry(ctx context.Context, a *action.Action, index int, deviceID string) *retry.AttemptOutcome
}

// Report is the outcome of one Run
type Report struct {
	ID           string
	DeviceID     string
	Status       Status
	Log          []action.LogEntry
	FailedAction *action.Action
	FailedIndex  int
	Error        string
	Cause        error
	Screenshot   string
	Executed     int
	Skipped      int
	StartedAt    time.Time
	Duration     time.Duration
}

// Passed reports whether every step succeeded or was skipped
func (r *Report) Passed() bool {
	return r.Status == StatusPassed
}

type Runner struct {
	orchestrator Orchestrator
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces the timestamp source for runner log lines
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func New(o Orchestrator, opts ...Option) *Runner {
	r := &Runner{
		orchestrator: o,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes actions in order and stops at the first unrecovered failure.
// onComplete is called exactly once; the same report is returned. Run never
// panics: a panic inside the loop becomes a failed report.
func (r *Runner) Run(ctx context.Context, actions []*action.Action, deviceID string, onProgress ProgressFunc, onComplete CompleteFunc) (report *Report) {
	report = &Report{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		FailedIndex: -1,
		StartedAt:   r.now(),
	}
	log := r.logger.With(zap.String("run", report.ID), zap.String("device", deviceID))

	defer func() {
		if p := recover(); p != nil {
			report.Status = StatusFailed
			report.Error = fmt.Sprintf("%v", p)
			r.appendLog(report, "Run aborted: "+report.Error)
			log.Error("run aborted", zap.Any("panic", p))
		}
		report.Duration = r.now().Sub(report.StartedAt)
		r.complete(log, report, onComplete)
	}()

	total := len(actions)
	log.Info("run started", zap.Int("actions", total))

	for i, a := range actions {
		if a == nil {
			panic(fmt.Sprintf("action %d is nil", i+1))
		}

		if !a.IsEnabled() {
			report.Skipped++
			r.appendLog(report, fmt.Sprintf("Step %d skipped (disabled): %s", i+1, a.Describe()))
			continue
		}

		if onProgress != nil {
			onProgress(i*100/total, fmt.Sprintf("Step %d/%d: %s", i+1, total, a.Describe()))
		}

		outcome := r.orchestrator.RunWithRetry(ctx, a, i, deviceID)
		report.Executed++
		report.Log = append(report.Log, outcome.Log...)

		if !outcome.Success {
			report.Status = StatusFailed
			report.FailedAction = a
			report.FailedIndex = i
			report.Error = outcome.ErrorMessage()
			report.Cause = outcome.Err
			report.Screenshot = outcome.Screenshot
			log.Warn("run failed",
				zap.Int("step", i+1),
				zap.Int("attempts", outcome.Attempt),
				zap.String("error", report.Error),
			)
			return report
		}
	}

	report.Status = StatusPassed
	log.Info("run passed", zap.Int("executed", report.Executed), zap.Int("skipped", report.Skipped))
	return report
}

// complete hands the report to onComplete. A panic in the callback is logged
// and does not leave Run.
func (r *Runner) complete(log *zap.Logger, report *Report, onComplete CompleteFunc) {
	if onComplete == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error("completion callback panicked", zap.Any("panic", p))
		}
	}()
	onComplete(report)
}

func (r *Runner) appendLog(report *Report, msg string) {
	report.Log = append(report.Log, action.LogEntry{Time: r.now(), Message: msg})
}
