// Package retry wraps single-action dispatch with a bounded, fixed-delay
// retry loop and best-effort failure diagnostics.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/core/executor"
	"go.uber.org/zap"
)

// Executor runs one attempt of an action
type Executor interface {
	Execute(ctx context.Context, a *action.Action, deviceID string) (*executor.Result, error)
}

// ScreenshotFetcher captures a diagnostic image for a device
type ScreenshotFetcher interface {
	Screenshot(ctx context.Context, deviceID string) (string, error)
}

// AttemptOutcome is the result of running one action through the retry loop
type AttemptOutcome struct {
	Success    bool
	Attempt    int
	Log        []action.LogEntry
	Err        error
	Screenshot string
	Action     *action.Action
	Index      int
}

// ErrorMessage returns the final error text, or "" on success
func (o *AttemptOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type Orchestrator struct {
	exec   Executor
	shots  ScreenshotFetcher
	logger *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*Orchestrator)

// WithScreenshots enables diagnostic capture after the last failed attempt
func WithScreenshots(f ScreenshotFetcher) Option {
	return func(o *Orchestrator) {
		o.shots = f
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the timestamp source for log lines
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithSleep replaces the timer used between attempts
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

func New(exec Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		exec:   exec,
		logger: zap.NewNop(),
		now:    time.Now,
		sleep:  executor.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunWithRetry attempts a up to a.MaxAttempts() times, pausing a.RetryDelay()
// between failures. It always returns an outcome; failures are reported in it.
func (o *Orchestrator) RunWithRetry(ctx context.Context, a *action.Action, index int, deviceID string) *AttemptOutcome {
	maxAttempts := a.MaxAttempts()
	desc := a.Describe()
	outcome := &AttemptOutcome{
		Action: a,
		Index:  index,
	}

	log := o.logger.With(
		zap.Int("step", index+1),
		zap.String("kind", string(a.Kind)),
		zap.String("device", deviceID),
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome.Attempt = attempt
		o.appendLog(outcome, fmt.Sprintf("Attempt %d/%d: %s", attempt, maxAttempts, desc))

		_, err := o.exec.Execute(ctx, a, deviceID)
		if err == nil {
			o.appendLog(outcome, fmt.Sprintf("Step %d succeeded on attempt %d", index+1, attempt))
			outcome.Success = true
			outcome.Err = nil
			log.Debug("action succeeded", zap.Int("attempt", attempt))
			return outcome
		}

		outcome.Err = err
		log.Warn("action attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)

		if attempt < maxAttempts {
			if sleepErr := o.sleep(ctx, a.RetryDelay()); sleepErr != nil {
				// context ended: no point spending the remaining attempts
				break
			}
		}
	}

	outcome.Screenshot = o.captureScreenshot(ctx, deviceID, log)
	return outcome
}

func (o *Orchestrator) captureScreenshot(ctx context.Context, deviceID string, log *zap.Logger) string {
	if o.shots == nil {
		return ""
	}

	shot, err := o.shots.Screenshot(ctx, deviceID)
	if err != nil {
		log.Warn("diagnostic screenshot unavailable", zap.Error(err))
		return ""
	}
	return shot
}

func (o *Orchestrator) appendLog(outcome *AttemptOutcome, msg string) {
	outcome.Log = append(outcome.Log, action.LogEntry{Time: o.now(), Message: msg})
}
