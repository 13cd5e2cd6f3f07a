package bulk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdul-hamid-achik/hitflow/packages/core/executor"
)

// DefaultMaxConcurrent is the chunk size used when Options.MaxConcurrent is unset
const DefaultMaxConcurrent = 5

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Test is one independent request in a bulk suite
type Test struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
	Skip    bool              `json:"skip,omitempty" yaml:"skip,omitempty"`
}

func (t *Test) label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Response is what an execute function reports for one test. Only the status
// code decides success.
type Response struct {
	StatusCode int
	Duration   time.Duration
}

type ExecuteFunc func(ctx context.Context, t *Test) (*Response, error)

// ProgressFunc is called once per finished test with a running count
type ProgressFunc func(completed, total int, result Result)

type Result struct {
	TestID       string    `json:"testId"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	StatusCode   int       `json:"statusCode"`
	ResponseTime int64     `json:"responseTime"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

type Options struct {
	Parallel      bool          `json:"parallel" yaml:"parallel"`
	MaxConcurrent int           `json:"maxConcurrent,omitempty" yaml:"maxConcurrent,omitempty"`
	StopOnError   bool          `json:"stopOnError" yaml:"stopOnError"`
	Delay         time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

func (o Options) chunkSize() int {
	if o.MaxConcurrent < 1 {
		return DefaultMaxConcurrent
	}
	return o.MaxConcurrent
}

type Executor struct {
	logger *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithSleep replaces the timer used for the delay between sequential tests
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

func New(opts ...Option) *Executor {
	e := &Executor{
		logger: zap.NewNop(),
		now:    time.Now,
		sleep:  executor.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs tests and returns one result per test that ran. Execute
// errors are turned into failed results, except in parallel mode with
// StopOnError, where the first one is returned together with every result
// recorded so far.
func (e *Executor) Execute(ctx context.Context, tests []*Test, fn ExecuteFunc, opts Options, onProgress ProgressFunc) ([]Result, error) {
	if opts.Parallel {
		return e.executeParallel(ctx, tests, fn, opts, onProgress)
	}
	return e.executeSequential(ctx, tests, fn, opts, onProgress)
}

func (e *Executor) executeSequential(ctx context.Context, tests []*Test, fn ExecuteFunc, opts Options, onProgress ProgressFunc) ([]Result, error) {
	results := make([]Result, 0, len(tests))

	for i, t := range tests {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, _ := e.runOne(ctx, t, fn)
		results = append(results, result)

		if onProgress != nil {
			onProgress(i+1, len(tests), result)
		}

		if opts.StopOnError && result.Failed() {
			e.logger.Info("stopping bulk run after failure",
				zap.String("test", t.label()),
				zap.Int("remaining", len(tests)-i-1))
			break
		}

		if opts.Delay > 0 && i < len(tests)-1 {
			if err := e.sleep(ctx, opts.Delay); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

func (e *Executor) executeParallel(ctx context.Context, tests []*Test, fn ExecuteFunc, opts Options, onProgress ProgressFunc) ([]Result, error) {
	size := opts.chunkSize()
	results := make([]Result, 0, len(tests))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(result Result) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if onProgress != nil {
			onProgress(completed, len(tests), result)
		}
	}

	for start := 0; start < len(tests); start += size {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := min(start+size, len(tests))
		chunk := tests[start:end]
		slots := make([]*Result, len(chunk))

		var g errgroup.Group
		for j, t := range chunk {
			j, t := j, t
			g.Go(func() error {
				result, err := e.runOne(ctx, t, fn)
				if err != nil && opts.StopOnError {
					return fmt.Errorf("test %s: %w", t.label(), err)
				}
				slots[j] = &result
				report(result)
				return nil
			})
		}
		err := g.Wait()

		for _, r := range slots {
			if r != nil {
				results = append(results, *r)
			}
		}
		if err != nil {
			return results, err
		}

		if opts.StopOnError && anyFailed(results) {
			e.logger.Info("stopping bulk run after failed chunk",
				zap.Int("chunkStart", start),
				zap.Int("remaining", len(tests)-end))
			break
		}
	}

	return results, nil
}

// runOne executes a single test. The returned error is fn's error, already
// folded into the failed result.
func (e *Executor) runOne(ctx context.Context, t *Test, fn ExecuteFunc) (Result, error) {
	result := Result{
		TestID: t.ID,
		Name:   t.label(),
	}

	if t.Skip {
		result.Status = StatusSkipped
		result.CompletedAt = e.now()
		return result, nil
	}

	start := e.now()
	resp, err := fn(ctx, t)
	result.CompletedAt = e.now()

	if err != nil {
		e.logger.Debug("bulk test errored", zap.String("test", t.label()), zap.Error(err))
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, err
	}
	if resp == nil {
		result.Status = StatusFailed
		result.Error = "no response"
		return result, nil
	}

	elapsed := resp.Duration
	if elapsed <= 0 {
		elapsed = result.CompletedAt.Sub(start)
	}

	result.StatusCode = resp.StatusCode
	result.ResponseTime = elapsed.Milliseconds()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = StatusSuccess
	} else {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	return result, nil
}

func anyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}
