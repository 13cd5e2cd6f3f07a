package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func makeTests(n int) []*Test {
	tests := make([]*Test, n)
	for i := range tests {
		tests[i] = &Test{ID: fmt.Sprintf("t%d", i+1), Method: "GET", URL: "/"}
	}
	return tests
}

func statusFor(codes map[string]int) ExecuteFunc {
	return func(_ context.Context, t *Test) (*Response, error) {
		code, ok := codes[t.ID]
		if !ok {
			code = 200
		}
		return &Response{StatusCode: code, Duration: 10 * time.Millisecond}, nil
	}
}

func resultIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.TestID
	}
	return ids
}

func TestExecute_Sequential(t *testing.T) {
	t.Run("runs in order and reports progress", func(t *testing.T) {
		var progress []int
		results, err := New().Execute(context.Background(), makeTests(3), statusFor(nil), Options{},
			func(completed, total int, _ Result) {
				assert.Equal(t, 3, total)
				progress = append(progress, completed)
			})

		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2", "t3"}, resultIDs(results))
		assert.Equal(t, []int{1, 2, 3}, progress)
		for _, r := range results {
			assert.Equal(t, StatusSuccess, r.Status)
			assert.Equal(t, int64(10), r.ResponseTime)
		}
	})

	t.Run("delay between items only", func(t *testing.T) {
		var delays []time.Duration
		e := New(WithSleep(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))

		_, err := e.Execute(context.Background(), makeTests(3), statusFor(nil), Options{Delay: 50 * time.Millisecond}, nil)
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, delays)
	})

	t.Run("stop on error leaves the rest out", func(t *testing.T) {
		var calls []string
		fn := func(ctx context.Context, tc *Test) (*Response, error) {
			calls = append(calls, tc.ID)
			return statusFor(map[string]int{"t2": 500})(ctx, tc)
		}

		results, err := New().Execute(context.Background(), makeTests(4), fn, Options{StopOnError: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, calls)
		require.Len(t, results, 2)
		assert.Equal(t, StatusFailed, results[1].Status)
		assert.Equal(t, 500, results[1].StatusCode)
	})

	t.Run("continues past failures by default", func(t *testing.T) {
		results, err := New().Execute(context.Background(), makeTests(3), statusFor(map[string]int{"t1": 404}), Options{}, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, StatusFailed, results[0].Status)
		assert.Equal(t, StatusSuccess, results[2].Status)
	})

	t.Run("execute error becomes failed result", func(t *testing.T) {
		fn := func(context.Context, *Test) (*Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		}

		results, err := New().Execute(context.Background(), makeTests(2), fn, Options{}, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, StatusFailed, results[0].Status)
		assert.Equal(t, 0, results[0].StatusCode)
		assert.Equal(t, int64(0), results[0].ResponseTime)
		assert.Equal(t, "dial tcp: connection refused", results[0].Error)
	})

	t.Run("skipped tests are not executed", func(t *testing.T) {
		tests := makeTests(2)
		tests[0].Skip = true

		var calls int
		fn := func(ctx context.Context, tc *Test) (*Response, error) {
			calls++
			return statusFor(nil)(ctx, tc)
		}

		results, err := New().Execute(context.Background(), tests, fn, Options{StopOnError: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, StatusSkipped, results[0].Status)
		assert.Equal(t, StatusSuccess, results[1].Status)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := New().Execute(ctx, makeTests(2), statusFor(nil), Options{}, nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}

func TestExecute_Parallel(t *testing.T) {
	t.Run("never exceeds max concurrent", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		var (
			inFlight atomic.Int32
			peak     atomic.Int32
			mu       sync.Mutex
			calls    = make(map[string]int)
		)
		fn := func(_ context.Context, tc *Test) (*Response, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)

			mu.Lock()
			calls[tc.ID]++
			mu.Unlock()
			return &Response{StatusCode: 200}, nil
		}

		var (
			progressMu sync.Mutex
			progress   []int
		)
		results, err := New().Execute(context.Background(), makeTests(5), fn,
			Options{Parallel: true, MaxConcurrent: 2},
			func(completed, _ int, _ Result) {
				progressMu.Lock()
				progress = append(progress, completed)
				progressMu.Unlock()
			})

		require.NoError(t, err)
		assert.Len(t, results, 5)
		assert.LessOrEqual(t, peak.Load(), int32(2))
		for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
			assert.Equal(t, 1, calls[id], id)
		}
		sort.Ints(progress)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	})

	t.Run("results keep input order", func(t *testing.T) {
		fn := func(_ context.Context, tc *Test) (*Response, error) {
			if tc.ID == "t1" {
				time.Sleep(20 * time.Millisecond)
			}
			return &Response{StatusCode: 200}, nil
		}

		results, err := New().Execute(context.Background(), makeTests(3), fn, Options{Parallel: true, MaxConcurrent: 3}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2", "t3"}, resultIDs(results))
	})

	t.Run("default chunk size", func(t *testing.T) {
		var peak, inFlight atomic.Int32
		fn := func(context.Context, *Test) (*Response, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return &Response{StatusCode: 200}, nil
		}

		results, err := New().Execute(context.Background(), makeTests(8), fn, Options{Parallel: true}, nil)
		require.NoError(t, err)
		assert.Len(t, results, 8)
		assert.LessOrEqual(t, peak.Load(), int32(DefaultMaxConcurrent))
	})

	t.Run("stop on error checks between chunks", func(t *testing.T) {
		var calls atomic.Int32
		fn := func(ctx context.Context, tc *Test) (*Response, error) {
			calls.Add(1)
			return statusFor(map[string]int{"t1": 500})(ctx, tc)
		}

		results, err := New().Execute(context.Background(), makeTests(6), fn,
			Options{Parallel: true, MaxConcurrent: 2, StopOnError: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, []string{"t1", "t2"}, resultIDs(results))
	})

	t.Run("execute error propagates with stop on error", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		boom := errors.New("boom")
		fn := func(_ context.Context, tc *Test) (*Response, error) {
			if tc.ID == "t2" {
				return nil, boom
			}
			return &Response{StatusCode: 200}, nil
		}

		results, err := New().Execute(context.Background(), makeTests(4), fn,
			Options{Parallel: true, MaxConcurrent: 2, StopOnError: true}, nil)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "test t2")
		assert.Equal(t, []string{"t1"}, resultIDs(results))
	})

	t.Run("execute error is captured without stop on error", func(t *testing.T) {
		fn := func(_ context.Context, tc *Test) (*Response, error) {
			if tc.ID == "t2" {
				return nil, errors.New("boom")
			}
			return &Response{StatusCode: 201}, nil
		}

		results, err := New().Execute(context.Background(), makeTests(3), fn, Options{Parallel: true, MaxConcurrent: 2}, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, StatusFailed, results[1].Status)
		assert.Equal(t, 0, results[1].StatusCode)
		assert.Equal(t, "boom", results[1].Error)
	})
}
