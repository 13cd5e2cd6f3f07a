package executor

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/backend"
)

// Backend is the subset of the automation backend the executor needs
type Backend interface {
	Invoke(ctx context.Context, op backend.Operation, req *backend.Request) (*backend.Response, error)
}

// Result is the normalized outcome of one successful dispatch
type Result struct {
	Kind     action.Kind
	Response *backend.Response
	Duration time.Duration
}

type handler func(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error)

type Executor struct {
	backend  Backend
	handlers map[action.Kind]handler
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

// WithSleep replaces the timer used by delay actions
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

func New(b Backend, opts ...Option) *Executor {
	e := &Executor{
		backend: b,
		sleep:   Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[action.Kind]handler{
		action.KindTypeText:      e.typeText,
		action.KindWaitVisible:   e.waitFor(backend.OpWaitVisible),
		action.KindWaitClickable: e.waitFor(backend.OpWaitClickable),
		action.KindAssertVisible: e.assert(backend.OpAssertVisible),
		action.KindAssertText:    e.assert(backend.OpAssertText),
		action.KindTap:           e.tap,
		action.KindSwipe:         e.swipe,
		action.KindDelay:         e.delay,
	}
	return e
}

// Execute dispatches a to the backend operation for its kind
func (e *Executor) Execute(ctx context.Context, a *action.Action, deviceID string) (*Result, error) {
	h, ok := e.handlers[a.Kind]
	if !ok {
		return nil, &UnknownActionKindError{Kind: a.Kind}
	}

	start := time.Now()
	resp, err := h(ctx, a, deviceID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:     a.Kind,
		Response: resp,
		Duration: time.Since(start),
	}, nil
}

// Supports reports whether the executor has a handler for k
func (e *Executor) Supports(k action.Kind) bool {
	_, ok := e.handlers[k]
	return ok
}

func (e *Executor) call(ctx context.Context, kind action.Kind, op backend.Operation, req *backend.Request) (*backend.Response, error) {
	resp, err := e.backend.Invoke(ctx, op, req)
	if err != nil {
		return nil, &ActionExecutionError{Kind: kind, Message: err.Error(), Err: err}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, &ActionExecutionError{Kind: kind, Message: msg}
	}
	return resp, nil
}

func (e *Executor) typeText(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error) {
	return e.call(ctx, a.Kind, backend.OpTypeText, &backend.Request{
		DeviceID: deviceID,
		Element:  a.Element,
		Text:     a.Text,
	})
}

func (e *Executor) waitFor(op backend.Operation) handler {
	return func(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error) {
		timeout := a.WaitTimeout()
		resp, err := e.call(ctx, a.Kind, op, &backend.Request{
			DeviceID:  deviceID,
			Element:   a.Element,
			TimeoutMs: int(timeout.Milliseconds()),
		})
		if err != nil {
			return nil, err
		}
		if !resp.ConditionMet() {
			msg := resp.Error
			if msg == "" {
				msg = a.Element.String() + " not ready"
			}
			return nil, &TimeoutError{
				ActionExecutionError: ActionExecutionError{Kind: a.Kind, Message: msg},
				Timeout:              timeout,
			}
		}
		return resp, nil
	}
}

func (e *Executor) assert(op backend.Operation) handler {
	return func(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error) {
		req := &backend.Request{
			DeviceID: deviceID,
			Element:  a.Element,
			Expected: a.ExpectedText,
		}
		if a.TimeoutMs > 0 {
			req.TimeoutMs = a.TimeoutMs
		}

		resp, err := e.call(ctx, a.Kind, op, req)
		if err != nil {
			return nil, err
		}
		if !resp.ConditionMet() {
			msg := resp.Error
			if msg == "" {
				msg = a.Element.String() + " is not visible"
			}
			return nil, &AssertionFailure{
				ActionExecutionError: ActionExecutionError{Kind: a.Kind, Message: msg},
				Expected:             a.ExpectedText,
				Actual:               resp.Text,
			}
		}
		return resp, nil
	}
}

func (e *Executor) tap(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error) {
	req := &backend.Request{
		DeviceID: deviceID,
		Element:  a.Element,
	}
	if a.Point != nil {
		req.X, req.Y = &a.Point.X, &a.Point.Y
	}
	return e.call(ctx, a.Kind, backend.OpTap, req)
}

func (e *Executor) swipe(ctx context.Context, a *action.Action, deviceID string) (*backend.Response, error) {
	req := &backend.Request{
		DeviceID:   deviceID,
		Element:    a.Element,
		DurationMs: a.DurationMs,
	}
	if a.Point != nil {
		req.X, req.Y = &a.Point.X, &a.Point.Y
	}
	if a.End != nil {
		req.EndX, req.EndY = &a.End.X, &a.End.Y
	}
	return e.call(ctx, a.Kind, backend.OpSwipe, req)
}

func (e *Executor) delay(ctx context.Context, a *action.Action, _ string) (*backend.Response, error) {
	if err := e.sleep(ctx, a.Delay()); err != nil {
		return nil, &ActionExecutionError{Kind: a.Kind, Message: err.Error(), Err: err}
	}
	return &backend.Response{Success: true}, nil
}

// Sleep pauses for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
