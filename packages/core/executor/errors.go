package executor

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
)

// ActionExecutionError reports a failure reported by the backend or the
// transport in front of it
type ActionExecutionError struct {
	Kind    action.Kind
	Message string
	Err     error
}

func (e *ActionExecutionError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Kind, e.Message)
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a wait condition that was not met in time. It unwraps
// to its ActionExecutionError.
type TimeoutError struct {
	ActionExecutionError
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s: %s", e.Kind, e.Timeout, e.Message)
}

func (e *TimeoutError) Unwrap() error {
	return &e.ActionExecutionError
}

// AssertionFailure reports an assertion the backend evaluated as false
type AssertionFailure struct {
	ActionExecutionError
	Expected string
	Actual   string
}

func (e *AssertionFailure) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("assertion failed: expected %q, got %q", e.Expected, e.Actual)
	}
	return fmt.Sprintf("assertion failed: %s", e.Message)
}

func (e *AssertionFailure) Unwrap() error {
	return &e.ActionExecutionError
}

// UnknownActionKindError is returned for a kind with no handler
type UnknownActionKindError struct {
	Kind action.Kind
}

func (e *UnknownActionKindError) Error() string {
	return fmt.Sprintf("unknown action kind %q", e.Kind)
}
