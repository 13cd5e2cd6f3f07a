package cmd

import "fmt"

// Exit codes for hitflow CLI
const (
	// ExitSuccess indicates every run passed
	ExitSuccess = 0

	// ExitTestFailure indicates a run, chain or bulk suite failed
	ExitTestFailure = 1

	// ExitParseError indicates a plan file could not be parsed or validated
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code out of a command. A nil Err exits
// silently, after the formatter has already reported the outcome.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
