// Package executor dispatches a single action to the automation backend.
//
// Each action kind has exactly one handler. A handler builds the backend
// request, calls the matching operation, and turns the backend's answer into
// either a Result or one of the typed errors in this package. The executor
// never retries and never writes run logs; that is the job of the retry
// orchestrator.
package executor
