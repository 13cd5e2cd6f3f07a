// Package runner executes an ordered list of actions against one device.
//
// It provides functionality for:
//   - Running actions in list order through the retry orchestrator
//   - Skipping disabled steps while keeping them in the run log
//   - Reporting progress before every executed step
//   - Stopping at the first step that fails after all retries
//
// Every run ends with exactly one completion callback carrying the full log,
// whether the run passed, failed, or hit an unexpected panic.
package runner
