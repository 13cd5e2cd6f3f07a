// Package action defines the step records executed against an automation
// backend.
//
// An Action describes one UI interaction:
//   - typing text into an element
//   - waiting for an element to become visible or clickable
//   - asserting element visibility or text
//   - tapping, swiping, or pausing for a fixed delay
//
// Actions carry their own retry policy and an enabled flag. They are read-only
// once handed to the executor.
package action
