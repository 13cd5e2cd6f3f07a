// Package env holds the variable pool threaded through a request chain.
//
// It provides functionality for:
//   - An append-only pool of named values with last-write-wins semantics
//   - Variable interpolation using {{name}} syntax, whitespace tolerant
//   - Loading seed variables from .env files and named config environments
//
// Unresolved {{name}} references are left in place verbatim.
package env
