// Package bulk runs a list of independent tests either one at a time or in
// bounded parallel chunks, and summarises the outcome.
//
// Parallel mode splits the list into chunks of MaxConcurrent tests. A chunk
// finishes only when every test in it has finished, so the stop-on-error
// check happens between chunks; tests already in flight when a failure
// occurs still run to completion.
package bulk
