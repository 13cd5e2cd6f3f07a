// Package chain runs a set of dependent requests in dependency order,
// threading values extracted from each response into the requests that
// follow.
//
// Every request sees the whole variable pool accumulated so far in the run,
// not only the values produced by the request it depends on. Placeholders of
// the form {{name}} in the URL, header values and body are replaced from the
// pool before the request is handed to the execute function; names that have
// no value yet are left as written.
package chain
