// Package capture extracts values from responses for use in later requests.
//
// It supports capturing values from:
//   - Response body, by dot/bracket path (a.b[0].c)
//   - Response headers, by name
//   - Cookies set through Set-Cookie headers
//
// A value that cannot be found is reported as absent, never as an error.
package capture
