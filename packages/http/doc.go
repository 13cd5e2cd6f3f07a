// Package http provides the HTTP client used to reach the automation backend
// and to send chained and bulk requests.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts
//   - Redirect handling
//   - Default headers, proxy, and TLS verification settings
//   - Optional client-side rate limiting
//   - Response handling and body reading
package http
