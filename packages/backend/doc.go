// Package backend talks to the device/browser automation backend.
//
// Every action kind is served by one operation, posted as JSON to
// {base}/actions/{operation}. Diagnostic screenshots are fetched from
// {base}/devices/{deviceId}/screenshot. The backend must already hold a live
// session for the device; this package never opens or closes sessions.
package backend
