// Package device provides an HTTP client for the printer's web API.
//
// # Overview
//
// The printer exposes a small set of GET endpoints for file management and
// job control, a multipart upload endpoint, and a WebSocket status feed. This
// package covers the HTTP side; the feed is consumed by package feed using
// FeedURL.
//
// # API Endpoints
//
//   - GET /files/: storage listing
//   - GET /files/?select=NAME: mark NAME selected, returns the listing
//   - GET /files/?delete: delete the selected file, returns the listing
//   - GET /printer/start: start the selected job, returns a status snapshot
//   - GET /printer/send?cmd=CMD: forward a raw command line
//   - GET /printer/status: status snapshot (polled while the feed is down)
//   - POST /upload: multipart form with a single "file" field
//
// # Wire Quirks
//
// The firmware is loose about JSON types. Temperatures arrive either as
// numbers or as quoted decimal strings, and the selection marker is sent as
// "1" rather than a boolean. Status and File decode both forms.
//
// # Error Handling
//
// Any non-2xx response becomes an *APIError. Its message is the server's
// {"error": "..."} field or plain-text body when present, otherwise
// "<code> : <status text>":
//
//   - "File not found"
//   - "Error uploading file!"
//   - "404 : Not Found"
//
// Transport failures are wrapped ("execute request: ..."), and IsTimeout
// reports whether a failure was a deadline.
//
// # Retries
//
// Listing and status reads go through go-retryablehttp and are retried on
// transport errors only. An HTTP status is the device's answer and is
// returned as is. Selection, deletion, job start, commands and uploads change
// device state and are never retried.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package device
