// Package ghostwire is the HTTP client orchestrator (spec.md §4.5, C5): it
// merges request and profile headers, resolves the target URL, selects a
// wire protocol, drives the connection pools and codecs in internal/h1,
// internal/h2 and internal/h3, and follows redirects.
package ghostwire

import "fmt"

// ConnectionFailedError wraps a transient dial/network failure (spec.md
// §4.5 "Failure semantics").
type ConnectionFailedError struct{ Err error }

func (e *ConnectionFailedError) Error() string { return fmt.Sprintf("ghostwire: connection failed: %v", e.Err) }
func (e *ConnectionFailedError) Unwrap() error { return e.Err }

// TimeoutError marks a connect, read or write that exceeded its configured
// deadline.
type TimeoutError struct{ Op string }

func (e *TimeoutError) Error() string { return "ghostwire: timeout: " + e.Op }

// TlsError wraps a handshake failure.
type TlsError struct{ Msg string }

func (e *TlsError) Error() string { return "ghostwire: tls error: " + e.Msg }

// Http2Error wraps an HTTP/2 protocol-level failure.
type Http2Error struct{ Msg string }

func (e *Http2Error) Error() string { return "ghostwire: http2 error: " + e.Msg }

// Http3Error wraps an HTTP/3 protocol-level failure.
type Http3Error struct{ Msg string }

func (e *Http3Error) Error() string { return "ghostwire: http3 error: " + e.Msg }

// TooManyRedirectsError is returned once the redirect chain reaches
// Config.MaxRedirects (spec.md §4.5 step 7).
type TooManyRedirectsError struct{ Max int }

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("ghostwire: too many redirects (max %d)", e.Max)
}

// ResourceExhaustedError is returned when a configured body/header/cookie
// cap is reached (spec.md §7 "ResourceExhausted", property P10, scenario
// S6) — distinct from ConnectionFailedError because the connection itself
// is healthy; the peer's response simply exceeded a ceiling.
type ResourceExhaustedError struct{ Limit string }

func (e *ResourceExhaustedError) Error() string { return "ghostwire: resource exhausted: " + e.Limit }

// InvalidResponseError marks a structurally malformed response: a bad
// chunk size, a decompression failure, or anything else that isn't a
// network failure or a ceiling (spec.md §7 "InvalidResponse").
type InvalidResponseError struct{ Reason string }

func (e *InvalidResponseError) Error() string { return "ghostwire: invalid response: " + e.Reason }

// RedirectCycleError is returned when a redirect chain revisits a URL it
// has already followed (spec.md §4.5 step 7, cycle detection).
type RedirectCycleError struct{ URL string }

func (e *RedirectCycleError) Error() string { return "ghostwire: redirect cycle at " + e.URL }
