package httpx

import (
	"errors"
	"fmt"
)

// ConstructionError means the client could not be built: bad base URL or
// bad timeout configuration. It is fatal at startup.
type ConstructionError struct {
	BaseURL string
	Err     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("httpx: construct client for %q: %v", e.BaseURL, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// TransportError covers everything that happens before a status code is
// known: dial, TLS, timeouts, context cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("httpx: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any non-2xx response. Body holds a short
// prefix of the response body for diagnostics.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("httpx: %s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("httpx: %s %s: status %d, body: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// DecodeError is returned when a payload cannot be decoded: the top level
// JSON body, or adapter level post-processing (base64, nested JSON).
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("httpx: decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind returns a short label for err suitable for logs and metric labels.
func Kind(err error) string {
	var (
		ce *ConstructionError
		te *TransportError
		se *HTTPStatusError
		de *DecodeError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ce):
		return "construction"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &de):
		return "decode"
	default:
		return "error"
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
