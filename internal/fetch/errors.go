package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError is the closed set of expected network failures:
// *RequestFailure, *ConnectionFailure and *AllSourcesFailed. Cancellation is
// never a NetworkError; context errors are returned as they are.
type NetworkError interface {
	error
	networkError()
}

// RequestFailure is a response with an unexpected HTTP status.
type RequestFailure struct {
	URL    string
	Status int
	Body   string
}

func (e *RequestFailure) Error() string {
	msg := fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (*RequestFailure) networkError() {}

// ConnectionFailure is a transport-level failure: DNS, TLS, reset
// connections, truncated bodies.
type ConnectionFailure struct {
	Message string
	Details string
}

func (e *ConnectionFailure) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (*ConnectionFailure) networkError() {}

// AllSourcesFailed aggregates the failure of every source for one resource.
type AllSourcesFailed struct {
	Resource string
	Errors   []NetworkError
}

func (e *AllSourcesFailed) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("all sources failed for %s: %s", e.Resource, strings.Join(parts, "; "))
}

func (*AllSourcesFailed) networkError() {}

// Unwrap exposes the per-source errors to errors.Is and errors.As.
func (e *AllSourcesFailed) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err)
	}
	return out
}

// IsRetryable reports whether err is a transient failure worth retrying:
// 408, 429, any 5xx, or a connection failure.
func IsRetryable(err error) bool {
	switch e := err.(type) {
	case *RequestFailure:
		return e.Status == http.StatusRequestTimeout ||
			e.Status == http.StatusTooManyRequests ||
			e.Status >= 500
	case *ConnectionFailure:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err says the resource does not exist: a 404
// from a single source, or a 404 from every source.
func IsNotFound(err error) bool {
	var all *AllSourcesFailed
	if errors.As(err, &all) {
		if len(all.Errors) == 0 {
			return false
		}
		for _, e := range all.Errors {
			if !IsNotFound(e) {
				return false
			}
		}
		return true
	}
	var rf *RequestFailure
	return errors.As(err, &rf) && rf.Status == http.StatusNotFound
}

// IsCancellation reports whether err is a context cancellation or deadline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// normalize turns any source error into a NetworkError.
func normalize(source string, err error) NetworkError {
	var ne NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	return &ConnectionFailure{Message: source + " failed", Details: err.Error()}
}
