package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// NetworkError wraps failures where no usable response came back.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time rather than failing outright.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusOf returns the HTTP status carried by err, or 0 if it has none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the backend's error message, or the empty string.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsNetwork reports whether err means the backend could not be reached in
// time, including gateway statuses that come from a proxy rather than the shop.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	switch StatusOf(err) {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
