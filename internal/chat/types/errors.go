package types

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError wraps a network-level failure (dial, TLS, reset). Always
// retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 HTTP response. Retryable only for the gateway
// statuses 502/503/504.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat API error: %s: %s", http.StatusText(e.StatusCode), e.Body)
}

// IsRetryable reports whether the status indicates a transient gateway
// condition.
func (e *StatusError) IsRetryable() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ProtocolError is an in-band error event from the backend. Fatal for the
// turn, never retried.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("chat stream error: %s", e.Message)
}

// IsRetryable classifies an error per the retry policy: transport failures
// and 502/503/504 are transient, everything else propagates immediately.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
