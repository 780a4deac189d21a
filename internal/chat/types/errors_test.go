package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport error", &TransportError{Op: "POST /chat", Err: errors.New("refused")}, true},
		{"wrapped transport error", fmt.Errorf("turn failed: %w", &TransportError{Op: "dial", Err: errors.New("reset")}), true},
		{"bad gateway", &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"service unavailable", &StatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{"gateway timeout", &StatusError{StatusCode: http.StatusGatewayTimeout}, true},
		{"bad request", &StatusError{StatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"internal server error", &StatusError{StatusCode: http.StatusInternalServerError}, false},
		{"protocol error", &ProtocolError{Message: "model unavailable"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &TransportError{Op: "read stream", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "read stream")
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{StatusCode: http.StatusBadGateway, Body: "upstream down"}
	assert.Contains(t, err.Error(), "Bad Gateway")
	assert.Contains(t, err.Error(), "upstream down")
}
