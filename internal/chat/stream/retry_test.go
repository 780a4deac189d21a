package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
)

// failingTransport fails every round trip and counts attempts.
type failingTransport struct {
	calls atomic.Int32
}

func (t *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, errors.New("connection refused")
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:        baseURL,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	}, nil, opts...)
}

func TestStream_TransportFailureRetriedToExhaustion(t *testing.T) {
	transport := &failingTransport{}
	c := newTestClient(t, "http://localhost:1", WithHTTPClient(&http.Client{Transport: transport}))

	_, err := c.Stream(context.Background(), types.ChatRequest{Message: "hi"})

	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
	// One initial attempt plus two retries.
	assert.EqualValues(t, 3, transport.calls.Load())
}

func TestStream_GatewayStatusRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":{\"content\":\"ok\"}}\ndata: [DONE]\n")
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv.URL).Stream(context.Background(), types.ChatRequest{Message: "hi"})

	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Content)
}

func TestStream_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Stream(context.Background(), types.ChatRequest{Message: "hi"})

	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var statusErr *types.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.False(t, types.IsRetryable(err))
}

func TestStream_ServerErrorNotRetried(t *testing.T) {
	// Plain 500s indicate an application fault, not a flaky hop; only the
	// gateway statuses 502/503/504 are retryable.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Stream(context.Background(), types.ChatRequest{Message: "hi"})

	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestStream_CancellationWinsOverBackoff(t *testing.T) {
	transport := &failingTransport{}
	c := NewClient(Config{
		BaseURL:        "http://localhost:1",
		MaxRetries:     2,
		RetryBaseDelay: time.Hour, // would block for an hour without cancellation
	}, nil, WithHTTPClient(&http.Client{Transport: transport}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Stream(ctx, types.ChatRequest{Message: "hi"})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStream_InBandErrorNotRetried(t *testing.T) {
	// An error event inside an established stream must not trigger a re-dial.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "data: {\"type\":\"error\",\"data\":{\"message\":\"model unavailable\"}}\ndata: [DONE]\n")
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv.URL).Stream(context.Background(), types.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, types.EventError, got[0].Type)
	assert.EqualValues(t, 1, calls.Load())
}

func TestStream_SendsJSONRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv.URL).Stream(context.Background(), types.ChatRequest{
		Message:        "plan my week",
		ConversationID: "conv-1",
	})

	require.NoError(t, err)
	assert.Empty(t, collect(t, events))
}
