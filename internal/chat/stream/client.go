package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

// Config configures the chat stream client.
type Config struct {
	BaseURL        string
	MaxRetries     int           // retries after the first attempt
	RetryBaseDelay time.Duration // backoff base, doubled per attempt
}

const (
	defaultMaxRetries     = 2
	defaultRetryBaseDelay = 400 * time.Millisecond
)

// Client opens chat turns against the planning backend and decodes the SSE
// response body. One Client is safe for concurrent use; each call opens an
// independent stream.
type Client struct {
	baseURL        string
	maxRetries     int
	retryBaseDelay time.Duration
	httpClient     *http.Client
	decoder        *Decoder
	log            *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Tests use this to
// inject counting transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a chat stream client.
func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}

	c := &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		// No overall timeout: the response body is a long-lived stream.
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		decoder: NewDecoder(log.Named("decoder")),
		log:     log,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// open performs one request attempt and classifies failures for the retry
// policy: network failures become TransportError, non-200 statuses become
// StatusError.
func (c *Client) open(ctx context.Context, req types.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.TransportError{Op: "POST /chat", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &types.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return resp, nil
}

// Stream opens a chat turn and returns the decoded event sequence. The dial
// is retried per the retry policy; once a stream has started delivering
// events it is never re-issued (see openWithRetry). The caller must drain
// the channel or cancel the context.
func (c *Client) Stream(ctx context.Context, req types.ChatRequest) (<-chan types.StreamEvent, error) {
	resp, err := c.openWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	c.log.Debug("chat stream opened",
		zap.String("conversation_id", req.ConversationID),
		zap.Int("message_len", len(req.Message)))

	events := make(chan types.StreamEvent, 10)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		for event := range c.decoder.Decode(ctx, resp.Body) {
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
