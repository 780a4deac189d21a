package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/behindthegarage/kidsclubplans-conversational/internal/chat/types"
	"github.com/behindthegarage/kidsclubplans-conversational/internal/pkg/logger"
)

// WeeklySchedule is the persisted form of a week board.
type WeeklySchedule struct {
	WeekNumber int     `json:"week_number"`
	Theme      string  `json:"theme"`
	Activities []Entry `json:"activities"`
}

// SaveResponse reports a save or duplicate outcome.
type SaveResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ActivitiesCount int    `json:"activities_count"`
}

// Client persists week boards through the backend. Board state and
// persistence are deliberately separate; a board is only written when the
// user asks for it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a schedule persistence client.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Save writes a week board.
func (c *Client) Save(ctx context.Context, sched WeeklySchedule) (*SaveResponse, error) {
	var resp SaveResponse
	if err := c.do(ctx, http.MethodPost, "/api/schedules/weekly/save", sched, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Load fetches the schedule for a week number. A week that was never saved
// comes back empty, not as an error.
func (c *Client) Load(ctx context.Context, weekNumber int) (*WeeklySchedule, error) {
	var resp struct {
		Success    bool    `json:"success"`
		WeekNumber int     `json:"week_number"`
		Theme      string  `json:"theme"`
		Activities []Entry `json:"activities"`
	}
	path := fmt.Sprintf("/api/schedules/weekly/%d", weekNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &WeeklySchedule{
		WeekNumber: resp.WeekNumber,
		Theme:      resp.Theme,
		Activities: resp.Activities,
	}, nil
}

// Duplicate copies one saved week onto another.
func (c *Client) Duplicate(ctx context.Context, fromWeek, toWeek int) (*SaveResponse, error) {
	req := map[string]int{"from_week": fromWeek, "to_week": toWeek}
	var resp SaveResponse
	if err := c.do(ctx, http.MethodPost, "/api/schedules/weekly/duplicate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &types.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &types.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
