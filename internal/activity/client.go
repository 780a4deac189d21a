// Package activity is the client for the backend activity catalog: semantic
// search over the database and persistence of user-generated activities.
package activity

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

// SearchRequest filters a catalog search.
type SearchRequest struct {
	Query        string `json:"query"`
	ActivityType string `json:"activity_type,omitempty"`
	AgeGroup     string `json:"age_group,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// SearchResponse is the ranked result of a catalog search.
type SearchResponse struct {
	Results []types.Activity `json:"results"`
	Count   int              `json:"count"`
}

// SaveRequest persists a user-generated activity to the catalog.
type SaveRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Instructions    string   `json:"instructions"`
	AgeGroup        string   `json:"age_group"`
	DurationMinutes int      `json:"duration_minutes"`
	Supplies        []string `json:"supplies"`
	ActivityType    string   `json:"activity_type,omitempty"`
	IndoorOutdoor   string   `json:"indoor_outdoor,omitempty"`
}

// SaveResponse reports the outcome of a save.
type SaveResponse struct {
	Success    bool   `json:"success"`
	ActivityID string `json:"activity_id"`
	Message    string `json:"message"`
	Searchable bool   `json:"searchable"`
}

// Client calls the activity endpoints. Saving never mutates activities
// already attached to transcript messages; it persists a copy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates an activity catalog client.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// Search queries the catalog.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Limit == 0 {
		req.Limit = 10
	}

	var resp SearchResponse
	if err := c.post(ctx, "/api/activities/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Save persists a user-generated activity.
func (c *Client) Save(ctx context.Context, req SaveRequest) (*SaveResponse, error) {
	var resp SaveResponse
	if err := c.post(ctx, "/api/activities/save", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &types.TransportError{Op: "POST " + path, Err: err}
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
