// Package weather looks up simplified forecasts used to steer
// indoor/outdoor planning. The heavy lifting (provider APIs, caching) lives
// in the backend; this client only calls its endpoint.
package weather

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

// Forecast is the backend's simplified weather answer.
type Forecast struct {
	Location            string   `json:"location"`
	Date                string   `json:"date"`
	TemperatureF        *float64 `json:"temperature_f"`
	TemperatureC        *float64 `json:"temperature_c"`
	Conditions          string   `json:"conditions"`
	Description         string   `json:"description"`
	PrecipitationChance *int     `json:"precipitation_chance"`
	OutdoorSuitable     bool     `json:"outdoor_suitable"`
}

// Client calls the backend weather endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a weather client.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Lookup fetches the forecast for a location and ISO date.
func (c *Client) Lookup(ctx context.Context, location, date string) (*Forecast, error) {
	body, err := json.Marshal(map[string]string{
		"location": location,
		"date":     date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/weather", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.TransportError{Op: "POST /api/weather", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &types.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var forecast Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &forecast, nil
}
