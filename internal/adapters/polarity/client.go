// Package polarity talks to the external text-polarity service.
package polarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

type Client struct {
	endpoint string
	apiKey   string
	hc       *http.Client
}

var _ domain.PolarityModel = (*Client)(nil)

func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Score posts the text and returns the polarity in [-1, 1].
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("polarity", c.endpoint, 0, time.Since(start))
		return 0, fmt.Errorf("polarity request: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("polarity", c.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("polarity service returned %s", resp.Status)
	}

	var out struct {
		Polarity float64 `json:"polarity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode polarity response: %w", err)
	}
	if out.Polarity < -1 || out.Polarity > 1 {
		return 0, fmt.Errorf("polarity %v out of range", out.Polarity)
	}
	return out.Polarity, nil
}
