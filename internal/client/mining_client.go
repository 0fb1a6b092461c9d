package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MiningClient handles communication with the backend mining API.
// Session liveness already lives behind these REST endpoints; record
// reads and writes still go through the backing store repositories.
type MiningClient struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new mining API client
func New(baseURL string) *MiningClient {
	return &MiningClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Heartbeat sends the periodic liveness signal.
// PATCH /mining/heartbeat/ with an empty body; success = HTTP 200.
func (c *MiningClient) Heartbeat(ctx context.Context, userID uint64) error {
	return c.emptyBodyCall(ctx, http.MethodPatch, "/mining/heartbeat/", userID)
}

// StopMining asks the backend to end the mining session.
// POST /mining/stop/ with an empty body; success = HTTP 200.
func (c *MiningClient) StopMining(ctx context.Context, userID uint64) error {
	return c.emptyBodyCall(ctx, http.MethodPost, "/mining/stop/", userID)
}

// ActivityCheck sends the lighter liveness ping used when the user is
// still within the inactivity window.
// PATCH /mining/activity-check/ with an empty body; success = HTTP 200.
func (c *MiningClient) ActivityCheck(ctx context.Context, userID uint64) error {
	return c.emptyBodyCall(ctx, http.MethodPatch, "/mining/activity-check/", userID)
}

func (c *MiningClient) emptyBodyCall(ctx context.Context, method, path string, userID uint64) error {
	apiURL := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mining API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mining API returned error: %s - %s", resp.Status, string(body))
	}

	return nil
}
