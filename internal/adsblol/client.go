package adsblol

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yeonjoon13/flight-map/internal/model"
)

// DefaultURL serves LADD-filtered aircraft worldwide.
const DefaultURL = "https://api.adsb.lol/v2/ladd"

const (
	userAgent    = "flight-map/1.0"
	maxBodyBytes = 32 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("adsblol: unexpected status %s", e.Status)
}

// Client polls one aircraft endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for url, or DefaultURL when url is empty.
func NewClient(url string, httpClient *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{url: url, httpClient: httpClient}
}

// URL returns the endpoint the client polls.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET and returns the aircraft list.
func (c *Client) Fetch(ctx context.Context) ([]model.AircraftRecord, error) {
	s, err := c.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.Aircraft, nil
}

// FetchSnapshot performs one GET and returns the decoded body.
func (c *Client) FetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("adsblol: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("adsblol: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return model.Snapshot{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("adsblol: read body: %w", err)
	}
	s, err := model.DecodeSnapshot(body)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("adsblol: %w", err)
	}
	return s, nil
}
