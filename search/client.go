// Package search resolves free-text descriptions to remotely hosted audio
// assets through a Freesound-compatible content-search API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"earshot/logger"
)

// ErrNoResults is returned when the provider finds nothing for a query.
var ErrNoResults = errors.New("search: no results")

// Result is the best match for one query, with attribution metadata.
// Attribution is logged by callers, not enforced.
type Result struct {
	Name       string
	PreviewURL string
	Author     string
	License    string
	SourceURL  string
	Duration   time.Duration
}

// Client queries a Freesound-style search endpoint.
type Client struct {
	baseURL     string
	token       string
	maxDuration time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithMaxDuration sets the duration ceiling applied to every query.
func WithMaxDuration(d time.Duration) Option {
	return func(c *Client) { c.maxDuration = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a search client authenticated with the given API token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:     "https://freesound.org/apiv2",
		token:       token,
		maxDuration: 10 * time.Second,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger.WithComponent("search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse mirrors the provider's text-search payload.
type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Name     string            `json:"name"`
		Username string            `json:"username"`
		License  string            `json:"license"`
		URL      string            `json:"url"`
		Duration float64           `json:"duration"`
		Previews map[string]string `json:"previews"`
	} `json:"results"`
}

// FindSound resolves query to the single best matching sound under the
// configured duration ceiling. Returns ErrNoResults when nothing matches.
func (c *Client) FindSound(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("filter", fmt.Sprintf("duration:[0 TO %d]", int(c.maxDuration.Seconds())))
	q.Set("fields", "name,username,license,url,duration,previews")
	q.Set("page_size", "1")
	q.Set("token", c.token)

	reqURL := c.baseURL + "/search/text/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed: status %s", resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, ErrNoResults
	}

	best := payload.Results[0]
	preview := best.Previews["preview-hq-mp3"]
	if preview == "" {
		preview = best.Previews["preview-lq-mp3"]
	}
	if preview == "" {
		return nil, ErrNoResults
	}

	c.logger.Debug("search hit",
		slog.String("query", query),
		slog.String("name", best.Name),
		slog.String("author", best.Username))

	return &Result{
		Name:       best.Name,
		PreviewURL: preview,
		Author:     best.Username,
		License:    best.License,
		SourceURL:  best.URL,
		Duration:   time.Duration(best.Duration * float64(time.Second)),
	}, nil
}
