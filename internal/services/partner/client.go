// Package partner is the REST client for the partner platform's project
// catalog (hubs -> projects). All traffic goes through the throttled fetcher;
// the client adds authentication, decoding, and error classification, never
// retry (that is the crawler's call).
package partner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/fetcher"
)

var (
	// ErrTokenRejected indicates the platform returned 401 for the bearer
	// token; the caller should refresh and retry once.
	ErrTokenRejected = errors.New("token_rejected")
	// ErrInsufficientScopes indicates the token authenticated but lacks the
	// scopes the catalog listing requires.
	ErrInsufficientScopes = errors.New("insufficient_scopes")
	// ErrRateLimited indicates HTTP 429; the caller cools down and retries
	// the same page.
	ErrRateLimited = errors.New("rate_limited")
)

// StatusError carries a non-2xx upstream status for retry classification
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("partner API returned %d for %s", e.StatusCode, e.URL)
}

// Client calls the partner platform catalog endpoints
type Client struct {
	baseURL string
	fetcher *fetcher.Fetcher
	logger  arbor.ILogger
}

// NewClient creates a partner API client
func NewClient(baseURL string, f *fetcher.Fetcher, logger arbor.ILogger) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: f,
		logger:  logger,
	}
}

// ListHubs returns all hubs visible to the token
func (c *Client) ListHubs(ctx context.Context, accessToken string) ([]Hub, error) {
	url := c.baseURL + "/project/v1/hubs"
	var envelope listEnvelope
	if err := c.getJSON(ctx, url, accessToken, &envelope); err != nil {
		return nil, err
	}

	hubs := make([]Hub, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		hubs = append(hubs, Hub{ID: item.ID, Name: item.Attributes.Name})
	}
	return hubs, nil
}

// ListProjects returns one page of projects under a hub. A page larger than
// the requested limit is clamped defensively.
func (c *Client) ListProjects(ctx context.Context, accessToken, hubID string, limit, offset int) ([]Project, error) {
	url := fmt.Sprintf("%s/project/v1/hubs/%s/projects?limit=%d&offset=%d", c.baseURL, hubID, limit, offset)
	var envelope listEnvelope
	if err := c.getJSON(ctx, url, accessToken, &envelope); err != nil {
		return nil, err
	}

	items := envelope.Data
	if len(items) > limit {
		c.logger.Warn().
			Str("hub_id", hubID).
			Int("limit", limit).
			Int("returned", len(items)).
			Msg("Partner API returned more items than requested, clamping page")
		items = items[:limit]
	}

	projects := make([]Project, 0, len(items))
	for _, item := range items {
		projects = append(projects, Project{ID: item.ID, Name: item.Attributes.Name})
	}
	return projects, nil
}

// ProbeScopes issues one lightweight hubs call to verify the token carries
// the scopes the crawl needs.
func (c *Client) ProbeScopes(ctx context.Context, accessToken string) error {
	_, err := c.ListHubs(ctx, accessToken)
	return err
}

func (c *Client) getJSON(ctx context.Context, url, accessToken string, out interface{}) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.fetcher.Fetch(ctx, url, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrTokenRejected
	case resp.StatusCode == http.StatusForbidden:
		return ErrInsufficientScopes
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}
