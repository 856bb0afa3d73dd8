// Package clockify talks to the external time-tracking source. The Client
// interface is the only place the source's field names are known; the
// collector normalizes everything it returns into the canonical model.
package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "https://api.clockify.me/api/v1"

	requestTimeout = 30 * time.Second
)

// RawTimeEntry mirrors the source's time entry payload.
type RawTimeEntry struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	ProjectID    string      `json:"projectId"`
	TaskID       string      `json:"taskId"`
	Description  string      `json:"description"`
	TimeInterval RawInterval `json:"timeInterval"`
	Billable     bool        `json:"billable"`
	Tags         []string    `json:"tags"`
}

type RawInterval struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

// RawUser mirrors the source's user payload.
type RawUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Client is the capability the collector depends on. Tests supply the
// fixture implementation; production wires HTTPClient.
type Client interface {
	FetchTimeEntries(ctx context.Context, workspaceID, startDate, endDate string) ([]RawTimeEntry, error)
	FetchUsers(ctx context.Context, workspaceID string) ([]RawUser, error)
}

// HTTPClient is the production Client backed by the source's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *HTTPClient) FetchTimeEntries(ctx context.Context, workspaceID, startDate, endDate string) ([]RawTimeEntry, error) {
	endpoint := fmt.Sprintf("%s/workspaces/%s/time-entries?start=%s&end=%s",
		c.baseURL,
		url.PathEscape(workspaceID),
		url.QueryEscape(startDate),
		url.QueryEscape(endDate),
	)

	var entries []RawTimeEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("fetch time entries: %w", err)
	}

	return entries, nil
}

func (c *HTTPClient) FetchUsers(ctx context.Context, workspaceID string) ([]RawUser, error) {
	endpoint := fmt.Sprintf("%s/workspaces/%s/users", c.baseURL, url.PathEscape(workspaceID))

	var users []RawUser
	if err := c.get(ctx, endpoint, &users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	return users, nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
