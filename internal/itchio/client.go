// Package itchio implements the read-only client for the itch.io server-side
// API. Only the my-games endpoint is used.
package itchio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	DefaultBaseURL = "https://itch.io/api/1"
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 8 << 20
)

// Client fetches the authenticated user's games.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) Name() string { return "itchio" }

// Close releases idle keep-alive connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) endpoint(apiKey string) string {
	return c.baseURL + "/" + url.PathEscape(apiKey) + "/my-games"
}

// FetchGames performs one GET of the my-games endpoint. It does not retry.
func (c *Client) FetchGames(ctx context.Context) (*Snapshot, error) {
	resp, err := c.get(ctx, c.apiKey)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &ProtocolError{StatusCode: resp.StatusCode}
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, &ProtocolError{Err: fmt.Errorf("decode my-games: %w", err)}
	}
	if body == nil {
		return nil, &ProtocolError{Err: errors.New("decode my-games: empty body")}
	}

	return &Snapshot{
		Games:     parseGames(body),
		FetchedAt: time.Now(),
	}, nil
}

// ValidateAPIKey reports whether apiKey is accepted. Only HTTP 200 counts as
// valid; any other status or transport failure yields ErrInvalidAPIKey.
func (c *Client) ValidateAPIKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrInvalidAPIKey
	}
	resp, err := c.get(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrInvalidAPIKey, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(apiKey), nil)
	if err != nil {
		return nil, &TransportError{Err: errors.New("build request")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: redact(err)}
	}
	return resp, nil
}

// redact drops the request URL from err since it embeds the API key.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
