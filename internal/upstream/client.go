package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout applies to every upstream call unless the config overrides it
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnavailable marks transport failures and non-success statuses
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformedPayload marks responses that could not be decoded into the expected schema
	ErrMalformedPayload = errors.New("malformed upstream payload")
)

// Observer receives the outcome of every upstream call
type Observer interface {
	Observe(feed string, latency time.Duration, err error)
}

// Client performs single-attempt JSON GETs against upstream arrival feeds.
// There is no retry; a failed call is reported once and the caller degrades.
type Client struct {
	http      *http.Client
	transport *LegacyTransport
	observer  Observer
}

// NewClient creates a client with the given timeout. transport may be nil for
// feeds that need no workaround; observer may be nil.
func NewClient(timeout time.Duration, transport *LegacyTransport, observer Observer) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      NewHTTPClient(timeout, transport),
		transport: transport,
		observer:  observer,
	}
}

// GetJSON calls rawURL with params as the query string and decodes the body into out.
// Errors wrap ErrUnavailable or ErrMalformedPayload.
func (c *Client) GetJSON(ctx context.Context, feed, rawURL string, params url.Values, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.Observe(feed, time.Since(start), err)
		}
	}()

	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %w", ErrUnavailable, err)
	}
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}
	if c.transport != nil {
		target = c.transport.Rewrite(target)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.transport != nil {
		c.transport.Apply(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: API returned %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrMalformedPayload, err)
	}
	return nil
}
