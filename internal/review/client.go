package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/gateway"
)

// DefaultURL is the gateway address assumed when none is configured.
const DefaultURL = "http://127.0.0.1:8080"

// ErrUnauthorized is returned when the gateway rejects the credentials.
var ErrUnauthorized = errors.New("review: gateway rejected credentials")

// ClientConfig configures a gateway Client.
type ClientConfig struct {
	URL       string
	Token     string
	BasicUser string
	BasicPass string

	// Timeout bounds each request. Approvals block until the effect
	// completes, so it should exceed the shell timeout. Defaults to 3m.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the gateway action API.
type Client struct {
	base  *url.URL
	token string
	user  string
	pass  string
	http  *http.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	raw := cfg.URL
	if raw == "" {
		raw = DefaultURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("review: invalid gateway url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("review: gateway url must be http or https, got %q", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 3 * time.Minute
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:  base,
		token: cfg.Token,
		user:  cfg.BasicUser,
		pass:  cfg.BasicPass,
		http:  hc,
	}, nil
}

// List returns pending actions in proposal order.
func (c *Client) List(ctx context.Context) ([]gateway.ActionSummary, error) {
	var out []gateway.ActionSummary
	if err := c.do(ctx, http.MethodGet, "/api/actions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one pending action with its preview.
func (c *Client) Get(ctx context.Context, id string) (gateway.ActionDetail, error) {
	var out gateway.ActionDetail
	err := c.do(ctx, http.MethodGet, "/api/actions/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Approve applies the action. A not-found outcome is returned as data.
func (c *Client) Approve(ctx context.Context, id string) (action.Outcome, error) {
	var out action.Outcome
	err := c.do(ctx, http.MethodPost, "/api/actions/"+url.PathEscape(id)+"/approve", nil, &out)
	return out, err
}

// Reject discards the action with an optional reason.
func (c *Client) Reject(ctx context.Context, id, reason string) (action.Outcome, error) {
	var body any
	if reason != "" {
		body = gateway.RejectRequest{Reason: reason}
	}
	var out action.Outcome
	err := c.do(ctx, http.MethodPost, "/api/actions/"+url.PathEscape(id)+"/reject", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.user != "":
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("review: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return fmt.Errorf("review: %s: %w", path, action.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("review: %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
