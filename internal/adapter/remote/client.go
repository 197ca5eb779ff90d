// Package remote talks to the roomie HTTP API: it is the identity provider
// and entity store of the console.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/neomorfeo/roomie/internal/domain"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client is a resty client bound to the API base URL. It holds the bearer
// token of the signed-in operator in memory only.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api/v1").
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}
}

// SetTransport replaces the underlying round tripper, e.g. with an
// instrumented one.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.SetTransport(rt)
}

// Token returns the current bearer token, or "" when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// clearToken forgets the token, unless it was replaced since it was read.
func (c *Client) clearToken(seen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == seen {
		c.token = ""
	}
}

// request starts a request carrying ctx and, when signed in, the bearer token.
func (c *Client) request(ctx context.Context) (*resty.Request, string) {
	token := c.Token()
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req, token
}

// apiError is the problem body returned by the API on failure.
type apiError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// statusError maps an HTTP failure to the domain sentinel it stands for.
func statusError(resp *resty.Response) error {
	detail := strings.TrimSpace(resp.String())
	if problem, ok := resp.Error().(*apiError); ok && problem.message() != "" {
		detail = problem.message()
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, detail)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidForm, detail)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), detail)
}
