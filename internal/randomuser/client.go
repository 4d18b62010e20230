// Package randomuser is the remote profile source: a thin client for the
// randomuser.me API that returns pages of generated profiles.
package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"profilegrid/internal/logging"
	"profilegrid/internal/profile"

	"golang.org/x/net/http/httpproxy"
)

// DefaultBaseURL is the public endpoint.
const DefaultBaseURL = "https://randomuser.me/api"

// maxBody bounds the response size read from the API.
const maxBody = 8 << 20

// Info is the paging metadata of a response.
type Info struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}

// Response is the decoded body of a successful request.
type Response struct {
	Results []profile.Profile `json:"results"`
	Info    Info              `json:"info"`

	// The API reports some failures as a 200 with an error field.
	Error string `json:"error,omitempty"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// ErrUpstream is returned when the API answers 2xx with an error payload.
var ErrUpstream = errors.New("upstream error")

// Client fetches profiles. It performs no retries.
type Client struct {
	baseURL   string
	http      *http.Client
	seed      string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets an overall request timeout. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithSeed pins the generator seed so pages are reproducible.
func WithSeed(seed string) Option {
	return func(c *Client) { c.seed = seed }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithProxy routes requests through proxyURL except for hosts matched by noProxy.
// An empty proxyURL falls back to the HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment.
func WithProxy(proxyURL, noProxy string) Option {
	return func(c *Client) {
		cfg := httpproxy.FromEnvironment()
		if proxyURL != "" {
			cfg = &httpproxy.Config{HTTPProxy: proxyURL, HTTPSProxy: proxyURL, NoProxy: noProxy}
		}
		proxyFunc := cfg.ProxyFunc()

		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
		c.http.Transport = transport
	}
}

// New creates a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch requests count profiles. A page ≤ 0 omits the page parameter, which
// the API treats as the first page.
func (c *Client) Fetch(ctx context.Context, count, page int) (*Response, error) {
	resp, err := c.fetch(ctx, count, page)
	if err != nil {
		logging.APIError("fetch results=%d page=%d failed: %v", count, page, err)
		return nil, fmt.Errorf("failed to fetch profiles from API: %w", err)
	}
	return resp, nil
}

// Profiles is Fetch reduced to the records, the shape the collection manager consumes.
func (c *Client) Profiles(ctx context.Context, count, page int) ([]profile.Profile, error) {
	resp, err := c.Fetch(ctx, count, page)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) fetch(ctx context.Context, count, page int) (*Response, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "randomuser fetch")
	defer timer.StopWithThreshold(2 * time.Second)

	u, err := c.requestURL(count, page)
	if err != nil {
		return nil, err
	}
	logging.APIDebug("GET %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Code: res.StatusCode, Status: res.Status}
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, out.Error)
	}

	logging.API("fetched %d profiles (page=%d seed=%s)", len(out.Results), out.Info.Page, out.Info.Seed)
	return &out, nil
}

func (c *Client) requestURL(count, page int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("results", strconv.Itoa(count))
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if c.seed != "" {
		q.Set("seed", c.seed)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
