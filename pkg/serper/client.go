// Package serper wraps the Serper Google SERP API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://google.serper.dev"

	// maxErrorBody limits how much of an error response is carried in the
	// returned error message.
	maxErrorBody = 300
)

// ErrMissingAPIKey is returned on the first call when no API key was
// configured. It aborts the whole run rather than a single query.
var ErrMissingAPIKey = eris.New("serper: missing API key")

// Client performs Google organic searches via the Serper API.
type Client interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Result is one organic search result.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"link"`
}

// searchRequest is the request body for POST /search.
type searchRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl"`
	HL string `json:"hl"`
}

// searchResponse is the subset of the Serper response we consume.
type searchResponse struct {
	Organic []organicEntry `json:"organic"`
}

type organicEntry struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithLocale overrides the country (gl) and language (hl) codes sent with
// every query.
func WithLocale(gl, hl string) Option {
	return func(c *httpClient) {
		if gl != "" {
			c.gl = gl
		}
		if hl != "" {
			c.hl = hl
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	gl      string
	hl      string
	http    *http.Client
}

// NewClient creates a Serper API client. The key is validated lazily on the
// first Search call.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		gl:      "mx",
		hl:      "es",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(searchRequest{Q: query, GL: c.gl, HL: c.hl})
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "serper: send request for %q", query)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("serper: %d %s for %q: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), query, truncate(string(respBody), maxErrorBody))
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, entry := range parsed.Organic {
		if entry.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   entry.Title,
			Snippet: entry.Snippet,
			URL:     entry.Link,
		})
	}
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
