// Package chords scrapes a song listing from a worship resources site.
package chords

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultURL = "https://www.worshiptogether.com"
	// NotFound is returned when the page has no list items.
	NotFound = "No chords found"

	maxBodyBytes = 4 << 20
)

var (
	listItemPattern = regexp.MustCompile(`<li[^>]*>(.*?)</li>`)
	tagPattern      = regexp.MustCompile(`<[^>]+>`)
)

// Client fetches one page and extracts its list items.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit allows perSecond fetches with a burst of one.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// New returns a Client for url, or DefaultURL when url is empty.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the page and returns the joined list items.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch chords: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch chords: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read chords page: %w", err)
	}
	return Extract(string(body)), nil
}

// Extract pulls the text of every <li> element, strips nested tags and joins
// the results with ", ".
func Extract(html string) string {
	matches := listItemPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return NotFound
	}
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, strings.TrimSpace(tagPattern.ReplaceAllString(m[1], "")))
	}
	return strings.Join(items, ", ")
}
