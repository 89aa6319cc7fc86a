// Package scraper provides the HTTP client shared by the department
// scrapers: polite rate limiting, retry with backoff, rotating user
// agents, and goquery document parsing.
package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"

	apperrors "uba-horarios/internal/errors"
)

// Client is an HTTP client for scraping department pages.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	userAgents  []string
	maxRetries  int
}

// NewClient creates a scraper client.
func NewClient(timeout, minDelay, maxDelay time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: NewRateLimiter(minDelay, maxDelay),
		userAgents:  generateUserAgents(),
		maxRetries:  maxRetries,
	}
}

// Get performs a GET request with rate limiting and retries.
// Caller is responsible for closing the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := RetryWithBackoff(ctx, c.maxRetries, 1*time.Second, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.randomUserAgent())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en-US;q=0.8,en;q=0.7")
		req.Header.Set("Accept-Encoding", "gzip, deflate")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Close body for non-success responses since we won't return it
			_ = resp.Body.Close()

			scraperErr := apperrors.NewScraperError(url, resp.StatusCode, nil)
			switch resp.StatusCode {
			case 404, 403, 401: // Client errors - don't retry
				return Permanent(scraperErr)
			default: // 429 and 5xx - retry with backoff
				return scraperErr
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// GetDocument performs a GET request and parses the response as HTML.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var reader io.Reader
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	} else {
		reader = resp.Body
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// randomUserAgent returns a random user agent string
func (c *Client) randomUserAgent() string {
	if len(c.userAgents) == 0 {
		return uarand.GetRandom()
	}
	return c.userAgents[time.Now().UnixNano()%int64(len(c.userAgents))]
}

// generateUserAgents returns a list of common user agent strings
func generateUserAgents() []string {
	return []string{
		// Chrome on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

		// Chrome on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

		// Firefox on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",

		// Firefox on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",

		// Safari on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",

		// Edge on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",

		// Chrome on Linux
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
