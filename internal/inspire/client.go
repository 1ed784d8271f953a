// Package inspire fetches BibTeX records from the INSPIRE-HEP API.
package inspire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pcox/bibsync/internal/identifier"
)

const (
	// BaseURL is the INSPIRE-HEP API base URL.
	BaseURL = "https://inspirehep.net/api"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit keeps well under the documented 15 req/5s API limit.
	RateLimit = 2.0
)

// Fetcher retrieves the raw BibTeX record for a citation token.
type Fetcher interface {
	FetchBibTeX(ctx context.Context, token string, scheme identifier.Scheme) (string, error)
}

// Client is a rate-limited HTTP client for the INSPIRE-HEP API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing or mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a new INSPIRE-HEP API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// entityReplacer repairs the HTML entities INSPIRE leaves in math-mode
// field values.
var entityReplacer = strings.NewReplacer("&gt;", ">", "&lt;", "<")

// FetchBibTeX retrieves the BibTeX record for a token. Texkeys go
// through the literature search endpoint; arXiv identifiers and DOIs
// have direct record endpoints. Tokens of unknown scheme and any
// non-success response map to ErrNotFound.
func (c *Client) FetchBibTeX(ctx context.Context, token string, scheme identifier.Scheme) (string, error) {
	var endpoint string
	switch {
	case scheme == identifier.Texkey:
		endpoint = fmt.Sprintf("%s/literature?q=%s&format=bibtex",
			c.baseURL, url.QueryEscape("texkey:"+token))
	case identifier.IsArxiv(scheme) || scheme == identifier.DOI:
		endpoint = fmt.Sprintf("%s/%s/%s?format=bibtex",
			c.baseURL, scheme, url.PathEscape(token))
	default:
		return "", ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/x-bibtex")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Token: token}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}

	bibtex := entityReplacer.Replace(string(body))

	// A texkey search for an unknown key returns 200 with an empty
	// payload; anything without an entry marker is a miss.
	if !strings.Contains(bibtex, "@") {
		return "", ErrNotFound
	}

	return bibtex, nil
}
