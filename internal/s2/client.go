// Package s2 provides a client for the Semantic Scholar Graph API endpoints
// used to harvest a citation corpus.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matsen/clustergraph/internal/corpus"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 1 request per second for keyed access.
	RateLimit = 1.0

	// PaperFields are the fields requested from bulk search, matching corpus.Paper.
	PaperFields = "paperId,title,referenceCount,citationCount,influentialCitationCount,fieldsOfStudy,s2FieldsOfStudy,publicationTypes,journal"

	// ReferenceFields are the fields requested for each reference.
	ReferenceFields = "paperId,intents,isInfluential"

	// ReferencesPageSize is the page size for the references endpoint.
	ReferencesPageSize = 1000
)

// Client is a rate-limited HTTP client for the Semantic Scholar Graph API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new Semantic Scholar client.
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

// bulkPage is one page of /paper/search/bulk.
type bulkPage struct {
	Total int            `json:"total"`
	Token *string        `json:"token"`
	Data  []corpus.Paper `json:"data"`
}

// referencesPage is one page of /paper/{id}/references.
type referencesPage struct {
	Offset int                  `json:"offset"`
	Next   *int                 `json:"next"`
	Data   []corpus.RawCitation `json:"data"`
}

// SearchBulk yields every paper matching query, following continuation tokens
// until the API stops returning one. Iteration stops at the first error.
func (c *Client) SearchBulk(ctx context.Context, query string) iter.Seq2[corpus.Paper, error] {
	return func(yield func(corpus.Paper, error) bool) {
		params := url.Values{}
		params.Set("query", query)
		params.Set("fields", PaperFields)

		for {
			var page bulkPage
			if err := c.get(ctx, "/paper/search/bulk", params, "", &page); err != nil {
				yield(corpus.Paper{}, err)
				return
			}
			for _, p := range page.Data {
				if !yield(p, nil) {
					return
				}
			}
			if page.Token == nil || *page.Token == "" {
				return
			}
			params.Set("token", *page.Token)
		}
	}
}

// References yields the outbound references of a paper, following offset
// pagination. Iteration stops at the first error.
func (c *Client) References(ctx context.Context, paperID string) iter.Seq2[corpus.RawCitation, error] {
	return func(yield func(corpus.RawCitation, error) bool) {
		params := url.Values{}
		params.Set("fields", ReferenceFields)
		params.Set("limit", strconv.Itoa(ReferencesPageSize))

		offset := 0
		for {
			params.Set("offset", strconv.Itoa(offset))
			var page referencesPage
			path := "/paper/" + url.PathEscape(paperID) + "/references"
			if err := c.get(ctx, path, params, paperID, &page); err != nil {
				yield(corpus.RawCitation{}, err)
				return
			}
			for _, r := range page.Data {
				if !yield(r, nil) {
					return
				}
			}
			if page.Next == nil || *page.Next <= offset {
				return
			}
			offset = *page.Next
		}
	}
}

// get performs a rate-limited GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, params url.Values, paperID string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, paperID); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}
