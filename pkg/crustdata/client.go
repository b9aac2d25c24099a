// Package crustdata is a client for the Crust Data company-intelligence API.
package crustdata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.crustdata.com"

// Client performs company and people lookups against the Crust Data API.
type Client interface {
	// LookupCompanies fetches company records by domain with an optional
	// field projection. The raw payload is returned for shape resolution
	// by the normalizer.
	LookupCompanies(ctx context.Context, domains []string, fields []string) (json.RawMessage, error)

	// Screen runs a filter-based company screen and returns the raw
	// payload, which may be an object array or a columnar structure.
	Screen(ctx context.Context, req ScreenRequest) (json.RawMessage, error)

	// SearchPeople runs a people search and returns the profile records.
	SearchPeople(ctx context.Context, filters any, page int) ([]map[string]any, error)
}

// ScreenRequest is the request body for POST /screener/screen/.
type ScreenRequest struct {
	Filters       any      `json:"filters"`
	HiddenColumns []string `json:"hidden_columns"`
	Offset        int      `json:"offset"`
	Count         int      `json:"count"`
	Sorts         []any    `json:"sorts"`
}

// peopleSearchRequest is the request body for POST /screener/person/search/.
type peopleSearchRequest struct {
	Filters any `json:"filters"`
	Page    int `json:"page"`
}

// peopleSearchResponse wraps the profiles array.
type peopleSearchResponse struct {
	Profiles []map[string]any `json:"profiles"`
	Error    any              `json:"error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter sets the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Crust Data client. Calls run to completion or to the
// 30s transport timeout; there is no retry.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LookupCompanies(ctx context.Context, domains []string, fields []string) (json.RawMessage, error) {
	if len(domains) == 0 {
		return nil, eris.New("crustdata: at least one domain is required")
	}

	params := url.Values{}
	params.Set("company_domain", strings.Join(domains, ","))
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	return c.do(ctx, http.MethodGet, "/screener/company?"+params.Encode(), nil)
}

func (c *httpClient) Screen(ctx context.Context, req ScreenRequest) (json.RawMessage, error) {
	if req.HiddenColumns == nil {
		req.HiddenColumns = []string{}
	}
	if req.Sorts == nil {
		req.Sorts = []any{}
	}
	if req.Count <= 0 {
		req.Count = 50
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "crustdata: marshal screen request")
	}

	return c.do(ctx, http.MethodPost, "/screener/screen/", body)
}

func (c *httpClient) SearchPeople(ctx context.Context, filters any, page int) ([]map[string]any, error) {
	if page <= 0 {
		page = 1
	}

	body, err := json.Marshal(peopleSearchRequest{Filters: filters, Page: page})
	if err != nil {
		return nil, eris.Wrap(err, "crustdata: marshal people search")
	}

	raw, err := c.do(ctx, http.MethodPost, "/screener/person/search/", body)
	if err != nil {
		return nil, err
	}

	var resp peopleSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, eris.Wrap(err, "crustdata: unmarshal people search response")
	}
	if resp.Error != nil {
		return nil, eris.Errorf("crustdata: people search error: %v", resp.Error)
	}

	return resp.Profiles, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "crustdata: rate limit wait")
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "crustdata: create request")
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crustdata: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "crustdata: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("crustdata: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}
