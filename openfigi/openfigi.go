// Package openfigi maps ISINs to listings through the OpenFIGI v3 mapping API.
//
// See https://www.openfigi.com/api for the API documentation.
package openfigi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/etnz/quotesheet"
)

const (
	// DefaultBaseURL is the OpenFIGI v3 API root.
	DefaultBaseURL = "https://api.openfigi.com/v3"
	// DefaultTimeout is the per-request timeout of the default HTTP client.
	DefaultTimeout = 20 * time.Second
	// APIKeyHeader carries the API key.
	APIKeyHeader = "X-OPENFIGI-APIKEY"
)

// Client is an OpenFIGI mapping client. It implements quotesheet.Mapper.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ quotesheet.Mapper = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTransport sets the transport of the client's HTTP client, keeping its
// timeout.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Transport = rt
		c.httpClient = &hc
	}
}

// New creates a new client. An empty apiKey yields a disabled client.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// job is a single mapping request item.
type job struct {
	IDType  string `json:"idType"`
	IDValue string `json:"idValue"`
}

// figi is a single listing in a mapping response.
type figi struct {
	ExchCode      string `json:"exchCode"`
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	SecurityType2 string `json:"securityType2"`
	MarketSecDes  string `json:"marketSecDes"`
	MarketSector  string `json:"marketSector"`
	Crncy         string `json:"crncy"`
	Currency      string `json:"currency"`
}

// result is the response to a single job.
type result struct {
	Data    []figi `json:"data"`
	Warning string `json:"warning"`
	Error   string `json:"error"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (f figi) candidate() quotesheet.Candidate {
	return quotesheet.Candidate{
		ExchCode:      f.ExchCode,
		Ticker:        f.Ticker,
		Name:          f.Name,
		SecurityType2: f.SecurityType2,
		MarketSector:  firstNonEmpty(f.MarketSecDes, f.MarketSector),
		Currency:      firstNonEmpty(f.Crncy, f.Currency),
	}
}

// Map maps isins to their listings, in a single request.
//
// The result is aligned with isins. An ISIN unknown to OpenFIGI has no
// candidates.
func (c *Client) Map(ctx context.Context, isins []string) ([][]quotesheet.Candidate, error) {
	jobs := make([]job, len(isins))
	for i, isin := range isins {
		jobs[i] = job{IDType: "ID_ISIN", IDValue: isin}
	}

	var results []result
	if err := c.jwpost(ctx, c.baseURL+"/mapping", jobs, &results); err != nil {
		return nil, err
	}
	if len(results) != len(isins) {
		return nil, fmt.Errorf("openfigi: %d results for %d ISINs", len(results), len(isins))
	}

	out := make([][]quotesheet.Candidate, len(results))
	for i, r := range results {
		for _, f := range r.Data {
			out[i] = append(out[i], f.candidate())
		}
	}
	return out, nil
}

// jwpost performs an HTTP POST request with a JSON payload and unmarshals the
// JSON response into data.
func (c *Client) jwpost(ctx context.Context, addr string, payload, data any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http POST %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, data); err != nil {
		return fmt.Errorf("openfigi: malformed response: %w", err)
	}
	return nil
}
