package cvr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const (
	defaultBaseURL   = "https://cvrapi.dk/api"
	defaultUserAgent = "CRM-LeadScoring/1.0"
	defaultTimeout   = 10 * time.Second
	defaultCacheTTL  = 24 * time.Hour

	numberLength   = 8
	cacheKeyPrefix = "cvr_data_"
)

// ErrInvalidNumber is returned before any network call when a CVR number
// does not normalize to exactly 8 digits
var ErrInvalidNumber = errors.New("cvr: number must be 8 digits")

// NewClient instantiates a CVR API client. An empty APIKey is allowed; the
// public endpoint is then used with its lower quota.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("cvr: parse base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		cache:      cfg.Cache,
		cacheTTL:   ttl,
		clock:      clock,
	}, nil
}

// NormalizeNumber strips every non-digit and checks the 8-digit length
func NormalizeNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) != numberLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return clean, nil
}

// Lookup fetches one company by CVR number. found is false when the registry
// answered successfully but had no company for the number.
func (c *Client) Lookup(ctx context.Context, number string) (company Company, found bool, err error) {
	if c == nil {
		return Company{}, false, fmt.Errorf("cvr: client is nil")
	}

	clean, err := NormalizeNumber(number)
	if err != nil {
		return Company{}, false, err
	}

	if cached, ok := c.fromCache(ctx, clean); ok {
		return cached, true, nil
	}

	values := url.Values{}
	values.Set("vat", clean)
	values.Set("format", "json")

	var fields map[string]flexValue
	if err := c.get(ctx, "", values, &fields); err != nil {
		return Company{}, false, err
	}

	if _, ok := fields["name"]; !ok {
		return Company{}, false, nil
	}

	company = parseCompany(fields, clean, c.clock().UTC())
	c.toCache(ctx, clean, company)

	return company, true, nil
}

// SearchByName searches companies by name and resolves each hit with Lookup.
// Hits that fail to resolve are skipped; at most limit companies are returned.
func (c *Client) SearchByName(ctx context.Context, name string, limit int) ([]Company, error) {
	if c == nil {
		return nil, fmt.Errorf("cvr: client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("cvr: search name is required")
	}
	if limit <= 0 {
		limit = 10
	}

	values := url.Values{}
	values.Set("search", name)
	values.Set("limit", fmt.Sprint(limit))
	values.Set("format", "json")

	var payload searchResponse
	if err := c.get(ctx, "search", values, &payload); err != nil {
		return nil, err
	}

	out := make([]Company, 0, min(limit, len(payload.Hits)))
	for _, hit := range payload.Hits {
		if len(out) >= limit {
			break
		}
		vat := hit.VAT.String()
		if vat == "" {
			continue
		}
		company, found, err := c.Lookup(ctx, vat)
		if err != nil || !found {
			continue
		}
		out = append(out, company)
	}

	return out, nil
}

// Usage returns the API usage document for the configured key
func (c *Client) Usage(ctx context.Context) (map[string]any, error) {
	if c == nil {
		return nil, fmt.Errorf("cvr: client is nil")
	}
	var out map[string]any
	if err := c.get(ctx, "usage", url.Values{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, values url.Values, dst any) error {
	if c.apiKey != "" {
		values.Set("token", c.apiKey)
	}

	u := c.baseURL + "/" + endpoint
	if encoded := values.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return &APIError{StatusCode: resp.StatusCode, Message: snippet}
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "invalid response format", Err: err}
	}
	if raw, ok := probe["error"]; ok {
		msg := flexValue(raw).String()
		if msg == "" {
			msg = "unknown error"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func (c *Client) fromCache(ctx context.Context, number string) (Company, bool) {
	if c.cache == nil {
		return Company{}, false
	}
	raw, ok, err := c.cache.Get(ctx, cacheKeyPrefix+number)
	if err != nil || !ok {
		return Company{}, false
	}
	var company Company
	if err := json.Unmarshal(raw, &company); err != nil {
		return Company{}, false
	}
	return company, true
}

func (c *Client) toCache(ctx context.Context, number string, company Company) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(company)
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, cacheKeyPrefix+number, raw, c.cacheTTL)
}
