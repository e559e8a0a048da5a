package cvr

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config defines CVR API client settings
type Config struct {
	APIKey     string
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Cache      Cache
	CacheTTL   time.Duration
	Clock      func() time.Time
}

// Client queries the Danish CVR registry (cvrapi.dk)
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	clock      func() time.Time
}

// Cache stores raw lookup payloads for a bounded time.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Company is a normalized registry record for one CVR number
type Company struct {
	CVRNumber       string    `json:"cvr_number"`
	Name            string    `json:"company_name"`
	IndustryCode    string    `json:"industry_code"`
	IndustryText    string    `json:"industry_text"`
	Employees       int       `json:"employee_count"`
	AnnualRevenue   *float64  `json:"annual_revenue"`
	Address         string    `json:"address"`
	City            string    `json:"city"`
	PostalCode      string    `json:"postal_code"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	Website         string    `json:"website,omitempty"`
	Status          string    `json:"status"`
	EstablishedDate string    `json:"established_date,omitempty"`
	LegalForm       string    `json:"legal_form"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// APIError reports any failure talking to the registry: transport errors,
// timeouts, non-2xx responses, error payloads and undecodable bodies
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("cvr: API error (%d): %s: %v", e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("cvr: API error (%d): %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("cvr: %s: %v", e.Message, e.Err)
	default:
		return "cvr: " + e.Message
	}
}

func (e *APIError) Unwrap() error { return e.Err }

type searchResponse struct {
	Hits []struct {
		VAT flexValue `json:"vat"`
	} `json:"hits"`
}
