// Package explorer wraps the upstream bridge explorer transaction API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/intentscan/bridge-indexer/internal/adapter"
)

const (
	// statusFilter restricts the feed to completed transfers.
	statusFilter = "SUCCESS"

	timestampLayout = "2006-01-02T15:04:05Z"
)

// Client defines the interface for explorer API operations to enable mocking
type Client interface {
	// FetchPage fetches up to pageSize transactions. A non-nil endTimestamp
	// restricts the page to transactions older than it (the walk-backward
	// pagination cursor). Errors are not retried; callers treat them as
	// end-of-data for the current run.
	FetchPage(ctx context.Context, pageSize int, endTimestamp *time.Time) ([]Transaction, error)
}

// Config holds explorer API client configuration
type Config struct {
	BaseURL string
	APIKey  string
	// StartDate is the fixed lower-bound date (YYYY-MM-DD) for every fetch
	StartDate string
	// RequestInterval is the self-imposed delay between consecutive requests
	RequestInterval time.Duration
}

type client struct {
	httpClient adapter.HTTPClient
	config     Config
	limiter    *rate.Limiter
}

// NewClient creates a new explorer API client. The client paces its own
// requests at one per Config.RequestInterval as rate-limit compliance; it
// never reacts to server feedback with retries.
func NewClient(httpClient adapter.HTTPClient, cfg Config) Client {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &client{
		httpClient: httpClient,
		config:     cfg,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// FetchPage fetches one page of transactions from the explorer API
func (c *client) FetchPage(ctx context.Context, pageSize int, endTimestamp *time.Time) ([]Transaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("numberOfTransactions", strconv.Itoa(pageSize))
	params.Set("startTimestamp", c.config.StartDate+"T00:00:00Z")
	params.Set("statuses", statusFilter)
	params.Set("direction", "next")
	if endTimestamp != nil {
		params.Set("endTimestamp", endTimestamp.UTC().Format(timestampLayout))
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}

	body, err := c.httpClient.GetBytes(ctx, c.config.BaseURL+"?"+params.Encode(), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return decodePage(body)
}

// decodePage accepts both response shapes the API is known to return: a bare
// array of records and a {"data": [...]} envelope.
func decodePage(body []byte) ([]Transaction, error) {
	var txs []Transaction
	if err := json.Unmarshal(body, &txs); err == nil {
		return txs, nil
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return p.Data, nil
}

// ParseCreatedAt parses the upstream event timestamp, normalizing the Z UTC
// suffix form.
func ParseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
