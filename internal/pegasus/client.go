// Package pegasus is the HTTP client for the Pegasus passive infrastructure
// API. It covers the v1 list, stats, aggregate, and distinct-filter-values
// endpoints. All responses are JSON; list rows are open field maps.
package pegasus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pegasus-infra/pegasusctl/internal/pegasus/httpclient"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
)

const apiPrefix = "/api/v1"

// maxRequestLimit mirrors the server side clamp on the limit parameter.
const maxRequestLimit = 10000

// Doer abstracts the HTTP client so tests and the logging wrapper can slot in.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Aggregate is one category/count pair from the aggregate endpoints.
type Aggregate struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats is the named numeric fields of a dataset stats endpoint.
type Stats map[string]float64

// Health is the root endpoint payload.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the Pegasus API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("pegasus api: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("pegasus api: unexpected status %d: %s", e.StatusCode, body)
}

// ListOptions control server side paging and filtering of list endpoints.
type ListOptions struct {
	Limit  int
	Offset int
	// Filters are field=value pairs applied server side. Allowed values come
	// from the dataset's distinct-values endpoint.
	Filters map[string]string
}

type Client struct {
	baseURL *url.URL
	doer    Doer
	logger  *slog.Logger
}

type Option func(*Client)

// WithDoer replaces the transport, primarily for tests.
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.doer = httpclient.NewLoggingHTTPClient(c.logger, timeout)
	}
}

// New builds a client for the given base URL. The default transport is the
// trace-logging HTTP client with a 60s timeout.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid pegasus base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid pegasus base URL %q: scheme and host are required", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL: parsed,
		logger:  logger,
	}
	c.doer = httpclient.NewLoggingHTTPClient(logger, 60*time.Second)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health checks the API root endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	if err := c.getJSON(ctx, "/", nil, &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

// ListRows fetches one page of a dataset list endpoint.
func (c *Client) ListRows(ctx context.Context, ds Dataset, opts ListOptions) ([]dataview.Row, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		limit := opts.Limit
		if limit > maxRequestLimit {
			limit = maxRequestLimit
		}
		query.Set("limit", strconv.Itoa(limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	for field, value := range opts.Filters {
		query.Set(field, value)
	}

	var raw []map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/", apiPrefix, ds), query, &raw); err != nil {
		return nil, err
	}

	rows := make([]dataview.Row, len(raw))
	for i, m := range raw {
		rows[i] = dataview.Row(m)
	}
	return rows, nil
}

// GetAllRows pages through a dataset list endpoint until exhausted.
func (c *Client) GetAllRows(
	ctx context.Context, ds Dataset, batchSize int, filters map[string]string,
) ([]dataview.Row, error) {
	if batchSize < 1 {
		batchSize = 1000
	}

	var all []dataview.Row
	offset := 0
	for {
		page, err := c.ListRows(ctx, ds, ListOptions{
			Limit:   batchSize,
			Offset:  offset,
			Filters: filters,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < batchSize {
			return all, nil
		}
		offset += batchSize
	}
}

// GetStats fetches the named counters and ratios for a dataset.
func (c *Client) GetStats(ctx context.Context, ds Dataset) (Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/stats", apiPrefix, ds), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetAggregate fetches the category/count pairs for a dataset grouped by field.
func (c *Client) GetAggregate(ctx context.Context, ds Dataset, by string) ([]Aggregate, error) {
	query := url.Values{"by": []string{by}}
	var aggregates []Aggregate
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/aggregate", apiPrefix, ds), query, &aggregates); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// GetFilterValues fetches the allowed values per filterable field.
func (c *Client) GetFilterValues(ctx context.Context, ds Dataset) (map[string][]string, error) {
	var values map[string][]string
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/filters", apiPrefix, ds), nil, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("pegasus api: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pegasus api: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("pegasus api: decoding %s response: %w", path, err)
	}
	return nil
}
