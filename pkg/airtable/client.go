// Package airtable wraps the Airtable REST API the dashboard uses as its
// record store. Callers work with flat field bags; table-specific decoding
// lives in the per-domain repositories.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/metrics"
)

const (
	defaultBaseURL              = "https://api.airtable.com/v0"
	requestBodyReadLimit  int64 = 1024
	listPageSize                = 100
)

var (
	errAPIKeyRequired = errors.New("airtable api key is required")
	errBaseIDRequired = errors.New("airtable base id is required")
)

// Client talks to a single Airtable base.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	baseID     string
	metrics    *metrics.ExternalCallMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Airtable base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics attaches external-call metrics to every request.
func WithMetrics(m *metrics.ExternalCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the Airtable client for the configured base.
func NewClient(cfg config.AirtableConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseID := strings.TrimSpace(cfg.BaseID)
	if baseID == "" {
		return nil, errBaseIDRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		apiKey:     apiKey,
		baseID:     baseID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Record is one row of a table: an opaque id plus a flat field bag.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// ListParams scope a table scan.
type ListParams struct {
	FilterFormula string
	Fields        []string
	MaxRecords    int
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// ListAll fetches every record matching the filter, following Airtable's
// offset pagination until the set is exhausted. Ranking needs global
// visibility, so there is deliberately no page-sized variant.
func (c *Client) ListAll(ctx context.Context, table string, params ListParams) ([]Record, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "airtable client not configured")
	}
	if strings.TrimSpace(table) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table name is required")
	}

	var records []Record
	offset := ""
	for {
		page, nextOffset, err := c.listPage(ctx, table, params, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if params.MaxRecords > 0 && len(records) >= params.MaxRecords {
			return records[:params.MaxRecords], nil
		}
		if nextOffset == "" {
			return records, nil
		}
		offset = nextOffset
	}
}

func (c *Client) listPage(ctx context.Context, table string, params ListParams, offset string) ([]Record, string, error) {
	values := url.Values{}
	values.Set("pageSize", strconv.Itoa(listPageSize))
	if formula := strings.TrimSpace(params.FilterFormula); formula != "" {
		values.Set("filterByFormula", formula)
	}
	for _, field := range params.Fields {
		values.Add("fields[]", field)
	}
	if offset != "" {
		values.Set("offset", offset)
	}

	endpoint := fmt.Sprintf("%s?%s", c.tableURL(table), values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build list request")
	}

	var apiResp listResponse
	if err := c.do(httpReq, "list", &apiResp); err != nil {
		return nil, "", err
	}
	return apiResp.Records, apiResp.Offset, nil
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, table, recordID string) (*Record, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "airtable client not configured")
	}
	trimmed := strings.TrimSpace(recordID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}

	endpoint := fmt.Sprintf("%s/%s", c.tableURL(table), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build get request")
	}

	var record Record
	if err := c.do(httpReq, "get", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update applies a sparse field patch to one record and returns the
// post-write entity as the store persisted it.
func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "airtable client not configured")
	}
	trimmed := strings.TrimSpace(recordID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field patch is empty")
	}

	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal update payload")
	}

	endpoint := fmt.Sprintf("%s/%s", c.tableURL(table), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build update request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var record Record
	if err := c.do(httpReq, "update", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) do(req *http.Request, op string, dest any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.Observe("airtable", op, time.Since(start), err)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute airtable request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		return pkgerrors.New(pkgerrors.CodeRateLimit, "airtable rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "airtable request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode airtable response")
	}
	return nil
}

func (c *Client) tableURL(table string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	return fmt.Sprintf("%s/%s/%s", trimmed, url.PathEscape(c.baseID), url.PathEscape(table))
}
