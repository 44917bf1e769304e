// Package easypost wraps the two EasyPost calls label purchase needs:
// create a shipment to get rates, then buy the rate matching the
// requested USPS service.
package easypost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/metrics"
)

const (
	defaultBaseURL             = "https://api.easypost.com/v2"
	uspsCarrier                = "USPS"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("easypost api key is required")

// Client talks to the EasyPost REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
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

// WithBaseURL overrides the EasyPost API base URL.
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

// NewClient builds the EasyPost client.
func NewClient(cfg config.EasyPostConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := &Client{
		apiKey:     apiKey,
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

	return client, nil
}

// Address is one side of a shipment.
type Address struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Parcel is the physical package being rated.
type Parcel struct {
	WeightOunces float64 `json:"weight"`
}

// LabelRequest describes one label purchase.
type LabelRequest struct {
	To      Address
	From    Address
	Parcel  Parcel
	Service enums.ShippingService
}

// Label is the purchased postage.
type Label struct {
	ShipmentID     string
	TrackingNumber string
	LabelURL       string
	PostageCost    string
	Carrier        string
	Service        string
}

type shipmentResponse struct {
	ID    string `json:"id"`
	Rates []rate `json:"rates"`
}

type rate struct {
	ID      string `json:"id"`
	Carrier string `json:"carrier"`
	Service string `json:"service"`
	Rate    string `json:"rate"`
}

type buyResponse struct {
	ID           string `json:"id"`
	TrackingCode string `json:"tracking_code"`
	SelectedRate rate   `json:"selected_rate"`
	PostageLabel struct {
		LabelURL string `json:"label_url"`
	} `json:"postage_label"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// PurchaseLabel creates a shipment, picks the USPS rate for the requested
// service, and buys it. Both calls run against the live account, so the
// caller persists the result before returning to the client.
func (c *Client) PurchaseLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "easypost client not configured")
	}
	if !req.Service.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported shipping service")
	}

	shipment, err := c.createShipment(ctx, req)
	if err != nil {
		return nil, err
	}

	selected, err := pickRate(shipment.Rates, req.Service)
	if err != nil {
		return nil, err
	}

	bought, err := c.buyShipment(ctx, shipment.ID, selected.ID)
	if err != nil {
		return nil, err
	}

	return &Label{
		ShipmentID:     bought.ID,
		TrackingNumber: bought.TrackingCode,
		LabelURL:       bought.PostageLabel.LabelURL,
		PostageCost:    bought.SelectedRate.Rate,
		Carrier:        bought.SelectedRate.Carrier,
		Service:        bought.SelectedRate.Service,
	}, nil
}

func (c *Client) createShipment(ctx context.Context, req LabelRequest) (*shipmentResponse, error) {
	payload := map[string]any{
		"shipment": map[string]any{
			"to_address":   req.To,
			"from_address": req.From,
			"parcel":       req.Parcel,
		},
	}

	var shipment shipmentResponse
	if err := c.post(ctx, "/shipments", "create_shipment", payload, &shipment); err != nil {
		return nil, err
	}
	if shipment.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "easypost returned shipment without id")
	}
	return &shipment, nil
}

func (c *Client) buyShipment(ctx context.Context, shipmentID, rateID string) (*buyResponse, error) {
	payload := map[string]any{
		"rate": map[string]any{"id": rateID},
	}

	var bought buyResponse
	endpoint := fmt.Sprintf("/shipments/%s/buy", shipmentID)
	if err := c.post(ctx, endpoint, "buy_shipment", payload, &bought); err != nil {
		return nil, err
	}
	if bought.TrackingCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "easypost returned label without tracking code")
	}
	return &bought, nil
}

// pickRate selects the USPS rate matching the requested service. An empty
// rate sheet usually means the carrier account is missing from the
// EasyPost account, which staff must fix in the carrier dashboard, so it
// gets its own message instead of a generic upstream failure.
func pickRate(rates []rate, service enums.ShippingService) (*rate, error) {
	var uspsSeen bool
	for i := range rates {
		if !strings.EqualFold(rates[i].Carrier, uspsCarrier) {
			continue
		}
		uspsSeen = true
		if strings.EqualFold(rates[i].Service, service.String()) {
			return &rates[i], nil
		}
	}
	if !uspsSeen {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no USPS rates returned, check the EasyPost carrier account configuration")
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("USPS does not offer service %q for this parcel", service))
}

func (c *Client) post(ctx context.Context, path, op string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal easypost payload")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build easypost request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.apiKey, "")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.Observe("easypost", op, time.Since(start), err)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute easypost request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode easypost response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	var parsed apiError
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		msg := parsed.Error.Message
		if parsed.Error.Code != "" {
			msg = fmt.Sprintf("%s: %s", parsed.Error.Code, msg)
		}
		if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
			return pkgerrors.New(pkgerrors.CodeValidation, msg)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "easypost rate limit exceeded")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "easypost request failed")
}
