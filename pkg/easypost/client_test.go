package easypost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.EasyPostConfig{
		APIKey:  "EZTK-test",
		BaseURL: "http://easypost.test/v2",
	}, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func labelRequest() LabelRequest {
	return LabelRequest{
		To: Address{
			Name:    "Jess Buyer",
			Street1: "1 Main St",
			City:    "Austin",
			State:   "TX",
			Zip:     "78701",
		},
		From: Address{
			Company: "Onyx Processing",
			Street1: "9 Dock Rd",
			City:    "Memphis",
			State:   "TN",
			Zip:     "38103",
		},
		Parcel:  Parcel{WeightOunces: 6},
		Service: enums.ShippingServicePriority,
	}
}

func TestPurchaseLabelBuysMatchingRate(t *testing.T) {
	var paths []string
	var buyPayload map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.Path)
		user, _, ok := req.BasicAuth()
		if !ok || user != "EZTK-test" {
			t.Fatalf("missing basic auth")
		}
		switch {
		case strings.HasSuffix(req.URL.Path, "/shipments"):
			return jsonResponse(http.StatusCreated, `{
				"id": "shp_1",
				"rates": [
					{"id": "rate_fedex", "carrier": "FedEx", "service": "PRIORITY_OVERNIGHT", "rate": "32.10"},
					{"id": "rate_first", "carrier": "USPS", "service": "First", "rate": "4.50"},
					{"id": "rate_priority", "carrier": "USPS", "service": "Priority", "rate": "8.20"}
				]
			}`), nil
		case strings.HasSuffix(req.URL.Path, "/shipments/shp_1/buy"):
			body, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(body, &buyPayload); err != nil {
				t.Fatalf("unmarshal buy payload: %v", err)
			}
			return jsonResponse(http.StatusOK, `{
				"id": "shp_1",
				"tracking_code": "9400100000000000000001",
				"selected_rate": {"id": "rate_priority", "carrier": "USPS", "service": "Priority", "rate": "8.20"},
				"postage_label": {"label_url": "https://labels.test/shp_1.png"}
			}`), nil
		default:
			t.Fatalf("unexpected path %s", req.URL.Path)
			return nil, nil
		}
	})

	client := testClient(t, rt)
	label, err := client.PurchaseLabel(context.Background(), labelRequest())
	if err != nil {
		t.Fatalf("purchase label: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected create then buy, got %v", paths)
	}
	rate, ok := buyPayload["rate"].(map[string]any)
	if !ok || rate["id"] != "rate_priority" {
		t.Fatalf("bought wrong rate: %+v", buyPayload)
	}
	if label.TrackingNumber != "9400100000000000000001" {
		t.Fatalf("unexpected tracking %q", label.TrackingNumber)
	}
	if label.LabelURL != "https://labels.test/shp_1.png" || label.PostageCost != "8.20" {
		t.Fatalf("unexpected label %+v", label)
	}
}

func TestPurchaseLabelNoUSPSRates(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{
			"id": "shp_1",
			"rates": [{"id": "rate_fedex", "carrier": "FedEx", "service": "GROUND", "rate": "12.00"}]
		}`), nil
	})
	client := testClient(t, rt)
	_, err := client.PurchaseLabel(context.Background(), labelRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "carrier account") {
		t.Fatalf("error should point at carrier account setup, got %q", typed.Message())
	}
}

func TestPurchaseLabelServiceNotOffered(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{
			"id": "shp_1",
			"rates": [{"id": "rate_first", "carrier": "USPS", "service": "First", "rate": "4.50"}]
		}`), nil
	})
	client := testClient(t, rt)
	req := labelRequest()
	req.Service = enums.ShippingServiceExpress
	_, err := client.PurchaseLabel(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPurchaseLabelRejectsUnknownService(t *testing.T) {
	client := testClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	req := labelRequest()
	req.Service = enums.ShippingService("overnight")
	if _, err := client.PurchaseLabel(context.Background(), req); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDecodeAPIErrorSurfacesMessage(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity, `{"error":{"code":"ADDRESS.VERIFY.FAILURE","message":"Unable to verify address."}}`), nil
	})
	client := testClient(t, rt)
	_, err := client.PurchaseLabel(context.Background(), labelRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "ADDRESS.VERIFY.FAILURE") {
		t.Fatalf("upstream code missing from %q", typed.Message())
	}
}
