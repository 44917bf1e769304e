package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onyxprocessing/opsdash-backend/internal/affiliates"
	"github.com/onyxprocessing/opsdash-backend/internal/customers"
	internalorders "github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/internal/payments"
	"github.com/onyxprocessing/opsdash-backend/internal/products"
	"github.com/onyxprocessing/opsdash-backend/internal/shipping"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
)

type routerOrdersStub struct{}

func (routerOrdersStub) List(ctx context.Context, input internalorders.ListInput) (*internalorders.OrderList, error) {
	return &internalorders.OrderList{}, nil
}

func (routerOrdersStub) Get(ctx context.Context, id string) (*internalorders.OrderDetail, error) {
	return &internalorders.OrderDetail{}, nil
}

func (routerOrdersStub) Update(ctx context.Context, id string, input internalorders.UpdateInput) (*internalorders.Order, error) {
	return &internalorders.Order{}, nil
}

func (routerOrdersStub) SaveFulfillment(ctx context.Context, id string, input internalorders.FulfillmentInput) (*internalorders.Order, error) {
	return &internalorders.Order{}, nil
}

func (routerOrdersStub) VerifyPayment(ctx context.Context, id string) (*payments.Verification, error) {
	return &payments.Verification{}, nil
}

type routerShippingStub struct{}

func (routerShippingStub) PurchaseLabel(ctx context.Context, orderID string, input shipping.LabelInput) (*shipping.LabelResult, error) {
	return &shipping.LabelResult{}, nil
}

type routerProductsStub struct{}

func (routerProductsStub) List(ctx context.Context) ([]products.Product, error) { return nil, nil }

func (routerProductsStub) Get(ctx context.Context, id string) (*products.Product, error) {
	return &products.Product{}, nil
}

func (routerProductsStub) Update(ctx context.Context, id string, input products.UpdateInput) (*products.Product, error) {
	return &products.Product{}, nil
}

type routerAffiliatesStub struct{}

func (routerAffiliatesStub) List(ctx context.Context) ([]affiliates.Affiliate, error) {
	return nil, nil
}

func (routerAffiliatesStub) Report(ctx context.Context, code string) (*affiliates.Report, error) {
	return &affiliates.Report{}, nil
}

type routerCustomersStub struct{}

func (routerCustomersStub) List(ctx context.Context) (*customers.RollupList, error) {
	return &customers.RollupList{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	cfg.Auth.StaffToken = "staff-secret"
	return NewRouter(
		cfg,
		nil,
		nil,
		nil,
		routerOrdersStub{},
		routerShippingStub{},
		routerProductsStub{},
		routerAffiliatesStub{},
		routerCustomersStub{},
	)
}

func TestHealthIsPublic(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", w.Code)
	}
}

func TestStaffRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/v1/orders",
		"/api/v1/products",
		"/api/v1/affiliates",
		"/api/v1/customers",
	}
	for _, path := range paths {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without a token, got %d", path, w.Code)
		}
	}
}

func TestStaffRoutesAcceptToken(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	r.Header.Set("Authorization", "Bearer staff-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with the staff token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProductCreateRouteIsForbidden(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	r.Header.Set("Authorization", "Bearer staff-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
