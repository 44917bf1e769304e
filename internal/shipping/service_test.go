package shipping

import (
	"context"
	"testing"

	"github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/easypost"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

type stubRepo struct {
	order     *orders.Order
	lastPatch map[string]any
}

func (r *stubRepo) List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, error) {
	return nil, nil
}

func (r *stubRepo) Get(ctx context.Context, id string) (*orders.Order, error) {
	if r.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	}
	copied := *r.order
	return &copied, nil
}

func (r *stubRepo) Update(ctx context.Context, id string, fields map[string]any) (*orders.Order, error) {
	r.lastPatch = fields
	copied := *r.order
	if v, ok := fields["tracking"].(string); ok {
		copied.Tracking = v
	}
	if v, ok := fields["shipped"].(bool); ok {
		copied.Shipped = v
	}
	return &copied, nil
}

type stubCarrier struct {
	label   *easypost.Label
	err     error
	lastReq easypost.LabelRequest
	calls   int
}

func (c *stubCarrier) PurchaseLabel(ctx context.Context, req easypost.LabelRequest) (*easypost.Label, error) {
	c.calls++
	c.lastReq = req
	return c.label, c.err
}

func shippableOrder() *orders.Order {
	return &orders.Order{
		ID:        "rec1",
		FirstName: "Jess",
		LastName:  "Buyer",
		Address:   "1 Main St",
		City:      "Austin",
		State:     "TX",
		Zip:       "78701",
	}
}

func shipFrom() config.ShipFromConfig {
	return config.ShipFromConfig{
		Name:    "Onyx Processing",
		Street1: "9 Dock Rd",
		City:    "Memphis",
		State:   "TN",
		Zip:     "38103",
		Country: "US",
	}
}

func TestPurchaseLabelWritesTrackingAndShipped(t *testing.T) {
	repo := &stubRepo{order: shippableOrder()}
	carrier := &stubCarrier{label: &easypost.Label{
		TrackingNumber: "9400",
		LabelURL:       "https://labels.test/1.png",
		PostageCost:    "8.20",
		Carrier:        "USPS",
		Service:        "Priority",
	}}
	svc, err := NewService(repo, carrier, shipFrom())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.PurchaseLabel(context.Background(), "rec1", LabelInput{Service: "Priority", WeightOunces: 6})
	if err != nil {
		t.Fatalf("purchase label: %v", err)
	}
	if result.TrackingNumber != "9400" || result.PostageCost != "8.20" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Order == nil || !result.Order.Shipped || result.Order.Tracking != "9400" {
		t.Fatalf("order not updated: %+v", result.Order)
	}
	if repo.lastPatch["tracking"] != "9400" || repo.lastPatch["shipped"] != true {
		t.Fatalf("tracking and shipped must land in one patch, got %+v", repo.lastPatch)
	}
	if carrier.lastReq.To.Name != "Jess Buyer" || carrier.lastReq.From.City != "Memphis" {
		t.Fatalf("addresses not forwarded: %+v", carrier.lastReq)
	}
}

func TestPurchaseLabelValidation(t *testing.T) {
	repo := &stubRepo{order: shippableOrder()}
	carrier := &stubCarrier{}
	svc, _ := NewService(repo, carrier, shipFrom())

	if _, err := svc.PurchaseLabel(context.Background(), "rec1", LabelInput{Service: "Overnight", WeightOunces: 6}); err == nil {
		t.Fatalf("expected error for unknown service level")
	}
	if _, err := svc.PurchaseLabel(context.Background(), "rec1", LabelInput{Service: "Priority", WeightOunces: 0}); err == nil {
		t.Fatalf("expected error for zero weight")
	}
	if carrier.calls != 0 {
		t.Fatalf("validation failures must not reach the carrier")
	}
}

func TestPurchaseLabelMissingAddressFields(t *testing.T) {
	order := shippableOrder()
	order.Zip = ""
	order.City = ""
	repo := &stubRepo{order: order}
	svc, _ := NewService(repo, &stubCarrier{}, shipFrom())

	_, err := svc.PurchaseLabel(context.Background(), "rec1", LabelInput{Service: "First", WeightOunces: 3})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPurchaseLabelCarrierFailurePropagates(t *testing.T) {
	repo := &stubRepo{order: shippableOrder()}
	carrier := &stubCarrier{err: pkgerrors.New(pkgerrors.CodeDependency, "no USPS rates returned, check the EasyPost carrier account configuration")}
	svc, _ := NewService(repo, carrier, shipFrom())

	_, err := svc.PurchaseLabel(context.Background(), "rec1", LabelInput{Service: "Priority", WeightOunces: 6})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if repo.lastPatch != nil {
		t.Fatalf("failed purchase must not write to the order")
	}
}
