// Package shipping purchases USPS labels for orders and records the
// resulting tracking number on the order.
package shipping

import (
	"context"
	"fmt"
	"strings"

	"github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/easypost"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

// LabelPurchaser is the carrier call the service depends on.
type LabelPurchaser interface {
	PurchaseLabel(ctx context.Context, req easypost.LabelRequest) (*easypost.Label, error)
}

// LabelInput is a staff label request for one order.
type LabelInput struct {
	Service      string
	WeightOunces float64
}

// LabelResult reports the purchased postage plus the post-write order.
type LabelResult struct {
	TrackingNumber string        `json:"trackingNumber"`
	LabelURL       string        `json:"labelUrl"`
	PostageCost    string        `json:"postageCost"`
	Carrier        string        `json:"carrier"`
	Service        string        `json:"service"`
	Order          *orders.Order `json:"order"`
}

// Service purchases labels.
type Service interface {
	PurchaseLabel(ctx context.Context, orderID string, input LabelInput) (*LabelResult, error)
}

type service struct {
	repo     orders.Repository
	carrier  LabelPurchaser
	shipFrom config.ShipFromConfig
}

// NewService builds the shipping service.
func NewService(repo orders.Repository, carrier LabelPurchaser, shipFrom config.ShipFromConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carrier == nil {
		return nil, fmt.Errorf("label purchaser required")
	}
	return &service{repo: repo, carrier: carrier, shipFrom: shipFrom}, nil
}

// PurchaseLabel buys postage for the order's shipping address and writes
// tracking plus the shipped flag back to the order in one patch. The
// carrier charge lands before the write, so a failed write leaves a
// bought label with no record; the caller sees the error and retries the
// write by hand rather than re-buying.
func (s *service) PurchaseLabel(ctx context.Context, orderID string, input LabelInput) (*LabelResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	parsed, err := enums.ParseShippingService(input.Service)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.WeightOunces <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parcel weight must be positive")
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := validateDestination(order); err != nil {
		return nil, err
	}

	label, err := s.carrier.PurchaseLabel(ctx, easypost.LabelRequest{
		To: easypost.Address{
			Name:    strings.TrimSpace(order.FirstName + " " + order.LastName),
			Street1: order.Address,
			City:    order.City,
			State:   order.State,
			Zip:     order.Zip,
			Phone:   order.Phone,
		},
		From: easypost.Address{
			Name:    s.shipFrom.Name,
			Street1: s.shipFrom.Street1,
			Street2: s.shipFrom.Street2,
			City:    s.shipFrom.City,
			State:   s.shipFrom.State,
			Zip:     s.shipFrom.Zip,
			Country: s.shipFrom.Country,
			Phone:   s.shipFrom.Phone,
		},
		Parcel:  easypost.Parcel{WeightOunces: input.WeightOunces},
		Service: parsed,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, orderID, map[string]any{
		"tracking": label.TrackingNumber,
		"shipped":  true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking on order")
	}

	return &LabelResult{
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
		PostageCost:    label.PostageCost,
		Carrier:        label.Carrier,
		Service:        label.Service,
		Order:          updated,
	}, nil
}

func validateDestination(order *orders.Order) error {
	var missing []string
	if strings.TrimSpace(order.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(order.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(order.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(order.Zip) == "" {
		missing = append(missing, "zip")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is missing shipping fields: "+strings.Join(missing, ", "))
	}
	return nil
}
