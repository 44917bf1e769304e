// Package orders implements the triage engine: ranked order listing,
// fulfillment-state derivation, and the sparse order patch surface.
package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/onyxprocessing/opsdash-backend/internal/payments"
	"github.com/onyxprocessing/opsdash-backend/internal/triage"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/pagination"
)

// Service defines the order operations exposed to the API layer.
type Service interface {
	List(ctx context.Context, input ListInput) (*OrderList, error)
	Get(ctx context.Context, id string) (*OrderDetail, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Order, error)
	SaveFulfillment(ctx context.Context, id string, input FulfillmentInput) (*Order, error)
	VerifyPayment(ctx context.Context, id string) (*payments.Verification, error)
}

type service struct {
	repo     Repository
	verifier payments.Service
}

// NewService builds the order service.
func NewService(repo Repository, verifier payments.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	return &service{repo: repo, verifier: verifier}, nil
}

// List fetches every order matching the filter, ranks the full set, and
// returns one page. Payment verification for the returned page is
// resolved against Stripe with bounded concurrency; the rest of the set
// ranks on cached verifications or the has-payment-intent proxy.
func (s *service) List(ctx context.Context, input ListInput) (*OrderList, error) {
	if input.Status != "" && !enums.OrderStatus(input.Status).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", input.Status))
	}

	all, err := s.repo.List(ctx, ListFilter{Status: input.Status, Search: input.Search})
	if err != nil {
		return nil, err
	}

	verified := make(map[string]bool, len(all))
	status := make(map[string]string, len(all))
	for _, order := range all {
		if cached, ok := s.verifier.Cached(ctx, order.ID); ok {
			verified[order.ID] = cached.Verified
			status[order.ID] = cached.Status
			continue
		}
		// Approximate: an intent id can exist without a successful charge.
		verified[order.ID] = order.StripePaymentID != ""
	}

	triage.Rank(all, func(o Order) triage.Signals {
		return triage.Signals{
			Completed:       o.Completed,
			Partial:         o.Partial,
			PaymentVerified: verified[o.ID],
			CreatedAt:       o.CreatedAt,
		}
	})

	params := pagination.Params{
		Page:  pagination.NormalizePage(input.Page),
		Limit: pagination.NormalizeLimit(input.Limit),
	}
	start, end := pagination.Window(len(all), params)
	page := all[start:end]

	// Lazy cache population: only the displayed page hits Stripe.
	inputs := make([]payments.VerifyInput, 0, len(page))
	for _, order := range page {
		inputs = append(inputs, verifyInput(order))
	}
	for id, result := range s.verifier.VerifyPage(ctx, inputs) {
		verified[id] = result.Verified
		status[id] = result.Status
	}

	summaries := make([]OrderSummary, 0, len(page))
	for _, order := range page {
		summaries = append(summaries, OrderSummary{
			ID:              order.ID,
			CheckoutID:      order.CheckoutID,
			Name:            strings.TrimSpace(order.FirstName + " " + order.LastName),
			Email:           order.Email,
			Status:          order.Status.String(),
			Total:           order.Total.StringFixed(2),
			ItemCount:       len(order.CartItems),
			Completed:       order.Completed,
			Partial:         order.Partial,
			Shipped:         order.Shipped,
			Tracking:        order.Tracking,
			PaymentVerified: verified[order.ID],
			PaymentStatus:   status[order.ID],
			CreatedAt:       order.CreatedAt,
		})
	}

	return &OrderList{
		Orders:     summaries,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalCount: len(all),
		TotalPages: pagination.TotalPages(len(all), params.Limit),
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*OrderDetail, error) {
	order, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{
		Order:   *order,
		Payment: s.verifier.Verify(ctx, verifyInput(*order)),
	}
	if len(order.PartialDetails) > 0 {
		detail.PartialDetails = make(map[string]Progress, len(order.PartialDetails))
		for key, progress := range order.PartialDetails {
			detail.PartialDetails[key.String()] = progress
		}
	}
	return detail, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	fields := make(map[string]any)
	if input.Status != nil {
		parsed, err := enums.ParseOrderStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		fields[fieldStatus] = parsed.String()
	}
	if input.Tracking != nil {
		fields[fieldTracking] = *input.Tracking
	}
	if input.Notes != nil {
		fields[fieldNotes] = *input.Notes
	}
	if input.ConfirmationEmailSent != nil {
		fields[fieldConfirmationEmailSent] = *input.ConfirmationEmailSent
	}
	if input.ShippingEmailSent != nil {
		fields[fieldShippingEmailSent] = *input.ShippingEmailSent
	}
	if input.StripePaymentID != nil {
		fields[fieldStripePaymentID] = *input.StripePaymentID
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patch contains no fields")
	}

	return s.repo.Update(ctx, id, fields)
}

// SaveFulfillment recomputes the aggregate flags from the staff edit and
// persists flags, per-line progress, and any tracking number in a single
// write. The returned order is the store's post-write view, never the
// locally derived one.
func (s *service) SaveFulfillment(ctx context.Context, id string, input FulfillmentInput) (*Order, error) {
	order, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make(map[FulfillmentKey]Progress, len(input.Entries))
	for raw, progress := range input.Entries {
		key, err := ParseFulfillmentKey(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		entries[key] = progress
	}

	state := DeriveFulfillment(order.CartItems, entries)
	encoded, err := encodePartialDetails(state.Details)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode fulfillment details")
	}

	fields := map[string]any{
		fieldCompleted:      state.Completed,
		fieldPartial:        state.Partial,
		fieldPartialDetails: encoded,
	}
	if input.Tracking != nil {
		fields[fieldTracking] = *input.Tracking
	}

	return s.repo.Update(ctx, id, fields)
}

func (s *service) VerifyPayment(ctx context.Context, id string) (*payments.Verification, error) {
	order, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.verifier.Verify(ctx, verifyInput(*order))
	return &result, nil
}

func (s *service) fetch(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.Get(ctx, id)
}

func verifyInput(order Order) payments.VerifyInput {
	return payments.VerifyInput{
		OrderID:         order.ID,
		PaymentIntentID: order.StripePaymentID,
		Email:           order.Email,
		Name:            strings.TrimSpace(order.FirstName + " " + order.LastName),
	}
}
