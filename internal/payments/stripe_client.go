package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/onyxprocessing/opsdash-backend/pkg/stripe"
)

// StripeAPI exposes the subset of Stripe operations the verification
// oracle needs.
type StripeAPI interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	SearchCustomersByEmail(ctx context.Context, email string) ([]*stripe.Customer, error)
	ListCustomerPaymentIntents(ctx context.Context, customerID string, limit int) ([]*stripe.PaymentIntent, error)
	ListRecentPaymentIntents(ctx context.Context, limit int) ([]*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeAPI wraps the provided Stripe client so the verification
// service can be tested against a stub.
func NewStripeAPI(api *pkgstripe.Client) StripeAPI {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (w *stripeClientWrapper) SearchCustomersByEmail(ctx context.Context, email string) ([]*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query: fmt.Sprintf("email:'%s'", email),
		},
	}
	params.Context = ctx

	var customers []*stripe.Customer
	iter := customer.Search(params)
	for iter.Next() {
		customers = append(customers, iter.Customer())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (w *stripeClientWrapper) ListCustomerPaymentIntents(ctx context.Context, customerID string, limit int) ([]*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	if limit > 0 {
		params.Limit = stripe.Int64(int64(limit))
	}
	return collectIntents(paymentintent.List(params), limit)
}

func (w *stripeClientWrapper) ListRecentPaymentIntents(ctx context.Context, limit int) ([]*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentListParams{}
	params.Context = ctx
	if limit > 0 {
		params.Limit = stripe.Int64(int64(limit))
	}
	return collectIntents(paymentintent.List(params), limit)
}

// collectIntents drains the iterator up to limit entries so a broad
// lookup never walks the whole payment history.
func collectIntents(iter *paymentintent.Iter, limit int) ([]*stripe.PaymentIntent, error) {
	var intents []*stripe.PaymentIntent
	for iter.Next() {
		intents = append(intents, iter.PaymentIntent())
		if limit > 0 && len(intents) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return intents, nil
}
