// Package payments answers "was this order actually paid" against Stripe.
// Results feed the order ranking and the order detail view, so every
// lookup failure converts to an unverified answer instead of an error.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v84"
	"golang.org/x/sync/errgroup"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
	"github.com/onyxprocessing/opsdash-backend/pkg/redis"
)

const (
	statusError = "error"

	customerIntentLimit = 10
	recentIntentLimit   = 100
)

// Cache is the TTL store memoizing verification results per order id.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	VerificationKey(orderID string) string
}

// Service is the payment verification oracle.
type Service interface {
	// Verify resolves one order's payment state, consulting the cache first.
	Verify(ctx context.Context, input VerifyInput) Verification
	// Cached returns a previously memoized verification without touching Stripe.
	Cached(ctx context.Context, orderID string) (*Verification, bool)
	// VerifyPage resolves a page of orders with bounded concurrency,
	// keyed by order id.
	VerifyPage(ctx context.Context, inputs []VerifyInput) map[string]Verification
}

type service struct {
	api         StripeAPI
	cache       Cache
	ttl         time.Duration
	concurrency int
	logg        *logger.Logger
}

// NewService builds the verification oracle.
func NewService(api StripeAPI, cache Cache, cfg config.VerifyConfig, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("stripe api required")
	}
	if cache == nil {
		return nil, fmt.Errorf("verification cache required")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &service{
		api:         api,
		cache:       cache,
		ttl:         ttl,
		concurrency: concurrency,
		logg:        logg,
	}, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) Verification {
	if cached, ok := s.Cached(ctx, input.OrderID); ok {
		return *cached
	}

	result := s.lookup(ctx, input)

	// Error answers stay uncached so a transient Stripe outage does not
	// pin orders as unverified for the whole TTL.
	if input.OrderID != "" && result.Status != statusError {
		s.store(ctx, input.OrderID, result)
	}
	return result
}

func (s *service) Cached(ctx context.Context, orderID string) (*Verification, bool) {
	if orderID == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.VerificationKey(orderID))
	if err != nil {
		if !redis.IsNil(err) && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("verification cache read failed: %v", err))
		}
		return nil, false
	}
	var cached Verification
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (s *service) VerifyPage(ctx context.Context, inputs []VerifyInput) map[string]Verification {
	results := make(map[string]Verification, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for _, input := range inputs {
		group.Go(func() error {
			result := s.Verify(groupCtx, input)
			mu.Lock()
			results[input.OrderID] = result
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// lookup walks the resolution chain: direct intent retrieval when the
// order carries a payment-intent id, otherwise customer lookup by email,
// otherwise a broad scan of recent intents matched on receipt email.
func (s *service) lookup(ctx context.Context, input VerifyInput) Verification {
	if input.PaymentIntentID != "" {
		intent, err := s.api.GetPaymentIntent(ctx, input.PaymentIntentID)
		if err != nil {
			return s.failure(ctx, input.OrderID, "payment intent lookup failed", err)
		}
		return fromIntent(intent, 1)
	}

	if input.Email == "" {
		return Verification{
			Verified: false,
			Status:   "unknown",
			Message:  "order has no payment intent or customer email",
		}
	}

	customers, err := s.api.SearchCustomersByEmail(ctx, input.Email)
	if err != nil {
		return s.failure(ctx, input.OrderID, "customer lookup failed", err)
	}

	if len(customers) > 0 {
		intents, err := s.api.ListCustomerPaymentIntents(ctx, customers[0].ID, customerIntentLimit)
		if err != nil {
			return s.failure(ctx, input.OrderID, "customer payment intents lookup failed", err)
		}
		if len(intents) > 0 {
			return fromIntent(bestMatch(intents), len(intents))
		}
	}

	recent, err := s.api.ListRecentPaymentIntents(ctx, recentIntentLimit)
	if err != nil {
		return s.failure(ctx, input.OrderID, "recent payment intents lookup failed", err)
	}
	var matches []*stripe.PaymentIntent
	for _, intent := range recent {
		if intent != nil && intent.ReceiptEmail == input.Email {
			matches = append(matches, intent)
		}
	}
	if len(matches) == 0 {
		return Verification{
			Verified: false,
			Status:   "not_found",
			Message:  "no payment found for customer",
		}
	}
	return fromIntent(bestMatch(matches), len(matches))
}

// bestMatch prefers any succeeded intent over the most recent one. This
// is a display heuristic, not financial reconciliation.
func bestMatch(intents []*stripe.PaymentIntent) *stripe.PaymentIntent {
	for _, intent := range intents {
		if intent.Status == stripe.PaymentIntentStatusSucceeded {
			return intent
		}
	}
	return intents[0]
}

func fromIntent(intent *stripe.PaymentIntent, matchCount int) Verification {
	if intent == nil {
		return Verification{Verified: false, Status: "not_found", Message: "no payment found"}
	}

	result := Verification{
		Verified: intent.Status == stripe.PaymentIntentStatusSucceeded,
		Status:   string(intent.Status),
		Details: &PaymentDetails{
			AmountCents: intent.Amount,
			Currency:    string(intent.Currency),
			CreatedAt:   time.Unix(intent.Created, 0).UTC(),
		},
	}
	if matchCount > 1 {
		result.MatchCount = matchCount
	}
	if intent.PaymentMethod != nil {
		result.Details.Method = string(intent.PaymentMethod.Type)
	}
	return result
}

func (s *service) failure(ctx context.Context, orderID, message string, err error) Verification {
	if s.logg != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID), fmt.Sprintf("%s: %v", message, err))
	}
	return Verification{
		Verified: false,
		Status:   statusError,
		Message:  message,
	}
}

func (s *service) store(ctx context.Context, orderID string, result Verification) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.VerificationKey(orderID), string(payload), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("verification cache write failed: %v", err))
	}
}
