// Package customers derives per-customer rollups from the order history.
// There is no customer table; identity is the normalized email on each
// order.
package customers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
	"github.com/onyxprocessing/opsdash-backend/pkg/money"
)

// Rollup aggregates one customer's order history.
type Rollup struct {
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	OrderCount    int       `json:"orderCount"`
	LifetimeSpend string    `json:"lifetimeSpend"`
	LastOrderAt   time.Time `json:"lastOrderAt"`
}

// RollupList is every known customer, biggest spender first.
type RollupList struct {
	Customers []Rollup `json:"customers"`
	// Skipped counts order records that could not be attributed to a
	// customer (no email on the row).
	Skipped int `json:"skipped,omitempty"`
}

// OrderSource is the order fetch the rollup depends on.
type OrderSource interface {
	List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, error)
}

// Service defines customer rollup operations.
type Service interface {
	List(ctx context.Context) (*RollupList, error)
}

type service struct {
	orders OrderSource
	logg   *logger.Logger
}

// NewService builds the rollup service.
func NewService(orderSource OrderSource, logg *logger.Logger) (Service, error) {
	if orderSource == nil {
		return nil, fmt.Errorf("order source required")
	}
	return &service{orders: orderSource, logg: logg}, nil
}

type accumulator struct {
	name  string
	count int
	spend decimal.Decimal
	last  time.Time
}

func (s *service) List(ctx context.Context) (*RollupList, error) {
	all, err := s.orders.List(ctx, orders.ListFilter{})
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*accumulator)
	var skippedErr error

	for _, order := range all {
		email := normalizeEmail(order.Email)
		if email == "" {
			skippedErr = multierr.Append(skippedErr, fmt.Errorf("order %s has no customer email", order.ID))
			continue
		}

		acc, ok := groups[email]
		if !ok {
			acc = &accumulator{spend: decimal.Zero}
			groups[email] = acc
		}
		acc.count++
		acc.spend = acc.spend.Add(order.Total)
		if order.CreatedAt.After(acc.last) {
			acc.last = order.CreatedAt
			acc.name = strings.TrimSpace(order.FirstName + " " + order.LastName)
		}
	}

	skipped := multierr.Errors(skippedErr)
	if len(skipped) > 0 && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("customer rollup skipped %d orders: %v", len(skipped), skippedErr))
	}

	list := &RollupList{
		Customers: make([]Rollup, 0, len(groups)),
		Skipped:   len(skipped),
	}
	for email, acc := range groups {
		list.Customers = append(list.Customers, Rollup{
			Email:         email,
			Name:          acc.name,
			OrderCount:    acc.count,
			LifetimeSpend: money.Cents(acc.spend),
			LastOrderAt:   acc.last,
		})
	}

	sort.Slice(list.Customers, func(i, j int) bool {
		a, b := list.Customers[i], list.Customers[j]
		if a.LifetimeSpend != b.LifetimeSpend {
			ad, _ := decimal.NewFromString(a.LifetimeSpend)
			bd, _ := decimal.NewFromString(b.LifetimeSpend)
			return ad.GreaterThan(bd)
		}
		return a.Email < b.Email
	})

	return list, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
