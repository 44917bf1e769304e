// Package affiliates lists referral partners and rolls their commission
// over referred orders.
package affiliates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/money"
)

// ReportRow is one referred order's commission breakdown.
type ReportRow struct {
	OrderID    string    `json:"orderId"`
	CheckoutID string    `json:"checkoutId"`
	CreatedAt  time.Time `json:"createdAt"`
	ItemsTotal string    `json:"itemsTotal"`
	Discount   string    `json:"discount"`
	Subtotal   string    `json:"subtotal"`
	Commission string    `json:"commission"`
}

// Report rolls one affiliate's referred orders into a payout total.
type Report struct {
	Affiliate       Affiliate   `json:"affiliate"`
	Orders          []ReportRow `json:"orders"`
	OrderCount      int         `json:"orderCount"`
	TotalSubtotal   string      `json:"totalSubtotal"`
	TotalCommission string      `json:"totalCommission"`
}

// OrderSource is the order fetch the report depends on.
type OrderSource interface {
	List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, error)
}

// Service defines affiliate operations.
type Service interface {
	List(ctx context.Context) ([]Affiliate, error)
	Report(ctx context.Context, code string) (*Report, error)
}

type recordStore interface {
	ListAll(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error)
}

type service struct {
	store  recordStore
	table  string
	orders OrderSource
}

// NewService builds the affiliate service.
func NewService(store recordStore, table string, orderSource OrderSource) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("affiliates table name required")
	}
	if orderSource == nil {
		return nil, fmt.Errorf("order source required")
	}
	return &service{store: store, table: table, orders: orderSource}, nil
}

func (s *service) List(ctx context.Context) ([]Affiliate, error) {
	records, err := s.store.ListAll(ctx, s.table, airtable.ListParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list affiliates")
	}
	partners := make([]Affiliate, 0, len(records))
	for _, rec := range records {
		partners = append(partners, affiliateFromRecord(rec))
	}
	return partners, nil
}

// Report computes per-order and total commission for one code. Cancelled
// orders earn nothing; everything else referred by the code counts.
func (s *service) Report(ctx context.Context, code string) (*Report, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate code required")
	}

	affiliate, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	referred, err := s.referredOrders(ctx, code)
	if err != nil {
		return nil, err
	}

	report := &Report{Affiliate: *affiliate}
	totalSubtotal := decimal.Zero
	totalCommission := decimal.Zero

	for _, order := range referred {
		if order.Status == enums.OrderStatusCancelled {
			continue
		}
		breakdown := money.Commission(itemsTotal(order), affiliate.Discount, affiliate.Share)
		report.Orders = append(report.Orders, ReportRow{
			OrderID:    order.ID,
			CheckoutID: order.CheckoutID,
			CreatedAt:  order.CreatedAt,
			ItemsTotal: money.Cents(breakdown.ItemsTotal),
			Discount:   money.Cents(breakdown.DiscountAmount),
			Subtotal:   money.Cents(breakdown.Subtotal),
			Commission: money.Cents(breakdown.Commission),
		})
		totalSubtotal = totalSubtotal.Add(breakdown.Subtotal)
		totalCommission = totalCommission.Add(breakdown.Commission)
	}

	report.OrderCount = len(report.Orders)
	report.TotalSubtotal = money.Cents(totalSubtotal)
	report.TotalCommission = money.Cents(totalCommission)
	return report, nil
}

func (s *service) findByCode(ctx context.Context, code string) (*Affiliate, error) {
	records, err := s.store.ListAll(ctx, s.table, airtable.ListParams{
		FilterFormula: fmt.Sprintf("{%s}=%s", fieldCode, airtable.EscapeFormulaString(code)),
		MaxRecords:    1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up affiliate")
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("affiliate %q not found", code))
	}
	affiliate := affiliateFromRecord(records[0])
	return &affiliate, nil
}

func (s *service) referredOrders(ctx context.Context, code string) ([]orders.Order, error) {
	all, err := s.orders.List(ctx, orders.ListFilter{})
	if err != nil {
		return nil, err
	}
	var referred []orders.Order
	for _, order := range all {
		if strings.EqualFold(order.AffiliateCode, code) {
			referred = append(referred, order)
		}
	}
	return referred, nil
}

func itemsTotal(order orders.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.CartItems {
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(item.Product.Price.Mul(qty))
	}
	return total
}
