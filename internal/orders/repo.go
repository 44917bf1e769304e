package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

// ListFilter scopes an order list fetch. The repository always returns
// the full matching set; ranking needs global visibility, so pagination
// happens after the fetch, not inside it.
type ListFilter struct {
	Status string
	Search string
}

// Repository defines persistence operations against the orders table.
// Writes are last-write-wins: the store offers no compare-and-swap, and
// concurrent staff edits to the same order silently clobber each other.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, id string, fields map[string]any) (*Order, error)
}

type recordStore interface {
	ListAll(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error)
	Get(ctx context.Context, table, recordID string) (*airtable.Record, error)
	Update(ctx context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error)
}

type repository struct {
	store recordStore
	table string
}

// NewRepository builds the orders repository over the record store.
func NewRepository(store recordStore, table string) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("record store required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("orders table name required")
	}
	return &repository{store: store, table: table}, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	records, err := r.store.ListAll(ctx, r.table, airtable.ListParams{
		FilterFormula: buildListFormula(filter),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	orders := make([]Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, orderFromRecord(rec))
	}
	return orders, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Order, error) {
	rec, err := r.store.Get(ctx, r.table, id)
	if err != nil {
		return nil, err
	}
	order := orderFromRecord(*rec)
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id string, fields map[string]any) (*Order, error) {
	rec, err := r.store.Update(ctx, r.table, id, fields)
	if err != nil {
		return nil, err
	}
	order := orderFromRecord(*rec)
	return &order, nil
}

// buildListFormula assembles the store's filterByFormula expression.
// Free-text search matches name, email, and the checkout reference.
func buildListFormula(filter ListFilter) string {
	var clauses []string

	if status := strings.TrimSpace(filter.Status); status != "" {
		clauses = append(clauses, fmt.Sprintf("{%s}=%s", fieldStatus, airtable.EscapeFormulaString(status)))
	}

	if search := strings.TrimSpace(strings.ToLower(filter.Search)); search != "" {
		needle := airtable.EscapeFormulaString(search)
		var fields []string
		for _, field := range []string{fieldFirstName, fieldLastName, fieldEmail, fieldCheckoutID} {
			fields = append(fields, fmt.Sprintf(`SEARCH(%s, LOWER({%s}&""))`, needle, field))
		}
		clauses = append(clauses, fmt.Sprintf("OR(%s)", strings.Join(fields, ",")))
	}

	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return fmt.Sprintf("AND(%s)", strings.Join(clauses, ","))
	}
}
