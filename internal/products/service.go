// Package products exposes the staff catalog surface: list, inspect, and
// edit prices, inventory, and supplier costs. There is no create path.
package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

// UpdateInput is a sparse catalog patch; nil sections are untouched.
type UpdateInput struct {
	Name          *string
	Description   *string
	Active        *bool
	WeightOptions []WeightOption
	Inventory     []InventoryLevel
	SupplierCost  []SupplierCost
}

// Service defines catalog operations.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
}

type recordStore interface {
	ListAll(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error)
	Get(ctx context.Context, table, recordID string) (*airtable.Record, error)
	Update(ctx context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error)
}

type service struct {
	store recordStore
	table string
}

// NewService builds the catalog service over the record store.
func NewService(store recordStore, table string) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("products table name required")
	}
	return &service{store: store, table: table}, nil
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	records, err := s.store.ListAll(ctx, s.table, airtable.ListParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	catalog := make([]Product, 0, len(records))
	for _, rec := range records {
		catalog = append(catalog, productFromRecord(rec))
	}
	return catalog, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	rec, err := s.store.Get(ctx, s.table, id)
	if err != nil {
		return nil, err
	}
	product := productFromRecord(*rec)
	return &product, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	fields := make(map[string]any)
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		fields[fieldName] = *input.Name
	}
	if input.Description != nil {
		fields[fieldDescription] = *input.Description
	}
	if input.Active != nil {
		fields[fieldActive] = *input.Active
	}
	if input.WeightOptions != nil {
		encoded, err := encodeJSONColumn(input.WeightOptions)
		if err != nil {
			return nil, err
		}
		fields[fieldWeightOptions] = encoded
	}
	if input.Inventory != nil {
		for _, level := range input.Inventory {
			if level.Quantity < 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("inventory for %q cannot be negative", level.Weight))
			}
		}
		encoded, err := encodeJSONColumn(input.Inventory)
		if err != nil {
			return nil, err
		}
		fields[fieldInventory] = encoded
	}
	if input.SupplierCost != nil {
		encoded, err := encodeJSONColumn(input.SupplierCost)
		if err != nil {
			return nil, err
		}
		fields[fieldSupplierCost] = encoded
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patch contains no fields")
	}

	rec, err := s.store.Update(ctx, s.table, id, fields)
	if err != nil {
		return nil, err
	}
	product := productFromRecord(*rec)
	return &product, nil
}

func encodeJSONColumn(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode catalog column")
	}
	return string(raw), nil
}
