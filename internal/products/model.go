package products

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
)

const (
	fieldName          = "name"
	fieldType          = "type"
	fieldDescription   = "description"
	fieldWeightOptions = "weightOptions"
	fieldInventory     = "inventory"
	fieldSupplierCost  = "supplierCost"
	fieldActive        = "active"
)

// WeightOption is one sellable weight with its retail price.
type WeightOption struct {
	Weight string          `json:"weight"`
	Price  decimal.Decimal `json:"price"`
}

// InventoryLevel tracks on-hand stock per weight.
type InventoryLevel struct {
	Weight   string `json:"weight"`
	Quantity int    `json:"quantity"`
}

// SupplierCost is the per-weight cost of goods.
type SupplierCost struct {
	Weight string          `json:"weight"`
	Cost   decimal.Decimal `json:"cost"`
}

// Product is a catalog entry. Read-mostly: staff edit prices, stock, and
// costs; creation is disabled at the API boundary.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Type          string           `json:"type,omitempty"`
	Description   string           `json:"description,omitempty"`
	Active        bool             `json:"active"`
	WeightOptions []WeightOption   `json:"weightOptions"`
	Inventory     []InventoryLevel `json:"inventory"`
	SupplierCost  []SupplierCost   `json:"supplierCost"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func productFromRecord(rec airtable.Record) Product {
	product := Product{
		ID:          rec.ID,
		Name:        rec.String(fieldName),
		Type:        rec.String(fieldType),
		Description: rec.String(fieldDescription),
		Active:      rec.Bool(fieldActive),
		CreatedAt:   rec.CreatedTime,
	}

	if raw := rec.String(fieldWeightOptions); raw != "" {
		var options []WeightOption
		if err := json.Unmarshal([]byte(raw), &options); err == nil {
			product.WeightOptions = options
		}
	}
	if raw := rec.String(fieldInventory); raw != "" {
		var levels []InventoryLevel
		if err := json.Unmarshal([]byte(raw), &levels); err == nil {
			product.Inventory = levels
		}
	}
	if raw := rec.String(fieldSupplierCost); raw != "" {
		var costs []SupplierCost
		if err := json.Unmarshal([]byte(raw), &costs); err == nil {
			product.SupplierCost = costs
		}
	}
	return product
}
