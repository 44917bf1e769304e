package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onyxprocessing/opsdash-backend/api/responses"
	"github.com/onyxprocessing/opsdash-backend/api/validators"
	"github.com/onyxprocessing/opsdash-backend/internal/products"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
)

// ProductsList returns the full catalog.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		catalog, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog)
	}
}

// ProductDetail returns one catalog entry.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Name          *string                   `json:"name,omitempty"`
	Description   *string                   `json:"description,omitempty"`
	Active        *bool                     `json:"active,omitempty"`
	WeightOptions []products.WeightOption   `json:"weightOptions,omitempty"`
	Inventory     []products.InventoryLevel `json:"inventory,omitempty"`
	SupplierCost  []products.SupplierCost   `json:"supplierCost,omitempty"`
}

// ProductUpdate applies a sparse catalog patch.
func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, products.UpdateInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Active:        payload.Active,
			WeightOptions: payload.WeightOptions,
			Inventory:     payload.Inventory,
			SupplierCost:  payload.SupplierCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCreate always refuses. New catalog entries go through the
// storefront deployment pipeline, not this dashboard.
func ProductCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "product creation is disabled"))
	}
}

func parseProductID(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return productID, nil
}
