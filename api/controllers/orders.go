package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onyxprocessing/opsdash-backend/api/responses"
	"github.com/onyxprocessing/opsdash-backend/api/validators"
	internalorders "github.com/onyxprocessing/opsdash-backend/internal/orders"
	"github.com/onyxprocessing/opsdash-backend/internal/shipping"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
	"github.com/onyxprocessing/opsdash-backend/pkg/pagination"
)

// OrdersList returns one ranked page of the triage queue.
func OrdersList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1000000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.ListInput{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Search: strings.TrimSpace(r.URL.Query().Get("q")),
			Page:   page,
			Limit:  limit,
		}

		list, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns the full order plus its payment verification.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type updateOrderRequest struct {
	Status                *string `json:"status,omitempty"`
	Tracking              *string `json:"tracking,omitempty"`
	Notes                 *string `json:"notes,omitempty"`
	ConfirmationEmailSent *bool   `json:"confirmationEmailSent,omitempty"`
	ShippingEmailSent     *bool   `json:"shippingEmailSent,omitempty"`
	StripePaymentID       *string `json:"stripePaymentId,omitempty"`
}

// OrderUpdate applies a sparse patch to one order.
func OrderUpdate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), orderID, internalorders.UpdateInput{
			Status:                payload.Status,
			Tracking:              payload.Tracking,
			Notes:                 payload.Notes,
			ConfirmationEmailSent: payload.ConfirmationEmailSent,
			ShippingEmailSent:     payload.ShippingEmailSent,
			StripePaymentID:       payload.StripePaymentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type fulfillmentRequest struct {
	Entries  map[string]internalorders.Progress `json:"entries"`
	Tracking *string                            `json:"tracking,omitempty"`
}

// OrderFulfillment saves a staff fulfillment edit and returns the
// post-write order with its recomputed flags.
func OrderFulfillment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload fulfillmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SaveFulfillment(r.Context(), orderID, internalorders.FulfillmentInput{
			Entries:  payload.Entries,
			Tracking: payload.Tracking,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderPayment verifies the order's payment against the processor.
func OrderPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type labelRequest struct {
	Service      string  `json:"service" validate:"required"`
	WeightOunces float64 `json:"weightOunces" validate:"required,gt=0"`
}

// OrderLabel buys postage for one order and records the tracking number.
func OrderLabel(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload labelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PurchaseLabel(r.Context(), orderID, shipping.LabelInput{
			Service:      payload.Service,
			WeightOunces: payload.WeightOunces,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func parseOrderID(r *http.Request) (string, error) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if orderID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return orderID, nil
}
