package controllers

import (
	"net/http"

	"github.com/onyxprocessing/opsdash-backend/api/responses"
	"github.com/onyxprocessing/opsdash-backend/internal/customers"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
)

// CustomersList returns per-customer rollups derived from order history.
func CustomersList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
