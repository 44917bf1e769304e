package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onyxprocessing/opsdash-backend/api/responses"
	"github.com/onyxprocessing/opsdash-backend/internal/affiliates"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
)

// AffiliatesList returns every referral partner.
func AffiliatesList(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliates service unavailable"))
			return
		}

		partners, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partners)
	}
}

// AffiliateReport rolls one partner's referred orders into a payout report.
func AffiliateReport(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliates service unavailable"))
			return
		}

		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "affiliate code is required"))
			return
		}

		report, err := svc.Report(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
