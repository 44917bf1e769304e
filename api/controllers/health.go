package controllers

import (
	"context"
	"net/http"

	"github.com/onyxprocessing/opsdash-backend/api/responses"
	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
	"github.com/onyxprocessing/opsdash-backend/pkg/logger"
)

// Pinger is any dependency with a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Onyx-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Onyx-Env", cfg.App.Env)
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
