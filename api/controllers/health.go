package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nearmarket/nearmarket-backend/api/responses"
	"github.com/nearmarket/nearmarket-backend/pkg/config"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is the health-check surface of a backing dependency.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NearMarket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NearMarket-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks)
				responses.WriteError(ctx, logg, w, wrapped)
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
