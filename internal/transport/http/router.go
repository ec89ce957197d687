// Package httptransport assembles the HTTP router. Handlers live with their
// modules; this package only decides middleware order and which routes
// require authentication.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityhandler "landregistry/internal/identity/handler"
	registryhandler "landregistry/internal/registry/handler"
	verificationhandler "landregistry/internal/verification/handler"
	"landregistry/pkg/platform/middleware/auth"
	"landregistry/pkg/platform/middleware/metadata"
	"landregistry/pkg/platform/middleware/request"
	"landregistry/pkg/platform/middleware/requesttime"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the wired handlers and cross-cutting dependencies the router
// mounts.
type Deps struct {
	Identity     *identityhandler.Handler
	Verification *verificationhandler.Handler
	Registry     *registryhandler.Handler
	Validator    auth.Validator
	Logger       *slog.Logger
	HealthChecks []HealthCheck
}

// NewRouter builds the full route tree. The registry's for-sale and
// per-survey lookups are public; everything else requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		for _, check := range deps.HealthChecks {
			if err := check(ctx); err != nil {
				deps.Logger.ErrorContext(ctx, "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public registry browsing.
	r.Get("/properties/for-sale", deps.Registry.HandleListForSale)
	r.Get("/properties/{surveyID}", deps.Registry.HandleGetProperty)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		deps.Identity.Register(r)
		deps.Verification.Register(r)
		r.Get("/properties/mine", deps.Registry.HandleListMine)
	})

	return r
}
