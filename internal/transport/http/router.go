// Package httptransport assembles the HTTP surface: the middleware chain, the
// versioned public API, the admin group and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/platform/metrics"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/platform/middleware/admin"
	"guardian/pkg/platform/middleware/metadata"
	"guardian/pkg/platform/middleware/request"
	"guardian/pkg/platform/middleware/requesttime"
	"guardian/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

const (
	checkOK          = "ok"
	checkUnavailable = "unavailable"
)

// Registrar mounts public routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar mounts operator routes. The router applies admin auth.
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether a backend is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	AdminToken string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Health     map[string]HealthCheck
}

// NewRouter wires every route under /v1, with /healthz and /metrics at the
// root.
func NewRouter(cfg Config, public []Registrar, admins []AdminRegistrar) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recover(logger))
	r.Use(request.Logger(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", healthz(cfg.Health, logger))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		for _, h := range public {
			h.Register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			for _, h := range admins {
				h.RegisterAdmin(r)
			}
		})
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthz reports each backend as "ok" or "unavailable". Failure details go
// to the log only; the endpoint is unauthenticated.
func healthz(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", requestcontext.RequestID(ctx),
					"backend", name,
					"error", err,
				)
				resp.Checks[name] = checkUnavailable
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = checkOK
		}
		httputil.WriteJSON(w, status, resp)
	}
}
