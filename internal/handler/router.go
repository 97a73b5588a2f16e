package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/service"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	catalogSvc *service.CatalogService,
	ledgerSvc *service.LedgerService,
	accrualSvc *service.AccrualService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(metricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public: auth
		r.Post("/auth/register", registerHandler(authSvc, logger))
		r.Post("/auth/login", loginHandler(authSvc, logger))

		// Public: plan listing and the interest-preview calculator
		r.Get("/plans", listPlansHandler(catalogSvc, logger))
		r.Get("/plans/{planID}", getPlanHandler(catalogSvc, logger))
		r.Post("/calculator", calculatorHandler(catalogSvc, logger))

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Post("/investments", createInvestmentHandler(ledgerSvc, metrics, logger))
			r.Get("/investments", listInvestmentsHandler(ledgerSvc, logger))
			r.Get("/investments/{investmentID}", getInvestmentHandler(ledgerSvc, logger))

			r.Get("/balance", balanceHandler(ledgerSvc, logger))
			r.Post("/deposits", depositHandler(ledgerSvc, logger))
			r.Post("/withdrawals", withdrawalHandler(ledgerSvc, logger))

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(AdminOnly)

				r.Post("/plans", createPlanHandler(catalogSvc, logger))
				r.Post("/plans/{planID}/disable", disablePlanHandler(catalogSvc, logger))
				r.Post("/accrual/run", runAccrualHandler(accrualSvc, logger))
				r.Get("/accrual/runs/{period}", getAccrualRunHandler(accrualSvc, logger))
			})
		})
	})

	return r
}

// metricsMiddleware observes request duration per route pattern.
func metricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			metrics.RecordRequestDuration(r.Method+" "+route, time.Since(start))
		})
	}
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
