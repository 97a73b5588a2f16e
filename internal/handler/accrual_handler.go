package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/service"
)

// POST /v1/accrual/run (admin)
// Manually triggers the accrual batch for the current period. Safe to call
// more than once: the per-investment period gate makes re-runs no-ops.
func runAccrualHandler(svc *service.AccrualService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := svc.Run(r.Context(), time.Now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// GET /v1/accrual/runs/{period} (admin)
func getAccrualRunHandler(svc *service.AccrualService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := svc.GetRun(r.Context(), chi.URLParam(r, "period"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}
