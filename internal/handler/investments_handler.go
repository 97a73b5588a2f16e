package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/infra/observability"
	"github.com/blackcnote/invest-api/internal/service"
)

// POST /v1/investments
func createInvestmentHandler(svc *service.LedgerService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		PlanID string          `json:"plan_id"`
		Amount decimal.Decimal `json:"amount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		if req.PlanID == "" {
			writeError(w, http.StatusBadRequest, codeValidation, "plan_id is required")
			return
		}
		userID := UserIDFromContext(r.Context())

		var inv *domain.Investment
		// Commit failures get one retry; domain errors surface directly.
		err := retryOnPersistence(r.Context(), func() error {
			var err error
			inv, err = svc.OpenInvestment(r.Context(), userID, req.PlanID, req.Amount)
			return err
		})
		if err != nil {
			metrics.IncrRequest("error")
			handleServiceError(w, err, logger)
			return
		}

		metrics.IncrRequest("success")
		writeJSON(w, http.StatusCreated, map[string]string{"investment_id": inv.ID})
	}
}

// GET /v1/investments
func listInvestmentsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		investments, err := svc.ListUserInvestments(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if investments == nil {
			investments = []domain.Investment{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"investments": investments})
	}
}

// GET /v1/investments/{investmentID}
// Only the owner or an admin may view an investment.
func getInvestmentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := svc.GetInvestment(r.Context(), chi.URLParam(r, "investmentID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if inv.UserID != UserIDFromContext(r.Context()) && !IsAdmin(r.Context()) {
			handleServiceError(w, &domain.ErrForbidden{Action: "view investment"}, logger)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}
