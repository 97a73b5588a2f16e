package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/service"
)

// planView is the public shape of a plan in listings.
type planView struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	InterestType    string          `json:"interest_type"`
	DurationPeriods int             `json:"duration_periods"`
	CapitalBack     bool            `json:"capital_back"`
}

func toPlanView(p *domain.Plan) planView {
	return planView{
		ID:              p.ID,
		Name:            p.Name,
		MinAmount:       p.MinAmount,
		MaxAmount:       p.MaxAmount,
		InterestRate:    p.InterestRate,
		InterestType:    string(p.InterestType),
		DurationPeriods: p.DurationPeriods,
		CapitalBack:     p.CapitalBack,
	}
}

// GET /v1/plans
func listPlansHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := svc.ListActivePlans(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		views := make([]planView, 0, len(plans))
		for i := range plans {
			views = append(views, toPlanView(&plans[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": views})
	}
}

// GET /v1/plans/{planID}
func getPlanHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := svc.GetPlan(r.Context(), chi.URLParam(r, "planID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, toPlanView(plan))
	}
}

// POST /v1/plans (admin)
func createPlanHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec domain.PlanSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}

		plan, err := svc.CreatePlan(r.Context(), &spec)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

// POST /v1/plans/{planID}/disable (admin)
func disablePlanHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DisablePlan(r.Context(), chi.URLParam(r, "planID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
	}
}

// POST /v1/calculator
func calculatorHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
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

		result, err := svc.Preview(r.Context(), req.PlanID, req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
