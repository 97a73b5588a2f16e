package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/service"
)

// GET /v1/balance?type=&from=&to=&page=&page_size=
// Returns the derived balance plus the matching transaction history.
func balanceHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		filter := domain.TransactionFilter{
			Type: domain.TransactionType(r.URL.Query().Get("type")),
		}
		if v := r.URL.Query().Get("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeValidation, "invalid 'from' date, use YYYY-MM-DD")
				return
			}
			filter.From = t
		}
		if v := r.URL.Query().Get("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeValidation, "invalid 'to' date, use YYYY-MM-DD")
				return
			}
			filter.To = t
		}
		page, pageSize := parsePagination(r)

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		history, err := svc.History(r.Context(), userID, filter, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if history == nil {
			history = []domain.Transaction{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"balance":      balance,
			"transactions": history,
		})
	}
}

// POST /v1/deposits
func depositHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Amount decimal.Decimal `json:"amount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		userID := UserIDFromContext(r.Context())

		var tx *domain.Transaction
		err := retryOnPersistence(r.Context(), func() error {
			var err error
			tx, err = svc.Deposit(r.Context(), userID, req.Amount)
			return err
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

// POST /v1/withdrawals
func withdrawalHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Amount decimal.Decimal `json:"amount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}
		userID := UserIDFromContext(r.Context())

		var tx *domain.Transaction
		err := retryOnPersistence(r.Context(), func() error {
			var err error
			tx, err = svc.Withdraw(r.Context(), userID, req.Amount)
			return err
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}
