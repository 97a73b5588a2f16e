package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

// Error codes surfaced to clients alongside the message.
const (
	codeValidation          = "VALIDATION_ERROR"
	codeNotFound            = "NOT_FOUND"
	codePlanNotFound        = "PLAN_NOT_FOUND"
	codePlanDisabled        = "PLAN_DISABLED"
	codeAmountOutOfRange    = "AMOUNT_OUT_OF_RANGE"
	codeInsufficientBalance = "INSUFFICIENT_BALANCE"
	codeInvalidState        = "INVALID_STATE"
	codeUnauthorized        = "UNAUTHORIZED"
	codeForbidden           = "FORBIDDEN"
	codeConflict            = "CONFLICT"
	codeRunLocked           = "RUN_LOCKED"
	codeInternal            = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

// retryOnPersistence runs fn and retries it once when it fails with
// ErrPersistence. Domain errors are never retried.
func retryOnPersistence(ctx context.Context, fn func() error) error {
	err := fn()
	var pe *domain.ErrPersistence
	if err != nil && errors.As(err, &pe) && ctx.Err() == nil {
		err = fn()
	}
	return err
}

// handleServiceError maps domain errors to HTTP responses with stable codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var planDisabled *domain.ErrPlanDisabled
	var outOfRange *domain.ErrAmountOutOfRange
	var insufficientFunds *domain.ErrInsufficientFunds
	var invalidState *domain.ErrInvalidState
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var conflict *domain.ErrConflict
	var runLocked *domain.ErrRunLocked
	var persistence *domain.ErrPersistence

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		code := codeNotFound
		if notFound.Resource == "plan" {
			code = codePlanNotFound
		}
		writeError(w, http.StatusNotFound, code, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.As(err, &planDisabled):
		logger.Debug("plan disabled", zap.String("plan_id", planDisabled.PlanID))
		writeError(w, http.StatusUnprocessableEntity, codePlanDisabled, err.Error())
	case errors.As(err, &outOfRange):
		logger.Debug("amount out of range", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, codeAmountOutOfRange, err.Error())
	case errors.As(err, &insufficientFunds):
		logger.Warn("insufficient balance",
			zap.String("available", insufficientFunds.Available.String()),
			zap.String("required", insufficientFunds.Required.String()),
		)
		writeError(w, http.StatusUnprocessableEntity, codeInsufficientBalance, err.Error())
	case errors.As(err, &invalidState):
		logger.Debug("invalid state transition", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, codeInvalidState, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.As(err, &runLocked):
		logger.Warn("accrual run locked", zap.String("period", runLocked.Period))
		writeError(w, http.StatusConflict, codeRunLocked, err.Error())
	case errors.As(err, &persistence):
		logger.Error("persistence error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
