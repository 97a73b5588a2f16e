package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blackcnote/invest-api/internal/domain"
	"github.com/blackcnote/invest-api/internal/service"
)

// POST /v1/auth/register
func registerHandler(svc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}

		user, err := svc.Register(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// POST /v1/auth/login
func loginHandler(svc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
			return
		}

		token, err := svc.Login(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, token)
	}
}
