package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"microloan/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a storage or I/O fault and surfaces
// as a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrBalanceNotFound),
		errors.Is(err, services.ErrRepaymentNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidAmortization),
		errors.Is(err, services.ErrPendingRequest),
		errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrLoansCleared),
		errors.Is(err, services.ErrExceedsBalance):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrGatewayPending):
		respondError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrGatewayFailure):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
