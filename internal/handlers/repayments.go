package handlers

import (
	"encoding/json"
	"net/http"

	"microloan/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type repaymentPayload struct {
	RepayAmount string `json:"repay_amount"`
}

func (h *Handler) InitiateRepayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req repaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmount(req.RepayAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	repayment, checkoutURL, err := h.repayment.InitiateRepayment(r.Context(), userID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"checkout_url": checkoutURL,
		"repayment":    repayment,
	})
}

func (h *Handler) VerifyRepayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	outcome, err := h.repayment.ConfirmRepayment(r.Context(), reference)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"repayment":         outcome.Repayment,
		"balance":           outcome.Balance,
		"paid_off":          outcome.PaidOff,
		"loans_swept":       outcome.LoansSwept,
		"already_confirmed": outcome.AlreadyConfirmed,
	})
}

func (h *Handler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r)
	repayments, err := h.repayments.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list repayments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"repayments": repayments})
}
