package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"microloan/internal/middleware"
	"microloan/internal/models"

	"github.com/go-chi/chi/v5"
)

type loanRequestPayload struct {
	Amount           string `json:"amount"`
	AmortizationType string `json:"amortization_type"`
}

func (h *Handler) CreateLoanRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req loanRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	request, err := h.requests.CreateRequest(r.Context(), userID, amount, models.AmortizationType(req.AmortizationType))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

func (h *Handler) GetLoanRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	request, err := h.requests.GetRequest(r.Context(), requestID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

func (h *Handler) ListLoanRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r)
	requests, err := h.requests.ListRequests(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r)
	loans, err := h.loans.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list loans")
		return
	}
	total, err := h.loans.CountByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list loans")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"loans": loans,
		"page_info": map[string]any{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loanID := chi.URLParam(r, "id")
	loan, err := h.loans.GetByIDForUser(r.Context(), loanID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "loan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load loan")
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

func (h *Handler) GetLoanBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.repayment.GetBalance(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}
