package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"microloan/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type approvePayload struct {
	Approval *bool `json:"approval"`
}

func (h *Handler) ApproveLoanRequest(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	requestID := chi.URLParam(r, "id")
	var req approvePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Approval == nil {
		respondError(w, http.StatusBadRequest, "approval is required")
		return
	}
	result, err := h.approvals.ApproveRequest(r.Context(), adminID, requestID, *req.Approval)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !result.Approved {
		respondJSON(w, http.StatusOK, map[string]any{
			"approved": false,
			"message":  "loan request not approved",
			"request":  result.Request,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"approved": true,
		"request":  result.Request,
		"loan":     result.Loan,
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}

// ListStaleRepayments surfaces repayments that were initiated but never
// confirmed by the gateway, for operator reconciliation.
func (h *Handler) ListStaleRepayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := parseLimitOffset(r)
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("older_than_hours"); raw != "" {
		if parsed, err := time.ParseDuration(raw + "h"); err == nil && parsed > 0 {
			cutoff = time.Now().UTC().Add(-parsed)
		}
	}
	stale, err := h.repayments.ListStaleInitiated(r.Context(), cutoff, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list stale repayments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"repayments": stale})
}
