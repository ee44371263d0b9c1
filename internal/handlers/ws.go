package handlers

import (
	"net/http"

	"microloan/internal/auth"
	"microloan/internal/websocket"
)

// WSBalances upgrades the connection and streams ledger updates for the
// token's user. Browsers cannot set headers on websocket dials, so the
// token arrives as a query parameter.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
