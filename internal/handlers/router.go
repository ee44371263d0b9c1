package handlers

import (
	"net/http"

	"microloan/internal/config"
	"microloan/internal/db"
	"microloan/internal/middleware"
	"microloan/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner   db.TxRunner
	cfg        config.Config
	users      UserStore
	loans      LoanStore
	repayments RepaymentReader
	audit      AuditReader
	requests   RequestService
	approvals  ApprovalService
	repayment  RepaymentService
	hub        *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, loans LoanStore, repayments RepaymentReader, audit AuditReader, requests RequestService, approvals ApprovalService, repayment RepaymentService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:   txRunner,
		cfg:        cfg,
		users:      users,
		loans:      loans,
		repayments: repayments,
		audit:      audit,
		requests:   requests,
		approvals:  approvals,
		repayment:  repayment,
		hub:        hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	router.Route("/loans", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/request", h.CreateLoanRequest)
		r.Get("/request/{id}", h.GetLoanRequest)
		r.Get("/requests", h.ListLoanRequests)
		r.Get("/balance", h.GetLoanBalance)
		r.Get("/", h.ListLoans)
		r.Get("/{id}", h.GetLoan)
	})
	router.Route("/repayments", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/", h.InitiateRepayment)
		r.Get("/", h.ListRepayments)
		r.Get("/{reference}/verify", h.VerifyRepayment)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.users))
		r.Patch("/requests/{id}/approve", h.ApproveLoanRequest)
		r.Get("/audit", h.ListAuditLogs)
		r.Get("/repayments/stale", h.ListStaleRepayments)
	})
	router.Get("/ws/balances", h.WSBalances)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
