package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microloan/internal/config"
	"microloan/internal/db"
	"microloan/internal/gateway"
	"microloan/internal/handlers"
	"microloan/internal/services"
	"microloan/internal/store"
	"microloan/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	requests := store.NewRequestLoanStore(database)
	loans := store.NewLoanStore(database)
	balances := store.NewLoanBalanceStore(database)
	repayments := store.NewRepaymentStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	paystack := gateway.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)

	requestService := services.NewRequestService(txRunner, users, requests, cfg.InterestRate)
	approvalService := services.NewApprovalService(txRunner, requests, loans, balances, users, audit, hub, cfg.InterestRate)
	repaymentService := services.NewRepaymentService(txRunner, users, balances, repayments, loans, audit, paystack, hub, cfg.ClearanceThreshold)

	handler := handlers.New(txRunner, cfg, users, loans, repayments, audit, requestService, approvalService, repaymentService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("microloan API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
