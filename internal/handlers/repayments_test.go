package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"microloan/internal/models"
	"microloan/internal/services"

	"github.com/shopspring/decimal"
)

func TestInitiateRepaymentReturnsCheckoutURL(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{
		initiateFn: func(_ context.Context, userID string, amount decimal.Decimal) (models.Repayment, string, error) {
			return models.Repayment{ID: "rep-1", UserID: userID, RepayAmount: amount}, "https://checkout.example/abc", nil
		},
	})

	body := []byte(`{"repay_amount":"250.50"}`)
	req := authedRequest(t, http.MethodPost, "/repayments/", bytes.NewReader(body), "user-1")
	rr := serveAuthed(handler.InitiateRepayment, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload.CheckoutURL != "https://checkout.example/abc" {
		t.Fatalf("unexpected checkout url: %s", payload.CheckoutURL)
	}
}

func TestInitiateRepaymentCleared(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{
		initiateFn: func(context.Context, string, decimal.Decimal) (models.Repayment, string, error) {
			return models.Repayment{}, "", services.ErrLoansCleared
		},
	})
	body := []byte(`{"repay_amount":"50.00"}`)
	req := authedRequest(t, http.MethodPost, "/repayments/", bytes.NewReader(body), "user-1")
	rr := serveAuthed(handler.InitiateRepayment, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestInitiateRepaymentGatewayDown(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{
		initiateFn: func(context.Context, string, decimal.Decimal) (models.Repayment, string, error) {
			return models.Repayment{}, "", services.ErrGatewayFailure
		},
	})
	body := []byte(`{"repay_amount":"100.00"}`)
	req := authedRequest(t, http.MethodPost, "/repayments/", bytes.NewReader(body), "user-1")
	rr := serveAuthed(handler.InitiateRepayment, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestVerifyRepaymentSuccess(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{
		confirmFn: func(_ context.Context, reference string) (services.ConfirmOutcome, error) {
			if reference != "rep-1" {
				t.Fatalf("unexpected reference: %q", reference)
			}
			return services.ConfirmOutcome{
				Repayment:  models.Repayment{ID: "rep-1", IsApproved: true},
				PaidOff:    true,
				LoansSwept: 2,
			}, nil
		},
	})
	router := handler.Routes()
	req := authedRequest(t, http.MethodGet, "/repayments/rep-1/verify", nil, "user-1")
	rr := record(router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		PaidOff    bool  `json:"paid_off"`
		LoansSwept int64 `json:"loans_swept"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !payload.PaidOff || payload.LoansSwept != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestVerifyRepaymentPending(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{
		confirmFn: func(context.Context, string) (services.ConfirmOutcome, error) {
			return services.ConfirmOutcome{}, services.ErrGatewayPending
		},
	})
	router := handler.Routes()
	req := authedRequest(t, http.MethodGet, "/repayments/rep-1/verify", nil, "user-1")
	rr := record(router, req)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rr.Code)
	}
}

func TestListRepayments(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubLoanStore{}, stubRepaymentReader{
		listByUserFn: func(_ context.Context, userID string, _, _ int) ([]models.Repayment, error) {
			if userID != "user-1" {
				t.Fatalf("listing must be scoped to the caller, got %q", userID)
			}
			return []models.Repayment{{ID: "rep-1"}}, nil
		},
	}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{})
	req := authedRequest(t, http.MethodGet, "/repayments/", nil, "user-1")
	rr := serveAuthed(handler.ListRepayments, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
