package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"microloan/internal/models"
	"microloan/internal/services"
)

func adminUserStore() stubUserStore {
	return stubUserStore{
		isAdminFn: func(_ context.Context, userID string) (bool, error) {
			return userID == "admin-1", nil
		},
	}
}

func TestApproveLoanRequestSuccess(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{
		approveRequestFn: func(_ context.Context, adminID, requestID string, approve bool) (services.ApprovalResult, error) {
			if adminID != "admin-1" || requestID != "req-1" || !approve {
				t.Fatalf("unexpected call: admin=%q request=%q approve=%v", adminID, requestID, approve)
			}
			return services.ApprovalResult{
				Approved: true,
				Request:  models.RequestLoan{ID: requestID, Approval: true},
				Loan:     &models.Loan{ID: "loan-1"},
			}, nil
		},
	}, stubRepaymentService{})
	router := handler.Routes()
	body := []byte(`{"approval":true}`)
	req := authedRequest(t, http.MethodPatch, "/admin/requests/req-1/approve", bytes.NewReader(body), "admin-1")
	rr := record(router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Approved bool `json:"approved"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !payload.Approved {
		t.Fatalf("expected approved payload")
	}
}

func TestApproveLoanRequestDecline(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{
		approveRequestFn: func(_ context.Context, _, requestID string, approve bool) (services.ApprovalResult, error) {
			if approve {
				t.Fatalf("expected a decline")
			}
			return services.ApprovalResult{Approved: false, Request: models.RequestLoan{ID: requestID}}, nil
		},
	}, stubRepaymentService{})
	router := handler.Routes()
	body := []byte(`{"approval":false}`)
	req := authedRequest(t, http.MethodPatch, "/admin/requests/req-1/approve", bytes.NewReader(body), "admin-1")
	rr := record(router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Approved bool `json:"approved"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload.Approved {
		t.Fatalf("expected declined payload")
	}
}

func TestApproveLoanRequestMissingApprovalField(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{
		approveRequestFn: func(context.Context, string, string, bool) (services.ApprovalResult, error) {
			t.Fatalf("service must not be called without an approval field")
			return services.ApprovalResult{}, nil
		},
	}, stubRepaymentService{})
	router := handler.Routes()
	body := []byte(`{}`)
	req := authedRequest(t, http.MethodPatch, "/admin/requests/req-1/approve", bytes.NewReader(body), "admin-1")
	rr := record(router, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestApproveLoanRequestAlreadyProcessed(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{
		approveRequestFn: func(context.Context, string, string, bool) (services.ApprovalResult, error) {
			return services.ApprovalResult{}, services.ErrAlreadyApproved
		},
	}, stubRepaymentService{})
	router := handler.Routes()
	body := []byte(`{"approval":true}`)
	req := authedRequest(t, http.MethodPatch, "/admin/requests/req-1/approve", bytes.NewReader(body), "admin-1")
	rr := record(router, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestApproveLoanRequestForbiddenForNonAdmin(t *testing.T) {
	called := false
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{}, stubAuditReader{}, stubRequestService{}, stubApprovalService{
		approveRequestFn: func(context.Context, string, string, bool) (services.ApprovalResult, error) {
			called = true
			return services.ApprovalResult{}, nil
		},
	}, stubRepaymentService{})
	router := handler.Routes()
	body := []byte(`{"approval":true}`)
	req := authedRequest(t, http.MethodPatch, "/admin/requests/req-1/approve", bytes.NewReader(body), "user-1")
	rr := record(router, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if called {
		t.Fatalf("non-admin must not reach the approval service")
	}
}

func TestListStaleRepayments(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, adminUserStore(), stubLoanStore{}, stubRepaymentReader{
		listStaleInitiatedFn: func(_ context.Context, olderThan time.Time, limit int) ([]models.Repayment, error) {
			if time.Since(olderThan) < 47*time.Hour || time.Since(olderThan) > 49*time.Hour {
				t.Fatalf("unexpected cutoff: %v", olderThan)
			}
			if limit != 20 {
				t.Fatalf("unexpected limit: %d", limit)
			}
			return []models.Repayment{{ID: "rep-1"}}, nil
		},
	}, stubAuditReader{}, stubRequestService{}, stubApprovalService{}, stubRepaymentService{})
	router := handler.Routes()
	req := authedRequest(t, http.MethodGet, "/admin/repayments/stale?older_than_hours=48", nil, "admin-1")
	rr := record(router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
