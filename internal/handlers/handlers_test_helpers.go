package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"microloan/internal/auth"
	"microloan/internal/config"
	"microloan/internal/middleware"
	"microloan/internal/models"
	"microloan/internal/services"
	"microloan/internal/store"
	"microloan/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn      func(ctx context.Context, tx store.Execer, id, fullName, email, passwordHash string, phoneNumber *string) error
	getByEmailFn  func(ctx context.Context, email string) (models.User, error)
	getByIDFn     func(ctx context.Context, userID string) (models.User, error)
	setAdminFn    func(ctx context.Context, tx store.Execer, userID string, isAdmin bool) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
	isAdminFn     func(ctx context.Context, userID string) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, fullName, email, passwordHash string, phoneNumber *string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, fullName, email, passwordHash, phoneNumber)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) SetAdmin(ctx context.Context, tx store.Execer, userID string, isAdmin bool) error {
	if s.setAdminFn == nil {
		return nil
	}
	return s.setAdminFn(ctx, tx, userID, isAdmin)
}

func (s stubUserStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

func (s stubUserStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return false, nil
	}
	return s.isAdminFn(ctx, userID)
}

type stubLoanStore struct {
	getByIDForUserFn func(ctx context.Context, loanID, userID string) (models.Loan, error)
	listByUserFn     func(ctx context.Context, userID string, limit, offset int) ([]models.Loan, error)
	countByUserFn    func(ctx context.Context, userID string) (int, error)
}

func (s stubLoanStore) GetByIDForUser(ctx context.Context, loanID, userID string) (models.Loan, error) {
	if s.getByIDForUserFn == nil {
		return models.Loan{}, nil
	}
	return s.getByIDForUserFn(ctx, loanID, userID)
}

func (s stubLoanStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Loan, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubLoanStore) CountByUser(ctx context.Context, userID string) (int, error) {
	if s.countByUserFn == nil {
		return 0, nil
	}
	return s.countByUserFn(ctx, userID)
}

type stubRepaymentReader struct {
	listByUserFn         func(ctx context.Context, userID string, limit, offset int) ([]models.Repayment, error)
	listStaleInitiatedFn func(ctx context.Context, olderThan time.Time, limit int) ([]models.Repayment, error)
}

func (s stubRepaymentReader) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Repayment, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubRepaymentReader) ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]models.Repayment, error) {
	if s.listStaleInitiatedFn == nil {
		return nil, nil
	}
	return s.listStaleInitiatedFn(ctx, olderThan, limit)
}

type stubAuditReader struct {
	listFn func(ctx context.Context, limit, offset int) ([]store.AuditLog, error)
}

func (s stubAuditReader) List(ctx context.Context, limit, offset int) ([]store.AuditLog, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubRequestService struct {
	createRequestFn func(ctx context.Context, userID string, amount decimal.Decimal, amortization models.AmortizationType) (models.RequestLoan, error)
	getRequestFn    func(ctx context.Context, requestID string) (models.RequestLoan, error)
	listRequestsFn  func(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error)
}

func (s stubRequestService) CreateRequest(ctx context.Context, userID string, amount decimal.Decimal, amortization models.AmortizationType) (models.RequestLoan, error) {
	if s.createRequestFn == nil {
		return models.RequestLoan{}, nil
	}
	return s.createRequestFn(ctx, userID, amount, amortization)
}

func (s stubRequestService) GetRequest(ctx context.Context, requestID string) (models.RequestLoan, error) {
	if s.getRequestFn == nil {
		return models.RequestLoan{}, nil
	}
	return s.getRequestFn(ctx, requestID)
}

func (s stubRequestService) ListRequests(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error) {
	if s.listRequestsFn == nil {
		return nil, nil
	}
	return s.listRequestsFn(ctx, userID, limit, offset)
}

type stubApprovalService struct {
	approveRequestFn func(ctx context.Context, adminID, requestID string, approve bool) (services.ApprovalResult, error)
}

func (s stubApprovalService) ApproveRequest(ctx context.Context, adminID, requestID string, approve bool) (services.ApprovalResult, error) {
	if s.approveRequestFn == nil {
		return services.ApprovalResult{}, nil
	}
	return s.approveRequestFn(ctx, adminID, requestID, approve)
}

type stubRepaymentService struct {
	initiateFn   func(ctx context.Context, userID string, amount decimal.Decimal) (models.Repayment, string, error)
	confirmFn    func(ctx context.Context, reference string) (services.ConfirmOutcome, error)
	getBalanceFn func(ctx context.Context, userID string) (models.LoanBalance, error)
}

func (s stubRepaymentService) InitiateRepayment(ctx context.Context, userID string, amount decimal.Decimal) (models.Repayment, string, error) {
	if s.initiateFn == nil {
		return models.Repayment{}, "", nil
	}
	return s.initiateFn(ctx, userID, amount)
}

func (s stubRepaymentService) ConfirmRepayment(ctx context.Context, reference string) (services.ConfirmOutcome, error) {
	if s.confirmFn == nil {
		return services.ConfirmOutcome{}, nil
	}
	return s.confirmFn(ctx, reference)
}

func (s stubRepaymentService) GetBalance(ctx context.Context, userID string) (models.LoanBalance, error) {
	if s.getBalanceFn == nil {
		return models.LoanBalance{}, nil
	}
	return s.getBalanceFn(ctx, userID)
}

func newTestHandler(txRunner fakeTxRunner, users UserStore, loans LoanStore, repayments RepaymentReader, audit AuditReader, requests RequestService, approvals ApprovalService, repayment RepaymentService) *Handler {
	cfg := config.Config{
		AppEnv:             "test",
		Port:               "0",
		JWTSecret:          "secret",
		TokenTTL:           time.Minute,
		AllowedOrigins:     "*",
		InterestRate:       decimal.RequireFromString("0.05"),
		ClearanceThreshold: decimal.RequireFromString("100"),
	}
	return New(txRunner, cfg, users, loans, repayments, audit, requests, approvals, repayment, websocket.NewHub())
}

func authedRequest(t *testing.T, method, target string, body io.Reader, userID string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serveAuthed(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func rawRequest(method, target string, body []byte) (*http.Request, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	return httptest.NewRequest(method, target, reader), httptest.NewRecorder()
}

func record(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
