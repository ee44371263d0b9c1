package services

import (
	"context"
	"time"

	"microloan/internal/gateway"
	"microloan/internal/models"
	"microloan/internal/store"
	"microloan/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	existsFn        func(ctx context.Context, userID string) (bool, error)
	getByIDFn       func(ctx context.Context, userID string) (models.User, error)
	setActiveLoanFn func(ctx context.Context, tx store.Execer, userID string, active bool) error
}

func (s stubUserStore) Exists(ctx context.Context, userID string) (bool, error) {
	if s.existsFn == nil {
		return true, nil
	}
	return s.existsFn(ctx, userID)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) SetActiveLoan(ctx context.Context, tx store.Execer, userID string, active bool) error {
	if s.setActiveLoanFn == nil {
		return nil
	}
	return s.setActiveLoanFn(ctx, tx, userID, active)
}

type stubRequestStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.RequestLoanInput) error
	getByIDFn      func(ctx context.Context, requestID string) (models.RequestLoan, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, requestID string) (models.RequestLoan, error)
	hasPendingFn   func(ctx context.Context, userID string) (bool, error)
	approveFn      func(ctx context.Context, tx store.Execer, requestID string) error
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error)
}

func (s stubRequestStore) Create(ctx context.Context, tx store.Execer, input store.RequestLoanInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubRequestStore) GetByID(ctx context.Context, requestID string) (models.RequestLoan, error) {
	return s.getByIDFn(ctx, requestID)
}

func (s stubRequestStore) GetForUpdate(ctx context.Context, tx store.Getter, requestID string) (models.RequestLoan, error) {
	return s.getForUpdateFn(ctx, tx, requestID)
}

func (s stubRequestStore) HasPending(ctx context.Context, userID string) (bool, error) {
	if s.hasPendingFn == nil {
		return false, nil
	}
	return s.hasPendingFn(ctx, userID)
}

func (s stubRequestStore) Approve(ctx context.Context, tx store.Execer, requestID string) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(ctx, tx, requestID)
}

func (s stubRequestStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubLoanStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.LoanInput) error
	markAllPaidOffFn func(ctx context.Context, tx store.Execer, userID string) (int64, error)
}

func (s stubLoanStore) Create(ctx context.Context, tx store.Execer, input store.LoanInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubLoanStore) MarkAllPaidOff(ctx context.Context, tx store.Execer, userID string) (int64, error) {
	if s.markAllPaidOffFn == nil {
		return 0, nil
	}
	return s.markAllPaidOffFn(ctx, tx, userID)
}

type stubBalanceStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.LoanBalanceInput) error
	getByUserFn    func(ctx context.Context, userID string) (models.LoanBalance, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, userID string) (models.LoanBalance, error)
	updateTotalsFn func(ctx context.Context, tx store.Execer, balanceID string, totalLoan, totalPaid decimal.Decimal, lastUpdated time.Time) error
}

func (s stubBalanceStore) Create(ctx context.Context, tx store.Execer, input store.LoanBalanceInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubBalanceStore) GetByUser(ctx context.Context, userID string) (models.LoanBalance, error) {
	return s.getByUserFn(ctx, userID)
}

func (s stubBalanceStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.LoanBalance, error) {
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubBalanceStore) UpdateTotals(ctx context.Context, tx store.Execer, balanceID string, totalLoan, totalPaid decimal.Decimal, lastUpdated time.Time) error {
	if s.updateTotalsFn == nil {
		return nil
	}
	return s.updateTotalsFn(ctx, tx, balanceID, totalLoan, totalPaid, lastUpdated)
}

type stubRepaymentStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.RepaymentInput) error
	getByIDFn      func(ctx context.Context, repaymentID string) (models.Repayment, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, repaymentID string) (models.Repayment, error)
	approveFn      func(ctx context.Context, tx store.Execer, repaymentID string, paidAt time.Time) error
	deleteFn       func(ctx context.Context, tx store.Execer, repaymentID string) error
}

func (s stubRepaymentStore) Create(ctx context.Context, tx store.Execer, input store.RepaymentInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubRepaymentStore) GetByID(ctx context.Context, repaymentID string) (models.Repayment, error) {
	return s.getByIDFn(ctx, repaymentID)
}

func (s stubRepaymentStore) GetForUpdate(ctx context.Context, tx store.Getter, repaymentID string) (models.Repayment, error) {
	return s.getForUpdateFn(ctx, tx, repaymentID)
}

func (s stubRepaymentStore) Approve(ctx context.Context, tx store.Execer, repaymentID string, paidAt time.Time) error {
	if s.approveFn == nil {
		return nil
	}
	return s.approveFn(ctx, tx, repaymentID, paidAt)
}

func (s stubRepaymentStore) Delete(ctx context.Context, tx store.Execer, repaymentID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tx, repaymentID)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	updates []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.updates = append(s.updates, update)
}

type stubGateway struct {
	initializeFn func(ctx context.Context, email string, amountMinor int64, reference string) (gateway.InitializeResult, error)
	verifyFn     func(ctx context.Context, reference string) (gateway.VerifyResult, error)
}

func (s stubGateway) Initialize(ctx context.Context, email string, amountMinor int64, reference string) (gateway.InitializeResult, error) {
	if s.initializeFn == nil {
		return gateway.InitializeResult{CheckoutURL: "https://checkout.example/ok", Reference: reference}, nil
	}
	return s.initializeFn(ctx, email, amountMinor, reference)
}

func (s stubGateway) Verify(ctx context.Context, reference string) (gateway.VerifyResult, error) {
	if s.verifyFn == nil {
		return gateway.VerifyResult{Status: gateway.StatusSuccess}, nil
	}
	return s.verifyFn(ctx, reference)
}

func mustDecimal(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
