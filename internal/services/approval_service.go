package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"microloan/internal/db"
	"microloan/internal/models"
	"microloan/internal/money"
	"microloan/internal/store"
	"microloan/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ApprovalRequestStore interface {
	GetByID(ctx context.Context, requestID string) (models.RequestLoan, error)
	GetForUpdate(ctx context.Context, tx store.Getter, requestID string) (models.RequestLoan, error)
	Approve(ctx context.Context, tx store.Execer, requestID string) error
}

type ApprovalLoanStore interface {
	Create(ctx context.Context, tx store.Execer, input store.LoanInput) error
}

type BalanceStore interface {
	Create(ctx context.Context, tx store.Execer, input store.LoanBalanceInput) error
	GetByUser(ctx context.Context, userID string) (models.LoanBalance, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.LoanBalance, error)
	UpdateTotals(ctx context.Context, tx store.Execer, balanceID string, totalLoan, totalPaid decimal.Decimal, lastUpdated time.Time) error
}

type ActiveLoanUserStore interface {
	SetActiveLoan(ctx context.Context, tx store.Execer, userID string, active bool) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// ApprovalService converts an approved loan request into a disbursed loan
// and folds principal plus interest into the user's ledger. The interest
// rate is explicit construction-time configuration.
type ApprovalService struct {
	txRunner db.TxRunner
	requests ApprovalRequestStore
	loans    ApprovalLoanStore
	balances BalanceStore
	users    ActiveLoanUserStore
	audit    AuditStore
	hub      BalanceHub
	rate     decimal.Decimal
}

func NewApprovalService(txRunner db.TxRunner, requests ApprovalRequestStore, loans ApprovalLoanStore, balances BalanceStore, users ActiveLoanUserStore, audit AuditStore, hub BalanceHub, rate decimal.Decimal) *ApprovalService {
	return &ApprovalService{
		txRunner: txRunner,
		requests: requests,
		loans:    loans,
		balances: balances,
		users:    users,
		audit:    audit,
		hub:      hub,
		rate:     rate,
	}
}

// ApprovalResult carries both sides of the decision. A decline leaves the
// request pending and retryable; only Approved=true implies a disbursed
// loan and a ledger mutation.
type ApprovalResult struct {
	Approved bool
	Request  models.RequestLoan
	Loan     *models.Loan
}

func (s *ApprovalService) ApproveRequest(ctx context.Context, adminID, requestID string, approve bool) (ApprovalResult, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ApprovalResult{}, ErrRequestNotFound
		}
		return ApprovalResult{}, err
	}
	if request.Approval {
		return ApprovalResult{}, ErrAlreadyApproved
	}
	if !approve {
		return ApprovalResult{Approved: false, Request: request}, nil
	}

	var loan models.Loan
	var balance models.LoanBalance
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.requests.GetForUpdate(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRequestNotFound
			}
			return err
		}
		if locked.Approval {
			return ErrAlreadyApproved
		}
		if err := s.requests.Approve(ctx, tx, requestID); err != nil {
			return err
		}
		now := time.Now().UTC()
		loan = models.Loan{
			ID:            uuid.NewString(),
			UserID:        locked.UserID,
			RequestLoanID: locked.ID,
			Amount:        locked.Amount,
			PaidOff:       false,
			StartAt:       now,
		}
		if err := s.loans.Create(ctx, tx, store.LoanInput{
			ID:            loan.ID,
			UserID:        loan.UserID,
			RequestLoanID: loan.RequestLoanID,
			Amount:        loan.Amount,
			StartAt:       loan.StartAt,
		}); err != nil {
			return err
		}
		interest := locked.Amount.Mul(s.rate)
		obligation := locked.Amount.Add(interest)
		balance, err = s.balances.GetForUpdate(ctx, tx, locked.UserID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			balance = models.LoanBalance{
				ID:          uuid.NewString(),
				UserID:      locked.UserID,
				TotalLoan:   obligation,
				TotalPaid:   decimal.Zero,
				LastUpdated: now,
			}
			if err := s.balances.Create(ctx, tx, store.LoanBalanceInput{
				ID:          balance.ID,
				UserID:      balance.UserID,
				TotalLoan:   balance.TotalLoan,
				TotalPaid:   balance.TotalPaid,
				LastUpdated: balance.LastUpdated,
			}); err != nil {
				return err
			}
		} else {
			balance.TotalLoan = balance.TotalLoan.Add(obligation)
			balance.LastUpdated = now
			if err := s.balances.UpdateTotals(ctx, tx, balance.ID, balance.TotalLoan, balance.TotalPaid, now); err != nil {
				return err
			}
		}
		if err := s.users.SetActiveLoan(ctx, tx, locked.UserID, true); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"request_loan_id": locked.ID,
			"loan_id":         loan.ID,
			"amount":          money.Format(locked.Amount),
			"interest":        money.Format(interest),
		})
		return s.audit.Log(ctx, tx, adminID, "approve_request", "loan", loan.ID, string(data))
	})
	if err != nil {
		return ApprovalResult{}, err
	}
	s.hub.BroadcastBalance(loan.UserID, websocket.BalanceUpdate{
		TotalLoan:   money.Format(balance.TotalLoan),
		TotalPaid:   money.Format(balance.TotalPaid),
		Outstanding: money.Format(balance.Outstanding()),
	})
	request.Approval = true
	return ApprovalResult{Approved: true, Request: request, Loan: &loan}, nil
}
