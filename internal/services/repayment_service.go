package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"microloan/internal/db"
	"microloan/internal/gateway"
	"microloan/internal/models"
	"microloan/internal/money"
	"microloan/internal/store"
	"microloan/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type RepaymentUserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	SetActiveLoan(ctx context.Context, tx store.Execer, userID string, active bool) error
}

type RepaymentStore interface {
	Create(ctx context.Context, tx store.Execer, input store.RepaymentInput) error
	GetByID(ctx context.Context, repaymentID string) (models.Repayment, error)
	GetForUpdate(ctx context.Context, tx store.Getter, repaymentID string) (models.Repayment, error)
	Approve(ctx context.Context, tx store.Execer, repaymentID string, paidAt time.Time) error
	Delete(ctx context.Context, tx store.Execer, repaymentID string) error
}

type SweepLoanStore interface {
	MarkAllPaidOff(ctx context.Context, tx store.Execer, userID string) (int64, error)
}

type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amountMinor int64, reference string) (gateway.InitializeResult, error)
	Verify(ctx context.Context, reference string) (gateway.VerifyResult, error)
}

// RepaymentService records repayments, reconciles them into the ledger on
// gateway confirmation and sweeps loans to paid off once the outstanding
// balance crosses the clearance threshold.
type RepaymentService struct {
	txRunner   db.TxRunner
	users      RepaymentUserStore
	balances   BalanceStore
	repayments RepaymentStore
	loans      SweepLoanStore
	audit      AuditStore
	gateway    PaymentGateway
	hub        BalanceHub
	threshold  decimal.Decimal
}

func NewRepaymentService(txRunner db.TxRunner, users RepaymentUserStore, balances BalanceStore, repayments RepaymentStore, loans SweepLoanStore, audit AuditStore, paymentGateway PaymentGateway, hub BalanceHub, threshold decimal.Decimal) *RepaymentService {
	return &RepaymentService{
		txRunner:   txRunner,
		users:      users,
		balances:   balances,
		repayments: repayments,
		loans:      loans,
		audit:      audit,
		gateway:    paymentGateway,
		hub:        hub,
		threshold:  threshold,
	}
}

// InitiateRepayment persists an unapproved repayment and asks the gateway
// to start a checkout keyed by the repayment's ID. The gateway call runs
// outside the insert transaction; a failed call compensates the insert so
// no orphan repayment survives.
func (s *RepaymentService) InitiateRepayment(ctx context.Context, userID string, amount decimal.Decimal) (models.Repayment, string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return models.Repayment{}, "", ErrInvalidAmount
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Repayment{}, "", ErrUserNotFound
		}
		return models.Repayment{}, "", err
	}
	balance, err := s.balances.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Repayment{}, "", ErrBalanceNotFound
		}
		return models.Repayment{}, "", err
	}
	outstanding := balance.Outstanding()
	if outstanding.LessThan(s.threshold) {
		return models.Repayment{}, "", ErrLoansCleared
	}
	if amount.GreaterThan(outstanding) {
		return models.Repayment{}, "", ErrExceedsBalance
	}
	repayment := models.Repayment{
		ID:          uuid.NewString(),
		UserID:      userID,
		RepayAmount: amount,
		IsApproved:  false,
		PaidAt:      time.Now().UTC(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repayments.Create(ctx, tx, store.RepaymentInput{
			ID:          repayment.ID,
			UserID:      repayment.UserID,
			RepayAmount: repayment.RepayAmount,
			PaidAt:      repayment.PaidAt,
		})
	})
	if err != nil {
		return models.Repayment{}, "", err
	}
	result, err := s.gateway.Initialize(ctx, user.Email, money.ToMinor(amount), repayment.ID)
	if err != nil {
		log.Printf("gateway initialize failed for repayment %s: %v", repayment.ID, err)
		compensateErr := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			return s.repayments.Delete(ctx, tx, repayment.ID)
		})
		if compensateErr != nil {
			log.Printf("failed to compensate repayment %s: %v", repayment.ID, compensateErr)
		}
		return models.Repayment{}, "", ErrGatewayFailure
	}
	return repayment, result.CheckoutURL, nil
}

// ConfirmOutcome reports the ledger state after a confirmation. A repeated
// confirmation of an already approved repayment returns AlreadyConfirmed
// with the ledger untouched.
type ConfirmOutcome struct {
	Repayment        models.Repayment
	Balance          models.LoanBalance
	PaidOff          bool
	LoansSwept       int64
	AlreadyConfirmed bool
}

func (s *RepaymentService) ConfirmRepayment(ctx context.Context, reference string) (ConfirmOutcome, error) {
	repayment, err := s.repayments.GetByID(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConfirmOutcome{}, ErrRepaymentNotFound
		}
		return ConfirmOutcome{}, err
	}
	if repayment.IsApproved {
		balance, err := s.balances.GetByUser(ctx, repayment.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return ConfirmOutcome{}, err
		}
		return ConfirmOutcome{Repayment: repayment, Balance: balance, AlreadyConfirmed: true}, nil
	}
	verified, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		log.Printf("gateway verify failed for repayment %s: %v", reference, err)
		return ConfirmOutcome{}, ErrGatewayFailure
	}
	switch verified.Status {
	case gateway.StatusSuccess:
	case gateway.StatusPending:
		return ConfirmOutcome{}, ErrGatewayPending
	default:
		return ConfirmOutcome{}, ErrGatewayFailure
	}

	var outcome ConfirmOutcome
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.repayments.GetForUpdate(ctx, tx, reference)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRepaymentNotFound
			}
			return err
		}
		if locked.IsApproved {
			outcome = ConfirmOutcome{Repayment: locked, AlreadyConfirmed: true}
			return nil
		}
		balance, err := s.balances.GetForUpdate(ctx, tx, locked.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBalanceNotFound
			}
			return err
		}
		now := time.Now().UTC()
		balance.TotalPaid = balance.TotalPaid.Add(locked.RepayAmount)
		balance.LastUpdated = now
		if err := s.balances.UpdateTotals(ctx, tx, balance.ID, balance.TotalLoan, balance.TotalPaid, now); err != nil {
			return err
		}
		if err := s.repayments.Approve(ctx, tx, locked.ID, now); err != nil {
			return err
		}
		locked.IsApproved = true
		locked.PaidAt = now
		outcome = ConfirmOutcome{Repayment: locked, Balance: balance}
		if balance.Outstanding().LessThanOrEqual(s.threshold) {
			swept, err := s.loans.MarkAllPaidOff(ctx, tx, locked.UserID)
			if err != nil {
				return err
			}
			if err := s.users.SetActiveLoan(ctx, tx, locked.UserID, false); err != nil {
				return err
			}
			outcome.PaidOff = true
			outcome.LoansSwept = swept
		}
		data, _ := json.Marshal(map[string]string{
			"repay_amount": money.Format(locked.RepayAmount),
			"outstanding":  money.Format(balance.Outstanding()),
		})
		return s.audit.Log(ctx, tx, locked.UserID, "confirm_repayment", "repayment", locked.ID, string(data))
	})
	if err != nil {
		return ConfirmOutcome{}, err
	}
	if !outcome.AlreadyConfirmed {
		s.hub.BroadcastBalance(outcome.Repayment.UserID, websocket.BalanceUpdate{
			TotalLoan:   money.Format(outcome.Balance.TotalLoan),
			TotalPaid:   money.Format(outcome.Balance.TotalPaid),
			Outstanding: money.Format(outcome.Balance.Outstanding()),
		})
	}
	return outcome, nil
}

// GetBalance reads the user's ledger.
func (s *RepaymentService) GetBalance(ctx context.Context, userID string) (models.LoanBalance, error) {
	balance, err := s.balances.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LoanBalance{}, ErrBalanceNotFound
		}
		return models.LoanBalance{}, err
	}
	return balance, nil
}
