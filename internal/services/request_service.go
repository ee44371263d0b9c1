package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"microloan/internal/db"
	"microloan/internal/models"
	"microloan/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type RequestUserStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type RequestLoanStore interface {
	Create(ctx context.Context, tx store.Execer, input store.RequestLoanInput) error
	GetByID(ctx context.Context, requestID string) (models.RequestLoan, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error)
}

// RequestService creates and reads loan requests. The interest rate a
// request carries is pinned at creation time from the configured rate and
// never changes afterwards.
type RequestService struct {
	txRunner db.TxRunner
	users    RequestUserStore
	requests RequestLoanStore
	rate     decimal.Decimal
}

func NewRequestService(txRunner db.TxRunner, users RequestUserStore, requests RequestLoanStore, rate decimal.Decimal) *RequestService {
	return &RequestService{
		txRunner: txRunner,
		users:    users,
		requests: requests,
		rate:     rate,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, userID string, amount decimal.Decimal, amortization models.AmortizationType) (models.RequestLoan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return models.RequestLoan{}, ErrInvalidAmount
	}
	if !amortization.Valid() {
		return models.RequestLoan{}, ErrInvalidAmortization
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return models.RequestLoan{}, err
	}
	if !exists {
		return models.RequestLoan{}, ErrUserNotFound
	}
	pending, err := s.requests.HasPending(ctx, userID)
	if err != nil {
		return models.RequestLoan{}, err
	}
	if pending {
		return models.RequestLoan{}, ErrPendingRequest
	}
	request := models.RequestLoan{
		ID:               uuid.NewString(),
		UserID:           userID,
		Amount:           amount,
		InterestRate:     s.rate,
		AmortizationType: amortization,
		Approval:         false,
		DateRequested:    time.Now().UTC(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.requests.Create(ctx, tx, store.RequestLoanInput{
			ID:               request.ID,
			UserID:           request.UserID,
			Amount:           request.Amount,
			InterestRate:     request.InterestRate,
			AmortizationType: request.AmortizationType,
			DateRequested:    request.DateRequested,
		})
	})
	if err != nil {
		return models.RequestLoan{}, err
	}
	return request, nil
}

func (s *RequestService) GetRequest(ctx context.Context, requestID string) (models.RequestLoan, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RequestLoan{}, ErrRequestNotFound
		}
		return models.RequestLoan{}, err
	}
	return request, nil
}

func (s *RequestService) ListRequests(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error) {
	return s.requests.ListByUser(ctx, userID, limit, offset)
}
