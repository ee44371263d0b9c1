package store

import (
	"context"
	"time"

	"microloan/internal/models"

	"github.com/shopspring/decimal"
)

type RequestLoanStore struct {
	db DB
}

func NewRequestLoanStore(db DB) *RequestLoanStore {
	return &RequestLoanStore{db: db}
}

type RequestLoanInput struct {
	ID               string
	UserID           string
	Amount           decimal.Decimal
	InterestRate     decimal.Decimal
	AmortizationType models.AmortizationType
	DateRequested    time.Time
}

func (s *RequestLoanStore) Create(ctx context.Context, tx Execer, input RequestLoanInput) error {
	query := `
		INSERT INTO request_loans (id, user_id, amount, interest_rate, amortization_type, approval, date_requested)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Amount, input.InterestRate,
		string(input.AmortizationType), input.DateRequested,
	)
	return err
}

func (s *RequestLoanStore) GetByID(ctx context.Context, requestID string) (models.RequestLoan, error) {
	var row models.RequestLoan
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, amount, interest_rate, amortization_type, approval, date_requested
		FROM request_loans
		WHERE id = $1
	`, requestID)
	if err != nil {
		return models.RequestLoan{}, err
	}
	return row, nil
}

// GetForUpdate locks the request row for the rest of the transaction so
// two concurrent approvals of the same request serialize.
func (s *RequestLoanStore) GetForUpdate(ctx context.Context, tx Getter, requestID string) (models.RequestLoan, error) {
	var row models.RequestLoan
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, interest_rate, amortization_type, approval, date_requested
		FROM request_loans
		WHERE id = $1
		FOR UPDATE
	`, requestID)
	if err != nil {
		return models.RequestLoan{}, err
	}
	return row, nil
}

// HasPending reports whether the user already owns an unapproved request.
func (s *RequestLoanStore) HasPending(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM request_loans WHERE user_id = $1 AND approval = FALSE)
	`, userID)
	return exists, err
}

func (s *RequestLoanStore) Approve(ctx context.Context, tx Execer, requestID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE request_loans
		SET approval = TRUE
		WHERE id = $1
	`, requestID)
	return err
}

func (s *RequestLoanStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error) {
	var rows []models.RequestLoan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, interest_rate, amortization_type, approval, date_requested
		FROM request_loans
		WHERE user_id = $1
		ORDER BY date_requested DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
