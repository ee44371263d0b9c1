package store

import (
	"context"
	"time"

	"microloan/internal/models"

	"github.com/shopspring/decimal"
)

type LoanStore struct {
	db DB
}

func NewLoanStore(db DB) *LoanStore {
	return &LoanStore{db: db}
}

type LoanInput struct {
	ID            string
	UserID        string
	RequestLoanID string
	Amount        decimal.Decimal
	StartAt       time.Time
}

func (s *LoanStore) Create(ctx context.Context, tx Execer, input LoanInput) error {
	query := `
		INSERT INTO loans (id, user_id, request_loan_id, amount, paid_off, start_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.RequestLoanID, input.Amount, input.StartAt)
	return err
}

// GetByIDForUser scopes the read to the owner so a user cannot fetch
// another user's loan.
func (s *LoanStore) GetByIDForUser(ctx context.Context, loanID, userID string) (models.Loan, error) {
	var row models.Loan
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, request_loan_id, amount, paid_off, start_at
		FROM loans
		WHERE id = $1 AND user_id = $2
	`, loanID, userID)
	if err != nil {
		return models.Loan{}, err
	}
	return row, nil
}

func (s *LoanStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Loan, error) {
	var rows []models.Loan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, request_loan_id, amount, paid_off, start_at
		FROM loans
		WHERE user_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM loans
		WHERE user_id = $1
	`, userID)
	return count, err
}

// MarkAllPaidOff flips every open loan of the user to paid off and
// reports how many loans were swept.
func (s *LoanStore) MarkAllPaidOff(ctx context.Context, tx Execer, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET paid_off = TRUE
		WHERE user_id = $1 AND paid_off = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
