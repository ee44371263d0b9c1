package store

import (
	"context"
	"time"

	"microloan/internal/models"

	"github.com/shopspring/decimal"
)

type LoanBalanceStore struct {
	db DB
}

func NewLoanBalanceStore(db DB) *LoanBalanceStore {
	return &LoanBalanceStore{db: db}
}

type LoanBalanceInput struct {
	ID          string
	UserID      string
	TotalLoan   decimal.Decimal
	TotalPaid   decimal.Decimal
	LastUpdated time.Time
}

func (s *LoanBalanceStore) Create(ctx context.Context, tx Execer, input LoanBalanceInput) error {
	query := `
		INSERT INTO loan_balances (id, user_id, total_loan, total_paid, last_updated)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.TotalLoan, input.TotalPaid, input.LastUpdated)
	return err
}

func (s *LoanBalanceStore) GetByUser(ctx context.Context, userID string) (models.LoanBalance, error) {
	var row models.LoanBalance
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, total_loan, total_paid, last_updated
		FROM loan_balances
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.LoanBalance{}, err
	}
	return row, nil
}

// GetForUpdate locks the user's ledger row. Every balance mutation goes
// through this lock so concurrent approvals and repayment confirmations
// for the same user serialize instead of losing updates.
func (s *LoanBalanceStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.LoanBalance, error) {
	var row models.LoanBalance
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, total_loan, total_paid, last_updated
		FROM loan_balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.LoanBalance{}, err
	}
	return row, nil
}

func (s *LoanBalanceStore) UpdateTotals(ctx context.Context, tx Execer, balanceID string, totalLoan, totalPaid decimal.Decimal, lastUpdated time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loan_balances
		SET total_loan = $1, total_paid = $2, last_updated = $3
		WHERE id = $4
	`, totalLoan, totalPaid, lastUpdated, balanceID)
	return err
}
