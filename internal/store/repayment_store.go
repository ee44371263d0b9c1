package store

import (
	"context"
	"time"

	"microloan/internal/models"

	"github.com/shopspring/decimal"
)

type RepaymentStore struct {
	db DB
}

func NewRepaymentStore(db DB) *RepaymentStore {
	return &RepaymentStore{db: db}
}

type RepaymentInput struct {
	ID          string
	UserID      string
	RepayAmount decimal.Decimal
	PaidAt      time.Time
}

func (s *RepaymentStore) Create(ctx context.Context, tx Execer, input RepaymentInput) error {
	query := `
		INSERT INTO repayments (id, user_id, repay_amount, is_approved, paid_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.RepayAmount, input.PaidAt)
	return err
}

func (s *RepaymentStore) GetByID(ctx context.Context, repaymentID string) (models.Repayment, error) {
	var row models.Repayment
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, repay_amount, is_approved, paid_at
		FROM repayments
		WHERE id = $1
	`, repaymentID)
	if err != nil {
		return models.Repayment{}, err
	}
	return row, nil
}

func (s *RepaymentStore) GetForUpdate(ctx context.Context, tx Getter, repaymentID string) (models.Repayment, error) {
	var row models.Repayment
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, repay_amount, is_approved, paid_at
		FROM repayments
		WHERE id = $1
		FOR UPDATE
	`, repaymentID)
	if err != nil {
		return models.Repayment{}, err
	}
	return row, nil
}

func (s *RepaymentStore) Approve(ctx context.Context, tx Execer, repaymentID string, paidAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE repayments
		SET is_approved = TRUE, paid_at = $1
		WHERE id = $2
	`, paidAt, repaymentID)
	return err
}

// Delete compensates a repayment whose gateway initialization failed.
func (s *RepaymentStore) Delete(ctx context.Context, tx Execer, repaymentID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM repayments
		WHERE id = $1
	`, repaymentID)
	return err
}

func (s *RepaymentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Repayment, error) {
	var rows []models.Repayment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, repay_amount, is_approved, paid_at
		FROM repayments
		WHERE user_id = $1
		ORDER BY paid_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStaleInitiated returns repayments that never received gateway
// confirmation and are older than the cutoff, for operator reconciliation.
func (s *RepaymentStore) ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]models.Repayment, error) {
	var rows []models.Repayment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, repay_amount, is_approved, paid_at
		FROM repayments
		WHERE is_approved = FALSE AND paid_at < $1
		ORDER BY paid_at ASC
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
