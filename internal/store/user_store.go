package store

import (
	"context"

	"microloan/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, fullName, email, passwordHash string, phoneNumber *string) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, phone_number)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, fullName, email, passwordHash, phoneNumber)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, full_name, email, password_hash, is_admin, active_loan, phone_number, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, full_name, email, password_hash, is_admin, active_loan, phone_number, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID)
	return exists, err
}

func (s *UserStore) SetActiveLoan(ctx context.Context, tx Execer, userID string, active bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET active_loan = $1
		WHERE id = $2
	`, active, userID)
	return err
}

func (s *UserStore) SetAdmin(ctx context.Context, tx Execer, userID string, isAdmin bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_admin = $1
		WHERE id = $2
	`, isAdmin, userID)
	return err
}

func (s *UserStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM users WHERE is_admin = TRUE)
	`)
	return exists, err
}

func (s *UserStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := s.db.GetContext(ctx, &isAdmin, `
		SELECT is_admin
		FROM users
		WHERE id = $1
	`, userID)
	return isAdmin, err
}
