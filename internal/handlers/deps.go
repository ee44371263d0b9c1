package handlers

import (
	"context"
	"time"

	"microloan/internal/models"
	"microloan/internal/services"
	"microloan/internal/store"

	"github.com/shopspring/decimal"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, fullName, email, passwordHash string, phoneNumber *string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	SetAdmin(ctx context.Context, tx store.Execer, userID string, isAdmin bool) error
	HasAnyAdmin(ctx context.Context) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type LoanStore interface {
	GetByIDForUser(ctx context.Context, loanID, userID string) (models.Loan, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Loan, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

type RepaymentReader interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Repayment, error)
	ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]models.Repayment, error)
}

type AuditReader interface {
	List(ctx context.Context, limit, offset int) ([]store.AuditLog, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, userID string, amount decimal.Decimal, amortization models.AmortizationType) (models.RequestLoan, error)
	GetRequest(ctx context.Context, requestID string) (models.RequestLoan, error)
	ListRequests(ctx context.Context, userID string, limit, offset int) ([]models.RequestLoan, error)
}

type ApprovalService interface {
	ApproveRequest(ctx context.Context, adminID, requestID string, approve bool) (services.ApprovalResult, error)
}

type RepaymentService interface {
	InitiateRepayment(ctx context.Context, userID string, amount decimal.Decimal) (models.Repayment, string, error)
	ConfirmRepayment(ctx context.Context, reference string) (services.ConfirmOutcome, error)
	GetBalance(ctx context.Context, userID string) (models.LoanBalance, error)
}
