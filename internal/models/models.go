package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	ActiveLoan   bool      `db:"active_loan" json:"active_loan"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AmortizationType is the declared repayment cadence on a loan request.
// It is recorded on the request but does not feed interest computation.
type AmortizationType string

const (
	AmortizationDaily   AmortizationType = "DAILY"
	AmortizationWeekly  AmortizationType = "WEEKLY"
	AmortizationMonthly AmortizationType = "MONTHLY"
	AmortizationYearly  AmortizationType = "YEARLY"
)

func (a AmortizationType) Valid() bool {
	switch a {
	case AmortizationDaily, AmortizationWeekly, AmortizationMonthly, AmortizationYearly:
		return true
	}
	return false
}

type RequestLoan struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	Amount           decimal.Decimal  `db:"amount" json:"amount"`
	InterestRate     decimal.Decimal  `db:"interest_rate" json:"interest_rate"`
	AmortizationType AmortizationType `db:"amortization_type" json:"amortization_type"`
	Approval         bool             `db:"approval" json:"approval"`
	DateRequested    time.Time        `db:"date_requested" json:"date_requested"`
}

type Loan struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	RequestLoanID string          `db:"request_loan_id" json:"request_loan_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaidOff       bool            `db:"paid_off" json:"paid_off"`
	StartAt       time.Time       `db:"start_at" json:"start_at"`
}

// LoanBalance is the per-user aggregate ledger. TotalLoan accumulates
// principal plus interest for every disbursement; TotalPaid accumulates
// confirmed repayments. Exactly one row exists per user.
type LoanBalance struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	TotalLoan   decimal.Decimal `db:"total_loan" json:"total_loan"`
	TotalPaid   decimal.Decimal `db:"total_paid" json:"total_paid"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
}

func (b LoanBalance) Outstanding() decimal.Decimal {
	return b.TotalLoan.Sub(b.TotalPaid)
}

type Repayment struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	RepayAmount decimal.Decimal `db:"repay_amount" json:"repay_amount"`
	IsApproved  bool            `db:"is_approved" json:"is_approved"`
	PaidAt      time.Time       `db:"paid_at" json:"paid_at"`
}
