package services

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrRequestNotFound     = errors.New("loan request not found")
	ErrBalanceNotFound     = errors.New("loan balance not found")
	ErrRepaymentNotFound   = errors.New("repayment not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidAmortization = errors.New("invalid amortization type")
	ErrPendingRequest      = errors.New("a pending loan request already exists")
	ErrAlreadyApproved     = errors.New("loan request already approved")
	ErrLoansCleared        = errors.New("loans are cleared")
	ErrExceedsBalance      = errors.New("repayment exceeds outstanding balance")
	ErrGatewayPending      = errors.New("payment not yet confirmed by gateway")
	ErrGatewayFailure      = errors.New("payment gateway failure")
)
