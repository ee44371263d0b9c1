package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"microloan/internal/models"

	"github.com/shopspring/decimal"
)

func TestLoanBalanceStoreCreate(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO loan_balances") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 {
				t.Fatalf("expected 5 args, got %d", len(args))
			}
			if args[0] != "bal-1" || args[1] != "user-1" || args[4] != updated {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLoanBalanceStore(stubDB{})
	err := store.Create(ctx, execer, LoanBalanceInput{
		ID:          "bal-1",
		UserID:      "user-1",
		TotalLoan:   decimal.RequireFromString("1050.00"),
		TotalPaid:   decimal.Zero,
		LastUpdated: updated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoanBalanceStoreGetByUser(t *testing.T) {
	ctx := context.Background()
	store := NewLoanBalanceStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM loan_balances") || !strings.Contains(query, "WHERE user_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.LoanBalance) = models.LoanBalance{ID: "bal-1", UserID: "user-1"}
			return nil
		},
	})
	row, err := store.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "bal-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestLoanBalanceStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected a locking read: %s", query)
			}
			*dest.(*models.LoanBalance) = models.LoanBalance{ID: "bal-1"}
			return nil
		},
	}
	store := NewLoanBalanceStore(stubDB{})
	row, err := store.GetForUpdate(ctx, getter, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "bal-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestLoanBalanceStoreUpdateTotals(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET total_loan = $1, total_paid = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 4 || args[2] != updated || args[3] != "bal-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewLoanBalanceStore(stubDB{})
	err := store.UpdateTotals(ctx, execer, "bal-1", decimal.RequireFromString("1050.00"), decimal.RequireFromString("500.00"), updated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
