package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"microloan/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	ctx := context.Background()
	phone := "+2348012345678"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 {
				t.Fatalf("expected 5 args, got %d", len(args))
			}
			if args[0] != "user-1" || args[1] != "Ada Obi" || args[2] != "ada@example.com" {
				t.Fatalf("unexpected args: %#v", args)
			}
			ptr, ok := args[4].(*string)
			if !ok || ptr == nil || *ptr != phone {
				t.Fatalf("unexpected phone arg: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.Create(ctx, execer, "user-1", "Ada Obi", "ada@example.com", "hash", &phone); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE email = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "ada@example.com" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.User) = models.User{ID: "user-1", Email: "ada@example.com"}
			return nil
		},
	})
	row, err := store.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "user-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestUserStoreExists(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SELECT EXISTS") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*bool) = true
			return nil
		},
	})
	exists, err := store.Exists(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("expected user to exist")
	}
}

func TestUserStoreSetActiveLoan(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET active_loan = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != true || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.SetActiveLoan(ctx, execer, "user-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreSetAdmin(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET is_admin = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != true || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.SetAdmin(ctx, execer, "user-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreHasAnyAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "is_admin = TRUE") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*bool) = false
			return nil
		},
	})
	hasAdmin, err := store.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasAdmin {
		t.Fatalf("expected no admin")
	}
}

func TestUserStoreIsAdmin(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SELECT is_admin") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*bool) = true
			return nil
		},
	})
	isAdmin, err := store.IsAdmin(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isAdmin {
		t.Fatalf("expected admin")
	}
}
