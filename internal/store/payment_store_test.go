package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"propsales/internal/models"
)

func TestPaymentInsert(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO payments") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[2] != "DEP-RES-1-ABCDEFGH" {
				t.Fatalf("unexpected reference: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPaymentStore(stubDB{})
	err := store.Insert(ctx, execer, models.Payment{
		ID:        "p1",
		SaleID:    "s1",
		Reference: "DEP-RES-1-ABCDEFGH",
		Amount:    3070000,
		Status:    models.PaymentPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFailPendingBySale(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE payments") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "status = $4") {
				t.Fatalf("expected pending guard in query: %s", query)
			}
			if args[3] != models.PaymentPending {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 2}, nil
		},
	}
	store := NewPaymentStore(stubDB{})
	failed, err := store.FailPendingBySale(ctx, execer, "s1", "sale cancelled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed != 2 {
		t.Fatalf("expected 2 failed payments, got %d", failed)
	}
}
