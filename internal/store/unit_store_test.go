package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"propsales/internal/models"
)

func TestReserveIfAvailableConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Now().Add(21 * 24 * time.Hour)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE units") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "status = $4") {
				t.Fatalf("expected status guard in query: %s", query)
			}
			if len(args) != 4 {
				t.Fatalf("unexpected args: %#v", args)
			}
			if args[0] != models.UnitReserved || args[3] != models.UnitAvailable {
				t.Fatalf("unexpected status args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUnitStore(stubDB{})
	rows, err := store.ReserveIfAvailable(ctx, execer, "unit-1", expiresAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestReserveIfAvailableLoserGetsZeroRows(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(context.Context, string, ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewUnitStore(stubDB{})
	rows, err := store.ReserveIfAvailable(ctx, execer, "unit-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows, got %d", rows)
	}
}

func TestGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock in query: %s", query)
			}
			unit := dest.(*models.Unit)
			unit.ID = args[0].(string)
			unit.Status = models.UnitAvailable
			return nil
		},
	}
	store := NewUnitStore(stubDB{})
	unit, err := store.GetForUpdate(ctx, getter, "unit-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.ID != "unit-1" {
		t.Fatalf("unexpected unit: %#v", unit)
	}
}
