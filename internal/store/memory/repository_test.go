package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/shopspring/decimal"
)

func seed(t *testing.T, r *Repository) time.Time {
	t.Helper()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []*domain.Expense{
		{ID: "a", Amount: decimal.RequireFromString("100.50"), Merchant: "Zomato", Category: "Food", Timestamp: base.AddDate(0, 0, 1)},
		{ID: "b", Amount: decimal.RequireFromString("200"), Merchant: "Uber", Category: "Transport", Timestamp: base.AddDate(0, 0, 5)},
		{ID: "c", Amount: decimal.RequireFromString("50"), Merchant: "Jio", Category: "Bills", Timestamp: base.AddDate(0, 1, 0)},
	}
	for _, row := range rows {
		if err := r.InsertExpense(context.Background(), row); err != nil {
			t.Fatalf("InsertExpense(%s): %v", row.ID, err)
		}
	}
	return base
}

func TestRepository_ListOrderAndFilter(t *testing.T) {
	r := NewRepository()
	base := seed(t, r)
	ctx := context.Background()

	all, err := r.ListExpenses(ctx, domain.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("expected newest first [c b a], got %v", ids(all))
	}

	march, err := r.ListExpenses(ctx, domain.ExpenseFilter{Start: base, End: base.AddDate(0, 1, 0)})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(march) != 2 {
		t.Errorf("expected 2 expenses in March, got %v", ids(march))
	}

	limited, _ := r.ListExpenses(ctx, domain.ExpenseFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}
}

func TestRepository_TotalSpent(t *testing.T) {
	r := NewRepository()
	base := seed(t, r)

	total, err := r.TotalSpent(context.Background(), base, base.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("TotalSpent: %v", err)
	}
	if want := decimal.RequireFromString("300.50"); !total.Equal(want) {
		t.Errorf("TotalSpent = %s, want %s", total, want)
	}
}

func TestRepository_TotalSpentOpenBounds(t *testing.T) {
	r := NewRepository()
	base := seed(t, r)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"open end", base.AddDate(0, 0, 2), time.Time{}, "250"},
		{"open start", time.Time{}, base.AddDate(0, 0, 2), "100.50"},
		{"unbounded", time.Time{}, time.Time{}, "350.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := r.TotalSpent(ctx, tt.start, tt.end)
			if err != nil {
				t.Fatalf("TotalSpent: %v", err)
			}
			if want := decimal.RequireFromString(tt.want); !total.Equal(want) {
				t.Errorf("TotalSpent = %s, want %s", total, want)
			}
		})
	}
}

func TestRepository_UpdateDeleteGet(t *testing.T) {
	r := NewRepository()
	seed(t, r)
	ctx := context.Background()

	exp, err := r.GetExpense(ctx, "a")
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	exp.Category = "General"
	if err := r.UpdateExpense(ctx, exp); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, _ := r.GetExpense(ctx, "a")
	if got.Category != "General" {
		t.Errorf("Category = %q, want General", got.Category)
	}

	if err := r.DeleteExpense(ctx, "a"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := r.GetExpense(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetExpense after delete: err = %v, want ErrNotFound", err)
	}
	if err := r.DeleteExpense(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteExpense: err = %v, want ErrNotFound", err)
	}
	if err := r.UpdateExpense(ctx, &domain.Expense{ID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateExpense missing: err = %v, want ErrNotFound", err)
	}
}

func TestRepository_InsertValidation(t *testing.T) {
	r := NewRepository()
	ctx := context.Background()

	if err := r.InsertExpense(ctx, &domain.Expense{}); err == nil {
		t.Error("expected error for empty ID")
	}
	if err := r.InsertExpense(ctx, &domain.Expense{ID: "x"}); err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}
	if err := r.InsertExpense(ctx, &domain.Expense{ID: "x"}); err == nil {
		t.Error("expected error for duplicate ID")
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	r := NewRepository()
	seed(t, r)
	ctx := context.Background()

	exp, _ := r.GetExpense(ctx, "b")
	exp.Merchant = "mutated"

	again, _ := r.GetExpense(ctx, "b")
	if again.Merchant != "Uber" {
		t.Errorf("stored expense was mutated through returned pointer")
	}
}

func ids(list []*domain.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}
