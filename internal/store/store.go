package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an expense ID does not exist.
var ErrNotFound = errors.New("expense not found")

// ExpenseRepository provides an interface for expense persistence.
type ExpenseRepository interface {
	// InsertExpense stores a new expense. The ID must already be set.
	InsertExpense(ctx context.Context, exp *domain.Expense) error

	// UpdateExpense replaces the stored expense with the same ID.
	UpdateExpense(ctx context.Context, exp *domain.Expense) error

	// DeleteExpense removes an expense by ID.
	DeleteExpense(ctx context.Context, id string) error

	// GetExpense returns a single expense by ID.
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)

	// ListExpenses returns expenses matching filter, newest first.
	ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]*domain.Expense, error)

	// TotalSpent sums amounts with start <= timestamp < end. A zero start or
	// end leaves that side of the window open.
	TotalSpent(ctx context.Context, start, end time.Time) (decimal.Decimal, error)

	// Close releases underlying resources.
	Close() error
}
