package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/shopspring/decimal"
)

// Repository is an in-memory ExpenseRepository.
// It is safe for concurrent use; data is lost on restart.
type Repository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.Expense
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		expenses: make(map[string]*domain.Expense),
	}
}

// InsertExpense implements store.ExpenseRepository.
func (r *Repository) InsertExpense(ctx context.Context, exp *domain.Expense) error {
	if exp.ID == "" {
		return fmt.Errorf("InsertExpense: expense ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.expenses[exp.ID]; exists {
		return fmt.Errorf("InsertExpense: expense %s already exists", exp.ID)
	}
	cp := *exp
	r.expenses[exp.ID] = &cp
	return nil
}

// UpdateExpense implements store.ExpenseRepository.
func (r *Repository) UpdateExpense(ctx context.Context, exp *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.expenses[exp.ID]; !exists {
		return fmt.Errorf("UpdateExpense %s: %w", exp.ID, store.ErrNotFound)
	}
	cp := *exp
	r.expenses[exp.ID] = &cp
	return nil
}

// DeleteExpense implements store.ExpenseRepository.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.expenses[id]; !exists {
		return fmt.Errorf("DeleteExpense %s: %w", id, store.ErrNotFound)
	}
	delete(r.expenses, id)
	return nil
}

// GetExpense implements store.ExpenseRepository.
func (r *Repository) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, exists := r.expenses[id]
	if !exists {
		return nil, fmt.Errorf("GetExpense %s: %w", id, store.ErrNotFound)
	}
	cp := *exp
	return &cp, nil
}

// ListExpenses implements store.ExpenseRepository.
func (r *Repository) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	r.mu.RLock()
	result := make([]*domain.Expense, 0, len(r.expenses))
	for _, exp := range r.expenses {
		if !filter.Matches(exp.Timestamp) {
			continue
		}
		cp := *exp
		result = append(result, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// TotalSpent implements store.ExpenseRepository.
func (r *Repository) TotalSpent(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter := domain.ExpenseFilter{Start: start, End: end}
	total := decimal.Zero
	for _, exp := range r.expenses {
		if filter.Matches(exp.Timestamp) {
			total = total.Add(exp.Amount)
		}
	}
	return total, nil
}

// Close implements store.ExpenseRepository.
func (r *Repository) Close() error {
	return nil
}

var _ store.ExpenseRepository = (*Repository)(nil)
