package pipeline

import (
	"context"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
)

// Archiver copies stored expenses to a secondary sink such as BigQuery.
// Archive failures never fail ingestion.
type Archiver interface {
	ArchiveExpense(ctx context.Context, exp *domain.Expense) error
}
