package notionsync

import (
	"context"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// ArchivePage moves a Notion page to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}

// ExpenseReader is the read side of the expense store used by the sync.
// GetExpense must return an error wrapping store.ErrNotFound for unknown IDs.
type ExpenseReader interface {
	ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]*domain.Expense, error)
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)
}
