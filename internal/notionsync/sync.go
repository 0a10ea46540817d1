// Package notionsync mirrors stored expenses into a Notion database.
package notionsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/jomei/notionapi"
)

// queryPageSize is the Notion maximum page size for database queries.
const queryPageSize = 100

// SyncOptions controls a sync run.
type SyncOptions struct {
	// DryRun logs intended changes without calling Notion write endpoints.
	DryRun bool
	// UpdateExisting rewrites pages whose expense already exists in Notion.
	UpdateExisting bool
	// Prune archives pages whose expense has been deleted from the store.
	// Pages without an Expense ID are never touched.
	Prune bool
}

// SyncResult counts what a sync run did.
type SyncResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// SyncExpenses mirrors expenses with startDate <= timestamp < endDate into the
// Notion database. Pages are matched by their Expense ID property. Individual
// page failures are logged and counted without aborting the run.
func SyncExpenses(ctx context.Context, repo ExpenseReader, notionClient NotionService, notionDBID string, startDate, endDate time.Time, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var result SyncResult

	log.Info().
		Time("start_date", startDate).
		Time("end_date", endDate).
		Bool("dry_run", opts.DryRun).
		Msg("Starting expense sync to Notion")

	expenses, err := repo.ListExpenses(ctx, domain.ExpenseFilter{Start: startDate, End: endDate})
	if err != nil {
		return result, fmt.Errorf("SyncExpenses: listing expenses: %w", err)
	}
	log.Info().Int("expense_count", len(expenses)).Msg("Retrieved expenses from store")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return result, fmt.Errorf("SyncExpenses: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := extractExpenseID(page); id != "" {
			existing[id] = string(page.ID)
		}
	}

	valid := make(map[string]bool, len(expenses))
	for _, exp := range expenses {
		valid[exp.ID] = true

		pageID, found := existing[exp.ID]
		if found && !opts.UpdateExisting {
			result.Skipped++
			continue
		}

		if opts.DryRun {
			if found {
				log.Info().Str("expense_id", exp.ID).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				result.Updated++
			} else {
				log.Info().Str("expense_id", exp.ID).Msg("[DRY RUN] Would create Notion page")
				result.Created++
			}
			continue
		}

		props := ExpenseToNotionProperties(exp)
		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("expense_id", exp.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				result.Failed++
				continue
			}
			result.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().Err(err).Str("expense_id", exp.ID).Msg("Failed to create Notion page")
			result.Failed++
			continue
		}
		log.Debug().Str("expense_id", exp.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		result.Created++
	}

	if opts.Prune {
		for _, page := range pages {
			id := extractExpenseID(page)
			if id == "" || valid[id] {
				continue
			}
			stale, err := expenseDeleted(ctx, repo, id)
			if err != nil {
				log.Warn().Err(err).Str("expense_id", id).Str("page_id", string(page.ID)).Msg("Failed to check expense for Notion page")
				result.Failed++
				continue
			}
			if !stale {
				continue
			}
			if opts.DryRun {
				log.Info().Str("expense_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				result.Archived++
				continue
			}
			if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("expense_id", id).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				result.Failed++
				continue
			}
			result.Archived++
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("archived", result.Archived).
		Int("failed", result.Failed).
		Msg("Expense sync completed")

	return result, nil
}

// expenseDeleted reports whether id is missing from the whole store, not
// just from the synced window.
func expenseDeleted(ctx context.Context, repo ExpenseReader, id string) (bool, error) {
	_, err := repo.GetExpense(ctx, id)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, store.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("expenseDeleted: %w", err)
	}
}

// queryAllNotionPages follows the query cursor until every page is read.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: queryPageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
