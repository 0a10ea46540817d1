package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/enrich"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/google/uuid"
)

// Service turns incoming messages into stored expenses.
type Service struct {
	pipeline *Pipeline
}

// NewService wires the standard ingestion pipeline. enricher and archiver
// may be nil.
func NewService(repo store.ExpenseRepository, enricher enrich.CategoryEnricher, archiver Archiver) *Service {
	return newService(repo, enricher, archiver, time.Now, uuid.NewString)
}

func newService(repo store.ExpenseRepository, enricher enrich.CategoryEnricher, archiver Archiver, now func() time.Time, newID func() string) *Service {
	return &Service{
		pipeline: NewPipeline(
			&ParseStep{},
			&EnrichStep{Enricher: enricher},
			&BuildExpenseStep{Now: now, NewID: newID},
			&StoreExpenseStep{Repo: repo},
			&ArchiveStep{Archiver: archiver},
		),
	}
}

// IngestMessage parses and stores one message. Messages that are not
// transactions return a Result with their outcome and a nil error.
func (s *Service) IngestMessage(ctx context.Context, msg Message) (Result, error) {
	log := logger.FromContext(ctx)

	state := &PipelineState{Message: msg}
	if err := s.pipeline.Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("sender", msg.Sender).Msg("Message ingestion failed")
		return Result{Outcome: state.Outcome, Error: err.Error()}, fmt.Errorf("IngestMessage: %w", err)
	}

	if state.Outcome != smsparser.OutcomeParsed {
		log.Debug().
			Str("sender", msg.Sender).
			Str("outcome", string(state.Outcome)).
			Str("body", truncate(msg.Body, maxLoggedBodyLen)).
			Msg("Message skipped")
		return Result{Outcome: state.Outcome}, nil
	}

	log.Info().
		Str("expense_id", state.Expense.ID).
		Str("sender", state.Expense.Sender).
		Str("merchant", state.Expense.Merchant).
		Str("category", state.Expense.Category).
		Str("amount", state.Expense.Amount.StringFixed(2)).
		Msg("Expense saved")

	return Result{Outcome: state.Outcome, Expense: state.Expense}, nil
}

// IngestBatch ingests messages in order. A storage failure on one message
// is recorded in its Result and does not stop the batch; only context
// cancellation does.
func (s *Service) IngestBatch(ctx context.Context, msgs []Message) ([]Result, BatchSummary, error) {
	results := make([]Result, 0, len(msgs))
	var summary BatchSummary

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return results, summary, fmt.Errorf("IngestBatch: %w", err)
		}
		r, _ := s.IngestMessage(ctx, msg)
		summary.add(r)
		results = append(results, r)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("parsed", summary.Parsed).
		Int("filtered_out", summary.FilteredOut).
		Int("no_amount", summary.NoAmount).
		Int("failed", summary.Failed).
		Msg("Batch ingested")

	return results, summary, nil
}

// Preview runs only the extraction core, for dry runs.
func Preview(body string) (*smsparser.ParsedTransaction, smsparser.Outcome) {
	return smsparser.Evaluate(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
