package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/enrich"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Message Message
	Parsed  *smsparser.ParsedTransaction
	Outcome smsparser.Outcome
	Expense *domain.Expense
	Halted  bool
}

// ParseStep runs the extraction core. A rejected message halts the pipeline
// without an error.
type ParseStep struct{}

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	tx, outcome := smsparser.Evaluate(state.Message.Body)
	state.Outcome = outcome
	if outcome != smsparser.OutcomeParsed {
		state.Halted = true
		return nil
	}
	state.Parsed = tx
	return nil
}

// EnrichStep lets an enricher refine the category. Failures are logged and
// the heuristic category is kept.
type EnrichStep struct {
	Enricher enrich.CategoryEnricher
}

func (s *EnrichStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Enricher == nil || state.Parsed == nil {
		return nil
	}
	category, err := s.Enricher.Enrich(ctx, state.Parsed)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("counterparty", state.Parsed.Counterparty).Msg("Category enrichment failed, keeping heuristic category")
		return nil
	}
	if category != state.Parsed.Category {
		enriched := *state.Parsed
		enriched.Category = category
		state.Parsed = &enriched
	}
	return nil
}

// BuildExpenseStep attaches the capture timestamp and a new ID.
type BuildExpenseStep struct {
	Now   func() time.Time
	NewID func() string
}

func (s *BuildExpenseStep) Execute(ctx context.Context, state *PipelineState) error {
	capturedAt := state.Message.ReceivedAt
	if capturedAt.IsZero() {
		capturedAt = s.Now()
	}
	sender := state.Message.Sender
	if sender == "" {
		sender = DefaultSender
	}

	exp := domain.NewExpenseFromParsed(state.Parsed, sender, capturedAt)
	exp.ID = s.NewID()
	state.Expense = exp
	return nil
}

// StoreExpenseStep persists the expense.
type StoreExpenseStep struct {
	Repo store.ExpenseRepository
}

func (s *StoreExpenseStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.InsertExpense(ctx, state.Expense); err != nil {
		return fmt.Errorf("storing expense: %w", err)
	}
	return nil
}

// ArchiveStep copies the stored expense to the archive, best effort.
type ArchiveStep struct {
	Archiver Archiver
}

func (s *ArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archiver == nil {
		return nil
	}
	if err := s.Archiver.ArchiveExpense(ctx, state.Expense); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("expense_id", state.Expense.ID).Msg("Archiving expense failed")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs steps sequentially until one fails or halts the pipeline.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
		if state.Halted {
			return nil
		}
	}
	return nil
}
