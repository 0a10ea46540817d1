package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/sms-expense-tracker/internal/config"
	"github.com/dvloznov/sms-expense-tracker/internal/enrich"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
	"github.com/dvloznov/sms-expense-tracker/internal/store/memory"
	"github.com/rs/zerolog"
)

func TestBuild_Defaults(t *testing.T) {
	c, err := Build(context.Background(), config.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Expenses.(*memory.Repository); !ok {
		t.Errorf("Expenses = %T, want in-memory repository", c.Expenses)
	}
	if _, ok := c.Enricher.(enrich.Noop); !ok {
		t.Errorf("Enricher = %T, want Noop", c.Enricher)
	}
	if c.Archive != nil {
		t.Error("Archive should be nil without GCP settings")
	}

	res, err := c.Ingest.IngestMessage(context.Background(), pipeline.Message{Body: "Rs. 1000 sent to Ramesh for Rent"})
	if err != nil {
		t.Fatalf("IngestMessage() error = %v", err)
	}
	if res.Expense == nil || res.Expense.Merchant != "Ramesh" {
		t.Errorf("result = %+v", res)
	}
}

func TestStorage_NotConfigured(t *testing.T) {
	c, err := Build(context.Background(), config.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	if _, err := c.Storage(context.Background()); !errors.Is(err, ErrStorageNotConfigured) {
		t.Errorf("Storage() error = %v, want ErrStorageNotConfigured", err)
	}
}

func TestQueueConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Worker.Count = 7
	cfg.Worker.QueueBuffer = 42
	cfg.Worker.MaxRetries = 0

	c := &Components{Config: cfg}
	qc := c.QueueConfig()
	if qc.WorkerCount != 7 || qc.BufferSize != 42 || qc.MaxRetries != 0 {
		t.Errorf("QueueConfig() = %+v", qc)
	}
	if qc.RetryBackoff <= 0 {
		t.Errorf("RetryBackoff = %v, want positive", qc.RetryBackoff)
	}
}
