// Package app builds the collaborators shared by the binaries from config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/sms-expense-tracker/internal/config"
	"github.com/dvloznov/sms-expense-tracker/internal/enrich"
	"github.com/dvloznov/sms-expense-tracker/internal/gcsimport"
	infraBQ "github.com/dvloznov/sms-expense-tracker/internal/infra/bigquery"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/dvloznov/sms-expense-tracker/internal/store/memory"
	"github.com/dvloznov/sms-expense-tracker/internal/store/postgres"
	"github.com/rs/zerolog"
)

// ErrStorageNotConfigured is returned by Storage when GCS is unavailable.
var ErrStorageNotConfigured = errors.New("GCS storage is not configured")

// Components holds the wired collaborators. Archive is nil when BigQuery
// archiving is off.
type Components struct {
	Config   config.Config
	Log      zerolog.Logger
	Expenses store.ExpenseRepository
	Enricher enrich.CategoryEnricher
	Archive  infraBQ.ArchiveRepository
	Ingest   *pipeline.Service

	storage *gcsimport.GCSStorageService
	closers []func() error
}

// Build wires the expense store, the optional enricher and archive, and the
// ingestion service.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Components, error) {
	ctx = logger.WithContext(ctx, log)
	c := &Components{Config: cfg, Log: log}

	repo, err := openExpenses(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	c.Expenses = repo
	c.closers = append(c.closers, repo.Close)

	c.Enricher = enrich.Noop{}
	if cfg.Gemini.Enabled {
		gemini, err := enrich.NewGeminiEnricher(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		c.Enricher = gemini
		log.Info().Str("model", cfg.Gemini.Model).Msg("Gemini category enrichment enabled")
	}

	var archiver pipeline.Archiver
	if cfg.ArchiveEnabled() {
		archive, err := infraBQ.NewBigQueryArchiveRepository(ctx, cfg.GCPProject, cfg.BigQueryDataset, cfg.CredentialsFile)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		c.Archive = archive
		c.closers = append(c.closers, archive.Close)
		archiver = archive
		log.Info().Str("dataset", cfg.BigQueryDataset).Msg("BigQuery archive enabled")
	}

	c.Ingest = pipeline.NewService(c.Expenses, c.Enricher, archiver)
	return c, nil
}

func openExpenses(ctx context.Context, cfg config.Config) (store.ExpenseRepository, error) {
	if cfg.DatabaseURL == "" {
		log := logger.FromContext(ctx)
		log.Warn().Msg("DATABASE_URL not set, expenses are kept in memory")
		return memory.NewRepository(), nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening expense store: %w", err)
	}
	return postgres.NewRepository(db), nil
}

// Storage lazily creates the GCS client.
func (c *Components) Storage(ctx context.Context) (gcsimport.StorageService, error) {
	if c.storage != nil {
		return c.storage, nil
	}
	if c.Config.GCPProject == "" && c.Config.GCSBucket == "" && c.Config.CredentialsFile == "" {
		return nil, ErrStorageNotConfigured
	}

	svc, err := gcsimport.NewGCSStorageService(ctx, c.Config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("Storage: %w", err)
	}
	c.storage = svc
	c.closers = append(c.closers, svc.Close)
	return svc, nil
}

// QueueConfig maps worker settings onto the in-memory queue.
func (c *Components) QueueConfig() inmemory.QueueConfig {
	qc := inmemory.DefaultQueueConfig()
	qc.BufferSize = c.Config.Worker.QueueBuffer
	qc.WorkerCount = c.Config.Worker.Count
	qc.MaxRetries = c.Config.Worker.MaxRetries
	return qc
}

// Close releases everything Build and Storage opened, newest first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
