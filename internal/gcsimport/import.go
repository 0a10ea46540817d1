package gcsimport

import (
	"context"
	"fmt"

	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
)

// BatchIngester is the part of pipeline.Service used by imports.
type BatchIngester interface {
	IngestBatch(ctx context.Context, msgs []pipeline.Message) ([]pipeline.Result, pipeline.BatchSummary, error)
}

// FetchMessages downloads and decodes a JSON-lines export.
func FetchMessages(ctx context.Context, storage StorageService, gcsURI string) ([]pipeline.Message, error) {
	data, err := storage.Fetch(ctx, gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchMessages: %w", err)
	}

	msgs, err := DecodeMessages(data)
	if err != nil {
		return nil, fmt.Errorf("FetchMessages: %s: %w", ExtractFilenameFromGCSURI(gcsURI), err)
	}
	return msgs, nil
}

// ImportFromGCS downloads an export and ingests every message in it.
func ImportFromGCS(ctx context.Context, storage StorageService, ingester BatchIngester, gcsURI string) (pipeline.BatchSummary, error) {
	log := logger.FromContext(ctx)

	msgs, err := FetchMessages(ctx, storage, gcsURI)
	if err != nil {
		return pipeline.BatchSummary{}, fmt.Errorf("ImportFromGCS: %w", err)
	}
	log.Info().Str("gcs_uri", gcsURI).Int("messages", len(msgs)).Msg("Fetched SMS export")

	_, summary, err := ingester.IngestBatch(ctx, msgs)
	if err != nil {
		return summary, fmt.Errorf("ImportFromGCS: %w", err)
	}
	return summary, nil
}
