package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/app"
	"github.com/dvloznov/sms-expense-tracker/internal/config"
	"github.com/dvloznov/sms-expense-tracker/internal/gcsimport"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
)

// The worker drains a JSON-lines SMS export from GCS through the job queue,
// so each message gets retries independently.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	gcsURI := flag.String("gcs-uri", "", "GCS URI of a JSON-lines SMS export (gs://bucket/object)")
	workers := flag.Int("workers", cfg.Worker.Count, "Number of concurrent workers")
	flag.Parse()
	cfg.Worker.Count = *workers

	log := logger.NewWithLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer components.Close()

	storage, err := components.Storage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	msgs, err := gcsimport.FetchMessages(ctx, storage, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch SMS export")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(components.QueueConfig(), jobStore)

	log.Info().Int("messages", len(msgs)).Int("workers", cfg.Worker.Count).Msg("Starting worker service")
	if err := jobQueue.Start(ctx, jobs.NewParseMessageHandler(components.Ingest)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	published := make(chan int, 1)
	go func() {
		published <- publishAll(ctx, jobQueue, msgs)
	}()

	// Wait for the export to drain or an interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	expected := -1
wait:
	for {
		select {
		case <-quit:
			log.Info().Msg("Interrupted, shutting down worker service...")
			break wait
		case n := <-published:
			expected = n
			if n < len(msgs) {
				log.Warn().Int("published", n).Int("messages", len(msgs)).Msg("Not every message was enqueued")
			}
		case <-ticker.C:
			if expected >= 0 && drained(ctx, jobStore, expected) {
				break wait
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	completed, _ := jobStore.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	failed, _ := jobStore.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	log.Info().Int("completed", len(completed)).Int("failed", len(failed)).Msg("Worker service exited")
}

// publishAll enqueues msgs in order and returns how many were accepted.
// It stops at the first publish error.
func publishAll(ctx context.Context, publisher jobs.Publisher, msgs []pipeline.Message) int {
	log := logger.FromContext(ctx)
	for i, msg := range msgs {
		job := &jobs.ParseMessageJob{Sender: msg.Sender, Body: msg.Body, ReceivedAt: msg.ReceivedAt}
		if err := publisher.PublishParseMessage(ctx, job); err != nil {
			log.Error().Err(err).Int("index", i).Msg("Failed to enqueue message")
			return i
		}
	}
	return len(msgs)
}

// drained reports whether every expected job reached a terminal state.
func drained(ctx context.Context, store jobs.JobStore, expected int) bool {
	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil || len(all) < expected {
		return false
	}
	for _, j := range all {
		if j.Status != jobs.JobStatusCompleted && j.Status != jobs.JobStatusFailed {
			return false
		}
	}
	return true
}
