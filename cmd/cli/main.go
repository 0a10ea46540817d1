package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/app"
	"github.com/dvloznov/sms-expense-tracker/internal/config"
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/gcsimport"
	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/notionsync"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/dvloznov/sms-expense-tracker/internal/stats"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "ingest":
		runIngest(cfg, log)
	case "import-gcs":
		runImportGCS(cfg, log)
	case "stats":
		runStats(cfg, log)
	case "sync-notion":
		runSyncNotion(cfg, log)
	case "export":
		runExport(cfg, log)
	case "archive":
		runArchive(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SMS Expense Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse        Parse a message body without storing it")
	fmt.Println("  ingest       Parse a message and store the resulting expense")
	fmt.Println("  import-gcs   Ingest a JSON-lines SMS export from GCS")
	fmt.Println("  stats        Show spending for a month by category")
	fmt.Println("  sync-notion  Mirror expenses into a Notion database")
	fmt.Println("  export       Upload expenses as CSV to GCS")
	fmt.Println("  archive      List expenses archived in BigQuery")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	body := fs.String("body", "", "Message body (reads stdin when empty)")
	fs.Parse(os.Args[2:])

	text := *body
	if text == "" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read stdin")
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		log.Fatal().Msg("Error: --body or stdin input is required")
	}

	parsed, outcome := pipeline.Preview(text)
	printJSON(log, struct {
		Outcome     smsparser.Outcome            `json:"outcome"`
		Transaction *smsparser.ParsedTransaction `json:"transaction,omitempty"`
	}{Outcome: outcome, Transaction: parsed})
}

func runIngest(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	sender := fs.String("sender", "", "Message sender address")
	body := fs.String("body", "", "Message body")
	fs.Parse(os.Args[2:])

	if *body == "" {
		log.Fatal().Msg("Error: --body is required")
	}

	ctx, cancel := commandContext(log, time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	result, err := components.Ingest.IngestMessage(ctx, pipeline.Message{
		Sender:     *sender,
		Body:       *body,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}
	printJSON(log, result)
}

func runImportGCS(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import-gcs", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of a JSON-lines SMS export (gs://bucket/object)")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := commandContext(log, 10*time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	storage, err := components.Storage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	log.Info().Str("gcs_uri", *gcsURI).Msg("Starting import")
	summary, err := gcsimport.ImportFromGCS(ctx, storage, components.Ingest, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Import completed: %d parsed, %d filtered out, %d without amount, %d failed\n",
		summary.Parsed, summary.FilteredOut, summary.NoAmount, summary.Failed)
}

func runStats(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	offset := fs.Int("month-offset", 0, "Month relative to the current one (0 = this month, -1 = last month)")
	fs.Parse(os.Args[2:])

	if *offset > 0 {
		log.Fatal().Msg("Error: --month-offset must not be positive")
	}

	ctx, cancel := commandContext(log, time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	start, end := stats.MonthWindow(time.Now(), *offset, time.Local)
	expenses, err := components.Expenses.ListExpenses(ctx, domain.ExpenseFilter{Start: start, End: end})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list expenses")
	}
	total, err := components.Expenses.TotalSpent(ctx, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute total")
	}

	fmt.Printf("%s\n", stats.MonthLabel(start))
	fmt.Printf("Total spent: %s (%d expenses)\n\n", total.StringFixed(2), len(expenses))
	for _, ct := range stats.CategoryTotals(expenses) {
		fmt.Printf("  %-16s %12s  (%d)\n", ct.Category, ct.Total.StringFixed(2), ct.Count)
	}
}

func runSyncNotion(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	startDate := fs.String("start-date", "", "First day to sync (YYYY-MM-DD, defaults to start of this month)")
	endDate := fs.String("end-date", "", "Last day to sync, inclusive (YYYY-MM-DD, defaults to today)")
	token := fs.String("token", cfg.Notion.Token, "Notion integration token (defaults to NOTION_TOKEN)")
	databaseID := fs.String("database-id", cfg.Notion.DatabaseID, "Notion database ID (defaults to NOTION_DB_ID)")
	dryRun := fs.Bool("dry-run", false, "Log intended changes without writing to Notion")
	update := fs.Bool("update", false, "Rewrite pages that already exist in Notion")
	prune := fs.Bool("prune", false, "Archive pages whose expense was deleted from the store")
	fs.Parse(os.Args[2:])

	if *token == "" || *databaseID == "" {
		log.Fatal().Msg("Error: Notion token and database ID are required")
	}

	start, end, err := parseDateRange(*startDate, *endDate, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	ctx, cancel := commandContext(log, 10*time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	log.Info().
		Str("start_date", start.Format(dateLayout)).
		Str("end_date", end.AddDate(0, 0, -1).Format(dateLayout)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	result, err := notionsync.SyncExpenses(ctx, components.Expenses, notionsync.NewNotionClient(*token), *databaseID, start, end, notionsync.SyncOptions{
		DryRun:         *dryRun,
		UpdateExisting: *update,
		Prune:          *prune,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}
	printJSON(log, result)
}

func runExport(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	bucket := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (defaults to GCS_BUCKET)")
	object := fs.String("object", "", "GCS object name (defaults to expenses_<start>_<end>.csv)")
	startDate := fs.String("start-date", "", "First day to export (YYYY-MM-DD, defaults to start of this month)")
	endDate := fs.String("end-date", "", "Last day to export, inclusive (YYYY-MM-DD, defaults to today)")
	fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket is required")
	}

	start, end, err := parseDateRange(*startDate, *endDate, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}
	name := *object
	if name == "" {
		name = fmt.Sprintf("expenses_%s_%s.csv", start.Format(dateLayout), end.AddDate(0, 0, -1).Format(dateLayout))
	}

	ctx, cancel := commandContext(log, 5*time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	storage, err := components.Storage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	expenses, err := components.Expenses.ListExpenses(ctx, domain.ExpenseFilter{Start: start, End: end})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list expenses")
	}

	uri, err := gcsimport.UploadExport(ctx, storage, *bucket, name, expenses)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d expenses to %s\n", len(expenses), uri)
}

func runArchive(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	startDate := fs.String("start-date", "", "First day to read (YYYY-MM-DD, defaults to start of this month)")
	endDate := fs.String("end-date", "", "Last day to read, inclusive (YYYY-MM-DD, defaults to today)")
	fs.Parse(os.Args[2:])

	start, end, err := parseDateRange(*startDate, *endDate, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	ctx, cancel := commandContext(log, 5*time.Minute)
	defer cancel()

	components := mustBuild(ctx, cfg, log)
	defer components.Close()

	if components.Archive == nil {
		log.Fatal().Msg("Error: BigQuery archive is not configured (set GCP_PROJECT)")
	}

	rows, err := components.Archive.QueryArchiveByDateRange(ctx, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query archive")
	}

	expenses := make([]*domain.Expense, 0, len(rows))
	for _, row := range rows {
		expenses = append(expenses, row.ToExpense())
	}
	printJSON(log, expenses)
}

// parseDateRange turns inclusive YYYY-MM-DD bounds into a half-open
// [start, end) window in local time. Empty bounds default to the current
// month up to and including today.
func parseDateRange(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	now = now.In(time.Local)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)

	if startDate != "" {
		t, err := time.ParseInLocation(dateLayout, startDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing start date: %w", err)
		}
		start = t
	}
	if endDate != "" {
		t, err := time.ParseInLocation(dateLayout, endDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing end date: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date", start.Format(dateLayout))
	}
	return start, end, nil
}

func commandContext(log zerolog.Logger, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel
}

func mustBuild(ctx context.Context, cfg config.Config, log zerolog.Logger) *app.Components {
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	return components
}

func printJSON(log zerolog.Logger, v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
