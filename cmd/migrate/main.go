package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/config"
	"github.com/dvloznov/sms-expense-tracker/internal/store/postgres"
)

var (
	target    = flag.String("target", "postgres", "Migration target: postgres or bigquery")
	dsn       = flag.String("database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	projectID = flag.String("project", "", "GCP project ID (defaults to GCP_PROJECT)")
	datasetID = flag.String("dataset", "", "BigQuery dataset ID (defaults to BQ_DATASET)")
	appliedBy = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *target {
	case "postgres":
		runPostgres(ctx, firstNonEmpty(*dsn, cfg.DatabaseURL))
	case "bigquery":
		runBigQuery(ctx, firstNonEmpty(*projectID, cfg.GCPProject), firstNonEmpty(*datasetID, cfg.BigQueryDataset))
	default:
		log.Fatalf("Error: unknown -target %q (want postgres or bigquery)", *target)
	}
}

func runPostgres(ctx context.Context, dsn string) {
	if dsn == "" {
		log.Fatal("Error: -database-url flag or DATABASE_URL is required.")
	}

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	migrations, err := postgres.EmbeddedMigrations()
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	log.Printf("Found %d migration files", len(migrations))

	applied, err := postgres.Migrate(ctx, db, migrations, *appliedBy)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	report(applied)
}

func report(applied int) {
	if applied == 0 {
		log.Println("No new migrations to apply. Database is up to date.")
		return
	}
	log.Printf("Successfully applied %d migration(s)", applied)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
