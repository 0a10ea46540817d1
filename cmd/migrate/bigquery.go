package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/sms-expense-tracker/internal/store/postgres"
	"google.golang.org/api/iterator"
)

//go:embed migrations/bigquery/*.sql
var bigQueryFiles embed.FS

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

func runBigQuery(ctx context.Context, projectID, datasetID string) {
	if projectID == "" {
		log.Fatal("Error: -project flag or GCP_PROJECT is required. Please specify your GCP project ID.")
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create BigQuery client: %v", err)
	}
	defer client.Close()

	log.Printf("Connected to BigQuery project: %s, dataset: %s", projectID, datasetID)

	migrations, err := readBigQueryMigrations(projectID, datasetID)
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	log.Printf("Found %d migration files", len(migrations))

	appliedMigrations, err := getAppliedMigrations(ctx, client, projectID, datasetID)
	if err != nil {
		log.Fatalf("Failed to get applied migrations: %v", err)
	}
	log.Printf("Found %d already applied migrations", len(appliedMigrations))

	appliedVersions := make(map[int]string)
	for _, am := range appliedMigrations {
		appliedVersions[am.Version] = am.Checksum
	}

	appliedCount := 0
	for _, m := range migrations {
		if checksum, ok := appliedVersions[m.Version]; ok {
			if checksum != "" && checksum != m.Checksum {
				log.Fatalf("Migration %04d_%s was modified after being applied", m.Version, m.Name)
			}
			log.Printf("  [SKIP] %04d_%s (already applied)", m.Version, m.Name)
			continue
		}

		log.Printf("  [RUN]  %04d_%s", m.Version, m.Name)
		if err := runQuery(ctx, client.Query(m.SQL)); err != nil {
			log.Fatalf("Failed to execute migration %04d_%s: %v", m.Version, m.Name, err)
		}
		if err := recordMigration(ctx, client, projectID, datasetID, m); err != nil {
			log.Fatalf("Failed to record migration %04d_%s: %v", m.Version, m.Name, err)
		}
		log.Printf("  [OK]   %04d_%s", m.Version, m.Name)
		appliedCount++
	}

	report(appliedCount)
}

// readBigQueryMigrations loads the embedded BigQuery migrations and fills in
// the project and dataset placeholders. Checksums cover the raw file content.
func readBigQueryMigrations(projectID, datasetID string) ([]postgres.Migration, error) {
	sub, err := fs.Sub(bigQueryFiles, "migrations/bigquery")
	if err != nil {
		return nil, fmt.Errorf("readBigQueryMigrations: %w", err)
	}
	migrations, err := postgres.ReadMigrations(sub)
	if err != nil {
		return nil, fmt.Errorf("readBigQueryMigrations: %w", err)
	}
	for i := range migrations {
		migrations[i].SQL = expandPlaceholders(migrations[i].SQL, projectID, datasetID)
	}
	return migrations, nil
}

func expandPlaceholders(sql, projectID, datasetID string) string {
	sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
	return strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, client *bigquery.Client, projectID, datasetID string) ([]AppliedMigration, error) {
	sql := fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, projectID, datasetID)

	it, err := client.Query(sql).Read(ctx)
	if err != nil {
		// If table doesn't exist yet, return empty list
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func recordMigration(ctx context.Context, client *bigquery.Client, projectID, datasetID string, m postgres.Migration) error {
	sql := fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, projectID, datasetID)

	query := client.Query(sql)
	query.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: *appliedBy},
	}
	return runQuery(ctx, query)
}

func runQuery(ctx context.Context, query *bigquery.Query) error {
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
