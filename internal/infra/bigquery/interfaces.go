package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"google.golang.org/api/option"
)

// ArchiveRepository provides an interface for the analytical expense archive.
type ArchiveRepository interface {
	// ArchiveExpense streams a single expense into the archive table.
	ArchiveExpense(ctx context.Context, exp *domain.Expense) error

	// QueryArchiveByDateRange returns archived rows with startDate <= received_date < endDate.
	QueryArchiveByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*ArchiveRow, error)

	// Close releases the underlying client.
	Close() error
}

// BigQueryArchiveRepository is the concrete implementation of ArchiveRepository
// that interacts with BigQuery. It holds a shared client for all operations.
type BigQueryArchiveRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

var _ ArchiveRepository = (*BigQueryArchiveRepository)(nil)

// NewBigQueryArchiveRepository creates a new instance of BigQueryArchiveRepository.
// credentialsFile is optional; application default credentials are used when empty.
func NewBigQueryArchiveRepository(ctx context.Context, projectID, datasetID, credentialsFile string) (*BigQueryArchiveRepository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryArchiveRepository: creating client: %w", err)
	}
	return &BigQueryArchiveRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryArchiveRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ArchiveExpense converts the expense and streams it with the shared client.
func (r *BigQueryArchiveRepository) ArchiveExpense(ctx context.Context, exp *domain.Expense) error {
	row := NewArchiveRow(exp, r.now().UTC())
	return InsertArchiveRowsWithClient(ctx, r.client, r.projectID, r.datasetID, []*ArchiveRow{row})
}

// QueryArchiveByDateRange delegates to QueryArchiveByDateRangeWithClient with the shared client.
func (r *BigQueryArchiveRepository) QueryArchiveByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*ArchiveRow, error) {
	return QueryArchiveByDateRangeWithClient(ctx, r.client, r.projectID, r.datasetID, startDate, endDate)
}
