package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	archiveTable = "sms_transactions"
	dateFormat   = "2006-01-02"

	// numericScale matches the scale of the BigQuery NUMERIC type.
	numericScale = 9
)

// Putter is the subset of *bigquery.Inserter used for streaming inserts.
type Putter interface {
	Put(ctx context.Context, src interface{}) error
}

// InsertArchiveRowsWithPutter streams rows through the given inserter.
func InsertArchiveRowsWithPutter(ctx context.Context, putter Putter, rows []*ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := putter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertArchiveRows: inserting rows: %w", err)
	}
	return nil
}

// InsertArchiveRowsWithClient streams rows into <dataset>.sms_transactions
// using the provided BigQuery client.
func InsertArchiveRowsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, rows []*ArchiveRow) error {
	table := client.DatasetInProject(projectID, datasetID).Table(archiveTable)
	return InsertArchiveRowsWithPutter(ctx, table.Inserter(), rows)
}

// archiveRangeQuery returns the SQL for rows with start <= received_date < end.
func archiveRangeQuery(projectID, datasetID string) string {
	return fmt.Sprintf(`
		SELECT
			expense_id,
			received_date,
			received_ts,
			amount,
			merchant,
			category,
			source,
			sender,
			raw_message,
			archived_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE received_date >= @start_date
		  AND received_date < @end_date
		ORDER BY received_ts DESC
	`, projectID, datasetID, archiveTable)
}

// QueryArchiveByDateRangeWithClient reads archived rows whose received date
// falls in [startDate, endDate) using the provided BigQuery client.
func QueryArchiveByDateRangeWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, startDate, endDate time.Time) ([]*ArchiveRow, error) {
	q := client.Query(archiveRangeQuery(projectID, datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryArchiveByDateRange: query read: %w", err)
	}

	var rows []*ArchiveRow
	for {
		var r ArchiveRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryArchiveByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
