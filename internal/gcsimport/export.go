package gcsimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
)

const csvContentType = "text/csv"

var exportHeader = []string{"id", "timestamp", "amount", "merchant", "category", "source", "sender"}

// WriteExpensesCSV writes expenses as CSV with a header row.
func WriteExpensesCSV(w io.Writer, expenses []*domain.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("WriteExpensesCSV: writing header: %w", err)
	}

	for _, exp := range expenses {
		record := []string{
			exp.ID,
			exp.Timestamp.Format(time.RFC3339),
			exp.Amount.StringFixed(2),
			exp.Merchant,
			exp.Category,
			string(exp.Source),
			exp.Sender,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteExpensesCSV: writing %s: %w", exp.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteExpensesCSV: flushing: %w", err)
	}
	return nil
}

// UploadExport renders expenses as CSV and uploads them to bucket/object.
// It returns the gs:// URI of the written object.
func UploadExport(ctx context.Context, storage StorageService, bucket, object string, expenses []*domain.Expense) (string, error) {
	var buf bytes.Buffer
	if err := WriteExpensesCSV(&buf, expenses); err != nil {
		return "", fmt.Errorf("UploadExport: %w", err)
	}

	if err := storage.Upload(ctx, bucket, object, csvContentType, &buf); err != nil {
		return "", fmt.Errorf("UploadExport: %w", err)
	}
	return gcsScheme + bucket + "/" + object, nil
}
