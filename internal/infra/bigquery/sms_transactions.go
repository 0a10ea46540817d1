package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// ArchiveRow is one archived expense in <dataset>.sms_transactions.
type ArchiveRow struct {
	ExpenseID string `bigquery:"expense_id"` // REQUIRED

	ReceivedDate civil.Date `bigquery:"received_date"` // REQUIRED, partition column
	ReceivedTS   time.Time  `bigquery:"received_ts"`   // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Merchant string   `bigquery:"merchant"` // REQUIRED STRING
	Category string   `bigquery:"category"` // REQUIRED STRING

	Source     string              `bigquery:"source"`      // REQUIRED STRING
	Sender     bigquery.NullString `bigquery:"sender"`      // NULLABLE
	RawMessage bigquery.NullString `bigquery:"raw_message"` // NULLABLE

	ArchivedTS time.Time `bigquery:"archived_ts"` // REQUIRED
}

// NewArchiveRow converts an expense into its archive representation.
// The received date is taken in the timestamp's own location.
func NewArchiveRow(exp *domain.Expense, archivedAt time.Time) *ArchiveRow {
	return &ArchiveRow{
		ExpenseID:    exp.ID,
		ReceivedDate: civil.DateOf(exp.Timestamp),
		ReceivedTS:   exp.Timestamp,
		Amount:       exp.Amount.Rat(),
		Merchant:     exp.Merchant,
		Category:     exp.Category,
		Source:       string(exp.Source),
		Sender:       nullString(exp.Sender),
		RawMessage:   nullString(exp.RawMessage),
		ArchivedTS:   archivedAt,
	}
}

// ToExpense converts an archive row back into an expense.
func (r *ArchiveRow) ToExpense() *domain.Expense {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, numericScale)
	}
	return &domain.Expense{
		ID:         r.ExpenseID,
		Amount:     amount,
		Merchant:   r.Merchant,
		Category:   r.Category,
		Timestamp:  r.ReceivedTS,
		RawMessage: r.RawMessage.StringVal,
		Sender:     r.Sender.StringVal,
		Source:     domain.Source(r.Source),
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
