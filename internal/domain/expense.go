package domain

import (
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/shopspring/decimal"
)

// Source records how an expense entered the system.
type Source string

const (
	// SourceSMS marks expenses extracted from a notification message.
	SourceSMS Source = "sms"
	// SourceManual marks expenses entered by hand.
	SourceManual Source = "manual"
)

// Expense is one stored spend record. Amount is always non-negative.
type Expense struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Merchant   string          `json:"merchant"`
	Category   string          `json:"category"`
	Timestamp  time.Time       `json:"timestamp"`
	RawMessage string          `json:"raw_message,omitempty"`
	Sender     string          `json:"sender,omitempty"`
	Source     Source          `json:"source"`
}

// NewExpenseFromParsed attaches a capture timestamp to a parsed transaction.
// The ID is left empty for the repository caller to assign.
func NewExpenseFromParsed(tx *smsparser.ParsedTransaction, sender string, capturedAt time.Time) *Expense {
	return &Expense{
		Amount:     tx.Amount,
		Merchant:   tx.Counterparty,
		Category:   string(tx.Category),
		Timestamp:  capturedAt,
		RawMessage: tx.RawText,
		Sender:     sender,
		Source:     SourceSMS,
	}
}

// ExpenseFilter restricts a listing to [Start, End). Zero values are open.
type ExpenseFilter struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Matches reports whether ts falls inside the filter window.
func (f ExpenseFilter) Matches(ts time.Time) bool {
	if !f.Start.IsZero() && ts.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !ts.Before(f.End) {
		return false
	}
	return true
}
