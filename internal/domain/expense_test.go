package domain

import (
	"testing"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/shopspring/decimal"
)

func TestNewExpenseFromParsed(t *testing.T) {
	tx := &smsparser.ParsedTransaction{
		Amount:       decimal.RequireFromString("450.00"),
		Counterparty: "Zomato",
		Category:     smsparser.CategoryFood,
		RawText:      "Rs. 450.00 debited ... to Zomato",
	}
	at := time.Date(2025, 12, 12, 10, 0, 0, 0, time.UTC)

	exp := NewExpenseFromParsed(tx, "VM-HDFCBK", at)

	if !exp.Amount.Equal(tx.Amount) {
		t.Errorf("Amount = %s, want %s", exp.Amount, tx.Amount)
	}
	if exp.Merchant != "Zomato" || exp.Category != "Food" {
		t.Errorf("got %q/%q", exp.Merchant, exp.Category)
	}
	if !exp.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", exp.Timestamp, at)
	}
	if exp.Source != SourceSMS || exp.Sender != "VM-HDFCBK" || exp.RawMessage != tx.RawText {
		t.Errorf("unexpected metadata: %+v", exp)
	}
}

func TestExpenseFilter_Matches(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter ExpenseFilter
		ts     time.Time
		want   bool
	}{
		{"open filter", ExpenseFilter{}, start, true},
		{"start inclusive", ExpenseFilter{Start: start, End: end}, start, true},
		{"end exclusive", ExpenseFilter{Start: start, End: end}, end, false},
		{"before start", ExpenseFilter{Start: start}, start.Add(-time.Second), false},
		{"inside", ExpenseFilter{Start: start, End: end}, start.AddDate(0, 0, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.ts); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
