package pipeline

import (
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
)

// Message is one incoming notification as delivered by the device or an export.
type Message struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Result is the outcome of ingesting a single message. Expense is nil unless
// Outcome is smsparser.OutcomeParsed.
type Result struct {
	Outcome smsparser.Outcome `json:"outcome"`
	Expense *domain.Expense   `json:"expense,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// BatchSummary counts outcomes across a batch.
type BatchSummary struct {
	Parsed      int `json:"parsed"`
	FilteredOut int `json:"filtered_out"`
	NoAmount    int `json:"no_amount"`
	Failed      int `json:"failed"`
}

func (s *BatchSummary) add(r Result) {
	switch {
	case r.Error != "":
		s.Failed++
	case r.Outcome == smsparser.OutcomeParsed:
		s.Parsed++
	case r.Outcome == smsparser.OutcomeFilteredOut:
		s.FilteredOut++
	case r.Outcome == smsparser.OutcomeNoAmount:
		s.NoAmount++
	}
}
