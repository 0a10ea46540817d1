// Package smsparser extracts debit transactions from bank and wallet
// notification messages.
//
// Every function in this package is pure: no I/O, no shared mutable state,
// and identical input always produces identical output. It is safe to call
// from any number of goroutines.
package smsparser

import (
	"github.com/shopspring/decimal"
)

// ParsedTransaction is the structured result of a successful parse.
// It carries no timestamp; the caller assigns one at ingestion time.
type ParsedTransaction struct {
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	Category     Category        `json:"category"`
	RawText      string          `json:"raw_text"`
}

// Outcome describes how a message left the pipeline.
type Outcome string

const (
	// OutcomeParsed means a ParsedTransaction was produced.
	OutcomeParsed Outcome = "parsed"
	// OutcomeFilteredOut means no relevance keyword was present.
	OutcomeFilteredOut Outcome = "filtered_out"
	// OutcomeNoAmount means the message looked relevant but had no amount.
	OutcomeNoAmount Outcome = "no_amount"
)

// Evaluate runs the full pipeline and reports why a message was rejected.
// The returned transaction is nil unless the outcome is OutcomeParsed.
func Evaluate(body string) (*ParsedTransaction, Outcome) {
	// 1) Relevance filter.
	if !IsRelevant(body) {
		return nil, OutcomeFilteredOut
	}

	// 2) Amount is mandatory.
	amount, ok := ExtractAmount(body)
	if !ok {
		return nil, OutcomeNoAmount
	}

	// 3) ATM withdrawals skip merchant extraction and categorization.
	if IsATMWithdrawal(body) {
		return &ParsedTransaction{
			Amount:       amount,
			Counterparty: ATMCounterparty,
			Category:     CategoryCash,
			RawText:      body,
		}, OutcomeParsed
	}

	// 4) Counterparty, cleaned for display.
	counterparty := NormalizeName(ExtractCounterparty(body))
	if counterparty == "" {
		counterparty = UnknownCounterparty
	}

	// 5) Category.
	return &ParsedTransaction{
		Amount:       amount,
		Counterparty: counterparty,
		Category:     Categorize(counterparty, body),
		RawText:      body,
	}, OutcomeParsed
}

// Parse is Evaluate without the rejection reason. ok is false for any
// message that is not a parseable transaction; that is not an error.
func Parse(body string) (tx *ParsedTransaction, ok bool) {
	tx, outcome := Evaluate(body)
	return tx, outcome == OutcomeParsed
}
