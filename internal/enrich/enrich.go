// Package enrich optionally refines the heuristic category of a parsed
// message with a language model. It never rejects a message: any failure
// leaves the original category in place.
package enrich

import (
	"context"

	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
)

// CategoryEnricher proposes a category for a parsed transaction.
type CategoryEnricher interface {
	// Enrich returns a category from the closed set. Implementations return
	// tx.Category unchanged when they have nothing better.
	Enrich(ctx context.Context, tx *smsparser.ParsedTransaction) (smsparser.Category, error)
}

// Noop is the enricher used when enrichment is disabled.
type Noop struct{}

// Enrich implements CategoryEnricher.
func (Noop) Enrich(ctx context.Context, tx *smsparser.ParsedTransaction) (smsparser.Category, error) {
	return tx.Category, nil
}
