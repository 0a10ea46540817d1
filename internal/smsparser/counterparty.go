package smsparser

import (
	"regexp"
	"strings"
)

// counterpartyPattern captures the run of name-like characters after a
// "to", "at" or "via" preposition. The preposition must start a word, so
// "potato" or "Atom" never open a candidate.
var counterpartyPattern = regexp.MustCompile(`(?i)\b(?:to|at|via)\s+([a-zA-Z0-9._@\s&-]+)`)

// IsATMWithdrawal reports whether body describes a cash withdrawal at an ATM.
func IsATMWithdrawal(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "withdrawn") && strings.Contains(lower, "atm")
}

// ExtractCounterparty returns the raw (un-normalized) counterparty candidate.
//
// Candidates are walked in order and every one that is not a banking stop
// term replaces the previous pick, so in "from Bank to Merchant" shaped
// messages the merchant wins. Returns UnknownCounterparty if nothing is
// accepted.
func ExtractCounterparty(body string) string {
	best := UnknownCounterparty
	for _, m := range counterpartyPattern.FindAllStringSubmatch(body, -1) {
		candidate := strings.TrimSpace(m[1])
		if isBankingStopTerm(candidate) {
			continue
		}
		best = candidate
	}
	return best
}

func isBankingStopTerm(candidate string) bool {
	_, ok := bankingStopTerms[strings.ToLower(strings.TrimSpace(candidate))]
	return ok
}
