package smsparser

import "strings"

// IsRelevant reports whether body mentions money leaving the account.
// It is a cheap substring pre-filter and will pass plenty of noise.
func IsRelevant(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
