package smsparser

import "strings"

// Categorize maps a counterparty and the full message text to a category.
// Keyword groups are tried in priority order; CategoryGeneral is the fallback.
func Categorize(counterparty, body string) Category {
	text := strings.ToLower(counterparty + " " + body)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// Categories returns every label a stored expense may carry, in priority
// order, with CategoryCash last.
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules)+2)
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	return append(out, CategoryGeneral, CategoryCash)
}

// ParseCategory resolves a label case-insensitively against Categories.
func ParseCategory(s string) (Category, bool) {
	needle := strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), needle) {
			return c, true
		}
	}
	return "", false
}
