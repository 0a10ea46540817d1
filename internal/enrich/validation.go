package enrich

import (
	"fmt"
	"strings"

	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
)

// CategoryValidator checks model answers against the closed category set.
type CategoryValidator struct {
	categories map[string]smsparser.Category // normalized name -> category
}

// NewCategoryValidator builds a validator over the categories a model may
// assign. Cash is excluded because only the ATM branch produces it.
func NewCategoryValidator() *CategoryValidator {
	v := &CategoryValidator{categories: make(map[string]smsparser.Category)}
	for _, c := range smsparser.Categories() {
		if c == smsparser.CategoryCash {
			continue
		}
		v.categories[normalizeCategory(string(c))] = c
	}
	return v
}

// ValidateCategory resolves name to a category or explains why it is invalid.
func (v *CategoryValidator) ValidateCategory(name string) (smsparser.Category, error) {
	c, ok := v.categories[normalizeCategory(name)]
	if !ok {
		return "", fmt.Errorf("invalid category: %q (normalized: %q)", name, normalizeCategory(name))
	}
	return c, nil
}

// Names lists the valid category labels in priority order.
func (v *CategoryValidator) Names() []string {
	names := make([]string, 0, len(v.categories))
	for _, c := range smsparser.Categories() {
		if _, ok := v.categories[normalizeCategory(string(c))]; ok {
			names = append(names, string(c))
		}
	}
	return names
}

// normalizeCategory converts to uppercase and trims whitespace for
// case-insensitive comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
