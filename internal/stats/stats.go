// Package stats computes monthly spending summaries.
package stats

import (
	"sort"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// monthLabelLayout renders as e.g. "December 2025".
const monthLabelLayout = "January 2006"

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Summary is the spend over a window with its per-category breakdown.
type Summary struct {
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Label      string          `json:"label"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Categories []CategoryTotal `json:"categories"`
}

// MonthWindow returns the first instant of the month offset months away
// from now, and the first instant of the month after it, both in loc.
// offset 0 is the current month, -1 the previous one.
func MonthWindow(now time.Time, offset int, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	// time.Date normalizes month overflow in both directions.
	start = time.Date(local.Year(), local.Month()+time.Month(offset), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// MonthLabel formats the month containing t.
func MonthLabel(t time.Time) string {
	return t.Format(monthLabelLayout)
}

// CategoryTotals groups amounts by category, largest first. Equal totals
// are ordered by category name.
func CategoryTotals(expenses []*domain.Expense) []CategoryTotal {
	byCategory := make(map[string]*CategoryTotal)
	for _, exp := range expenses {
		ct, ok := byCategory[exp.Category]
		if !ok {
			ct = &CategoryTotal{Category: exp.Category, Total: decimal.Zero}
			byCategory[exp.Category] = ct
		}
		ct.Total = ct.Total.Add(exp.Amount)
		ct.Count++
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// Summarize totals the expenses that fall in [start, end).
func Summarize(expenses []*domain.Expense, start, end time.Time) Summary {
	filter := domain.ExpenseFilter{Start: start, End: end}

	var inWindow []*domain.Expense
	total := decimal.Zero
	for _, exp := range expenses {
		if !filter.Matches(exp.Timestamp) {
			continue
		}
		inWindow = append(inWindow, exp)
		total = total.Add(exp.Amount)
	}

	return Summary{
		Start:      start,
		End:        end,
		Label:      MonthLabel(start),
		Total:      total,
		Count:      len(inWindow),
		Categories: CategoryTotals(inWindow),
	}
}
