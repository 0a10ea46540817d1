package handlers

import (
	"net/http"

	"github.com/dvloznov/sms-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
)

// ListCategories handles GET /api/categories
// The list is fixed and includes Cash, which only ATM withdrawals produce
// automatically but which is valid for manual expenses.
func ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := smsparser.Categories()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}
