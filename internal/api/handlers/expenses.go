package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ExpensesHandler handles expense CRUD endpoints.
type ExpensesHandler struct {
	repo store.ExpenseRepository
	loc  *time.Location
	now  func() time.Time
	log  zerolog.Logger
}

// NewExpensesHandler creates a new expenses handler. Calendar dates in
// queries are interpreted in loc.
func NewExpensesHandler(repo store.ExpenseRepository, loc *time.Location, log zerolog.Logger) *ExpensesHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExpensesHandler{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		log:  log,
	}
}

// expenseRequest is the body of manual create and update calls.
type expenseRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Merchant  string          `json:"merchant"`
	Category  string          `json:"category"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

func (req expenseRequest) validate() (smsparser.Category, string) {
	if !req.Amount.IsPositive() {
		return "", "amount must be greater than zero"
	}
	if strings.TrimSpace(req.Merchant) == "" {
		return "", "merchant is required"
	}
	category, ok := smsparser.ParseCategory(req.Category)
	if !ok {
		return "", "unknown category"
	}
	return category, ""
}

// ListExpenses handles GET /api/expenses
func (h *ExpensesHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	start, end, err := parseWindow(query, h.now(), h.loc)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := domain.ExpenseFilter{Start: start, End: end, Limit: parseIntParam(query, "limit")}
	expenses, err := h.repo.ListExpenses(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	total, err := h.repo.TotalSpent(ctx, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to total expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	if expenses == nil {
		expenses = []*domain.Expense{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"count":    len(expenses),
		"total":    total.StringFixed(2),
	})
}

// GetExpense handles GET /api/expenses/{id}
func (h *ExpensesHandler) GetExpense(w http.ResponseWriter, r *http.Request, id string) {
	exp, err := h.repo.GetExpense(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err, id, "Failed to get expense")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, exp)
}

// CreateExpense handles POST /api/expenses
func (h *ExpensesHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	category, problem := req.validate()
	if problem != "" {
		middleware.WriteError(w, http.StatusBadRequest, problem)
		return
	}

	exp := &domain.Expense{
		ID:        uuid.NewString(),
		Amount:    req.Amount,
		Merchant:  strings.TrimSpace(req.Merchant),
		Category:  string(category),
		Timestamp: h.now(),
		Source:    domain.SourceManual,
	}
	if req.Timestamp != nil {
		exp.Timestamp = *req.Timestamp
	}

	if err := h.repo.InsertExpense(r.Context(), exp); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert expense")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save expense")
		return
	}

	h.log.Info().Str("expense_id", exp.ID).Str("category", exp.Category).Msg("Manual expense saved")
	middleware.WriteJSON(w, http.StatusCreated, exp)
}

// UpdateExpense handles PUT /api/expenses/{id}
// Sender, raw message and source of the stored expense are preserved.
func (h *ExpensesHandler) UpdateExpense(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	category, problem := req.validate()
	if problem != "" {
		middleware.WriteError(w, http.StatusBadRequest, problem)
		return
	}

	exp, err := h.repo.GetExpense(ctx, id)
	if err != nil {
		h.writeRepoError(w, err, id, "Failed to update expense")
		return
	}

	exp.Amount = req.Amount
	exp.Merchant = strings.TrimSpace(req.Merchant)
	exp.Category = string(category)
	if req.Timestamp != nil {
		exp.Timestamp = *req.Timestamp
	}

	if err := h.repo.UpdateExpense(ctx, exp); err != nil {
		h.writeRepoError(w, err, id, "Failed to update expense")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, exp)
}

// DeleteExpense handles DELETE /api/expenses/{id}
func (h *ExpensesHandler) DeleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.DeleteExpense(r.Context(), id); err != nil {
		h.writeRepoError(w, err, id, "Failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpensesHandler) writeRepoError(w http.ResponseWriter, err error, id, message string) {
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Expense not found")
		return
	}
	h.log.Error().Err(err).Str("expense_id", id).Msg(message)
	middleware.WriteError(w, http.StatusInternalServerError, message)
}
