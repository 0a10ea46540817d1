package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/stats"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/rs/zerolog"
)

// StatsHandler handles spending summary endpoints.
type StatsHandler struct {
	repo store.ExpenseRepository
	loc  *time.Location
	now  func() time.Time
	log  zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo store.ExpenseRepository, loc *time.Location, log zerolog.Logger) *StatsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &StatsHandler{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		log:  log,
	}
}

// GetMonthlyStats handles GET /api/stats?month_offset=N
func (h *StatsHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	offset, err := parseMonthOffset(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, end := stats.MonthWindow(h.now(), offset, h.loc)
	expenses, err := h.repo.ListExpenses(r.Context(), domain.ExpenseFilter{Start: start, End: end})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expenses for stats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stats.Summarize(expenses, start, end))
}
