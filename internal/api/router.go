// Package api assembles the HTTP surface of the expense tracker.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/api/handlers"
	"github.com/dvloznov/sms-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs"
	"github.com/dvloznov/sms-expense-tracker/internal/store"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators the router wires into its handlers.
// Publisher and JobStore may be nil when no queue runs.
type Dependencies struct {
	Expenses  store.ExpenseRepository
	Ingester  handlers.MessageIngester
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	Location  *time.Location
	Log       zerolog.Logger
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// NewRouter returns the full handler chain including middleware.
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Log

	messagesHandler := handlers.NewMessagesHandler(deps.Ingester, deps.Publisher, log)
	expensesHandler := handlers.NewExpensesHandler(deps.Expenses, deps.Location, log)
	statsHandler := handlers.NewStatsHandler(deps.Expenses, deps.Location, log)

	mux := http.NewServeMux()

	// Message endpoints
	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messagesHandler.IngestMessage(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/messages/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messagesHandler.ParseMessage(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/messages/enqueue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messagesHandler.EnqueueMessage(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Expense endpoints
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			expensesHandler.ListExpenses(w, r)
		case http.MethodPost:
			expensesHandler.CreateExpense(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/expenses/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Expense ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			expensesHandler.GetExpense(w, r, id)
		case http.MethodPut:
			expensesHandler.UpdateExpense(w, r, id)
		case http.MethodDelete:
			expensesHandler.DeleteExpense(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	// Stats endpoints
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statsHandler.GetMonthlyStats(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			handlers.ListCategories(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Jobs endpoints
	if deps.JobStore != nil {
		jobsHandler := handlers.NewJobsHandler(deps.JobStore, log)

		mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				jobsHandler.ListJobs(w, r)
			} else {
				methodNotAllowed(w)
			}
		})

		mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		})
	}

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)
}
