package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/domain"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
	"github.com/dvloznov/sms-expense-tracker/internal/store/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type testServer struct {
	handler http.Handler
	repo    *memory.Repository
	jobs    *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := memory.NewRepository()
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.QueueConfig{BufferSize: 10, WorkerCount: 1}, jobStore)
	t.Cleanup(func() { _ = queue.Close() })

	h := NewRouter(Dependencies{
		Expenses:  repo,
		Ingester:  pipeline.NewService(repo, nil, nil),
		Publisher: queue,
		JobStore:  jobStore,
		Location:  time.UTC,
		Log:       zerolog.Nop(),
	})
	return &testServer{handler: h, repo: repo, jobs: jobStore}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestParseMessageEndpoint(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name        string
		body        string
		wantOutcome string
		wantParty   string
	}{
		{"debit", "INR 2500.50 spent at Uber Rides on 10-Jan-25 via UPI", "parsed", "Uber Rides"},
		{"otp", "Your OTP is 4532, do not share", "filtered_out", ""},
		{"no amount", "Your account was debited. Contact bank for details.", "no_amount", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/messages/parse", map[string]string{"body": tt.body})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			out := decodeBody(t, rec)
			if out["outcome"] != tt.wantOutcome {
				t.Errorf("outcome = %v, want %s", out["outcome"], tt.wantOutcome)
			}
			if tt.wantParty != "" {
				tx := out["transaction"].(map[string]interface{})
				if tx["counterparty"] != tt.wantParty {
					t.Errorf("counterparty = %v, want %s", tx["counterparty"], tt.wantParty)
				}
			}
		})
	}

	all, _ := s.repo.ListExpenses(context.Background(), domain.ExpenseFilter{})
	if len(all) != 0 {
		t.Errorf("parse endpoint stored %d expenses", len(all))
	}
}

func TestParseMessageEndpoint_BadRequests(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodPost, "/api/messages/parse", map[string]string{"body": "  "}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/messages/parse", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed json status = %d, want 400", rec.Code)
	}

	if rec := s.do(t, http.MethodGet, "/api/messages/parse", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestIngestAndListExpenses(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/messages", map[string]interface{}{
		"sender":      "AX-HDFCBK",
		"body":        "Rs. 450.00 debited from a/c XX1234 on 12-Dec-25 to Zomato UPI Ref 888222. Bal: Rs 5000.",
		"received_at": "2025-12-12T09:30:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body.String())
	}
	exp := decodeBody(t, rec)["expense"].(map[string]interface{})
	if exp["merchant"] != "Zomato" || exp["category"] != "Food" {
		t.Errorf("expense = %v", exp)
	}

	rec = s.do(t, http.MethodPost, "/api/messages", map[string]string{"body": "Get 50% off on your next order!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("non-transaction status = %d, want 200", rec.Code)
	}
	if out := decodeBody(t, rec); out["outcome"] != "filtered_out" {
		t.Errorf("outcome = %v", out["outcome"])
	}

	rec = s.do(t, http.MethodGet, "/api/expenses?start_date=2025-12-01&end_date=2025-12-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", out["count"])
	}
	if out["total"] != "450.00" {
		t.Errorf("total = %v, want 450.00", out["total"])
	}

	rec = s.do(t, http.MethodGet, "/api/expenses?start_date=2025-11-01&end_date=2025-11-30", nil)
	if out := decodeBody(t, rec); out["count"].(float64) != 0 {
		t.Errorf("november count = %v, want 0", out["count"])
	}
}

func TestListExpenses_InvalidWindow(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/expenses?start_date=12-2025",
		"/api/expenses?end_date=yesterday",
		"/api/expenses?month_offset=abc",
		"/api/expenses?month_offset=1",
		"/api/expenses?start_date=2025-12-10&end_date=2025-12-01",
	} {
		if rec := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestManualExpenseLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/expenses", map[string]interface{}{
		"amount":    "300",
		"merchant":  " Corner ATM ",
		"category":  "cash",
		"timestamp": "2025-12-03T10:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	id := created["id"].(string)
	if created["category"] != "Cash" || created["merchant"] != "Corner ATM" || created["source"] != "manual" {
		t.Errorf("created = %v", created)
	}

	rec = s.do(t, http.MethodPut, "/api/expenses/"+id, map[string]interface{}{
		"amount":   450.5,
		"merchant": "Corner ATM",
		"category": "Cash",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	stored, err := s.repo.GetExpense(context.Background(), id)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("450.5")) {
		t.Errorf("amount = %s, want 450.5", stored.Amount)
	}
	if want := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC); !stored.Timestamp.Equal(want) {
		t.Errorf("timestamp changed to %v", stored.Timestamp)
	}

	if rec := s.do(t, http.MethodGet, "/api/expenses/"+id, nil); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/api/expenses/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/api/expenses/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/expenses/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"zero amount", map[string]interface{}{"amount": 0, "merchant": "X", "category": "Food"}},
		{"negative amount", map[string]interface{}{"amount": "-5", "merchant": "X", "category": "Food"}},
		{"missing merchant", map[string]interface{}{"amount": 10, "merchant": " ", "category": "Food"}},
		{"unknown category", map[string]interface{}{"amount": 10, "merchant": "X", "category": "Travel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodPost, "/api/expenses", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
		})
	}

	if rec := s.do(t, http.MethodPut, "/api/expenses/missing", map[string]interface{}{"amount": 1, "merchant": "X", "category": "Food"}); rec.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UTC()
	ctx := context.Background()

	seed := []*domain.Expense{
		{ID: "a", Amount: decimal.NewFromInt(450), Merchant: "Zomato", Category: "Food", Timestamp: now},
		{ID: "b", Amount: decimal.NewFromInt(50), Merchant: "Swiggy", Category: "Food", Timestamp: now},
		{ID: "c", Amount: decimal.NewFromInt(200), Merchant: "Uber", Category: "Transport", Timestamp: now},
		{ID: "d", Amount: decimal.NewFromInt(999), Merchant: "Old", Category: "Bills", Timestamp: now.AddDate(0, -2, 0)},
	}
	for _, e := range seed {
		if err := s.repo.InsertExpense(ctx, e); err != nil {
			t.Fatalf("InsertExpense() error = %v", err)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["total"] != "700" {
		t.Errorf("total = %v, want 700", out["total"])
	}
	if out["label"] != now.Format("January 2006") {
		t.Errorf("label = %v", out["label"])
	}
	cats := out["categories"].([]interface{})
	if len(cats) != 2 || cats[0].(map[string]interface{})["category"] != "Food" {
		t.Errorf("categories = %v", cats)
	}

	for _, offset := range []string{"x", "1"} {
		if rec := s.do(t, http.MethodGet, "/api/stats?month_offset="+offset, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("month_offset=%s status = %d, want 400", offset, rec.Code)
		}
	}
	if rec := s.do(t, http.MethodGet, "/api/stats?month_offset=-2", nil); rec.Code != http.StatusOK {
		t.Errorf("month_offset=-2 status = %d, want 200", rec.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/categories", nil)
	out := decodeBody(t, rec)
	cats := out["categories"].([]interface{})
	if len(cats) != 9 {
		t.Fatalf("got %d categories, want 9", len(cats))
	}
	if cats[len(cats)-1] != "Cash" {
		t.Errorf("last category = %v, want Cash", cats[len(cats)-1])
	}
}

func TestEnqueueAndJobs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/messages/enqueue", map[string]string{
		"sender": "VM-KOTAKB",
		"body":   "Rs. 1000 sent to Ramesh for Rent",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d, body %s", rec.Code, rec.Body.String())
	}
	jobID := decodeBody(t, rec)["job_id"].(string)

	rec = s.do(t, http.MethodGet, "/api/jobs/"+jobID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get job status = %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["status"] != string(jobs.JobStatusPending) {
		t.Errorf("job status = %v, want pending", out["status"])
	}

	rec = s.do(t, http.MethodGet, "/api/jobs?sender=VM-KOTAKB", nil)
	if out := decodeBody(t, rec); out["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", out["count"])
	}

	if rec := s.do(t, http.MethodGet, "/api/jobs/unknown", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", rec.Code)
	}
}

func TestEnqueue_WithRunningWorkers(t *testing.T) {
	repo := memory.NewRepository()
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.QueueConfig{BufferSize: 8, WorkerCount: 4}, jobStore)
	service := pipeline.NewService(repo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := queue.Start(ctx, jobs.NewParseMessageHandler(service)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s := &testServer{
		handler: NewRouter(Dependencies{
			Expenses:  repo,
			Ingester:  service,
			Publisher: queue,
			JobStore:  jobStore,
			Location:  time.UTC,
			Log:       zerolog.Nop(),
		}),
		repo: repo,
		jobs: jobStore,
	}

	const total = 50
	var wg sync.WaitGroup
	statuses := make(chan string, total)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := s.do(t, http.MethodPost, "/api/messages/enqueue", map[string]string{
				"sender": "AX-HDFCBK",
				"body":   "Rs. 450 paid to Zomato",
			})
			if rec.Code != http.StatusAccepted {
				statuses <- rec.Body.String()
				return
			}
			var out map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				statuses <- err.Error()
				return
			}
			statuses <- out["status"]
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		if status != string(jobs.JobStatusPending) {
			t.Errorf("enqueue reported %q, want pending", status)
		}
	}

	if err := queue.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	expenses, err := repo.ListExpenses(context.Background(), domain.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != total {
		t.Errorf("stored %d expenses, want %d", len(expenses), total)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}
