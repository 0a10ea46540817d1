package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dvloznov/sms-expense-tracker/internal/api/middleware"
	"github.com/dvloznov/sms-expense-tracker/internal/jobs"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
	"github.com/dvloznov/sms-expense-tracker/internal/smsparser"
	"github.com/rs/zerolog"
)

// MessageIngester is the part of pipeline.Service the handlers need.
type MessageIngester interface {
	IngestMessage(ctx context.Context, msg pipeline.Message) (pipeline.Result, error)
}

// MessagesHandler handles SMS message endpoints.
type MessagesHandler struct {
	ingester  MessageIngester
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewMessagesHandler creates a new messages handler. publisher may be nil,
// in which case enqueueing is unavailable.
func NewMessagesHandler(ingester MessageIngester, publisher jobs.Publisher, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{
		ingester:  ingester,
		publisher: publisher,
		log:       log,
	}
}

func decodeMessage(w http.ResponseWriter, r *http.Request) (pipeline.Message, bool) {
	var msg pipeline.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return msg, false
	}
	if strings.TrimSpace(msg.Body) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "body is required")
		return msg, false
	}
	return msg, true
}

// ParseMessage handles POST /api/messages/parse
// It runs the parser only and stores nothing.
func (h *MessagesHandler) ParseMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	tx, outcome := pipeline.Preview(msg.Body)
	resp := map[string]interface{}{
		"outcome": outcome,
	}
	if tx != nil {
		resp["transaction"] = tx
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// IngestMessage handles POST /api/messages
func (h *MessagesHandler) IngestMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	res, err := h.ingester.IngestMessage(r.Context(), msg)
	if err != nil {
		h.log.Error().Err(err).Str("sender", msg.Sender).Msg("Failed to ingest message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store expense")
		return
	}

	if res.Outcome != smsparser.OutcomeParsed {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"outcome": res.Outcome,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"outcome": res.Outcome,
		"expense": res.Expense,
	})
}

// EnqueueMessage handles POST /api/messages/enqueue
func (h *MessagesHandler) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is not configured")
		return
	}

	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	job := &jobs.ParseMessageJob{
		Sender:     msg.Sender,
		Body:       msg.Body,
		ReceivedAt: msg.ReceivedAt,
	}

	if err := h.publisher.PublishParseMessage(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue message job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue message")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("sender", msg.Sender).Msg("Message job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}
