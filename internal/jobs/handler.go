package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/sms-expense-tracker/internal/logger"
	"github.com/dvloznov/sms-expense-tracker/internal/pipeline"
)

// MessageIngester is the part of pipeline.Service a worker needs.
type MessageIngester interface {
	IngestMessage(ctx context.Context, msg pipeline.Message) (pipeline.Result, error)
}

// NewParseMessageHandler returns a JobHandler that runs each job through the
// ingestion pipeline and records the outcome on the job.
func NewParseMessageHandler(ingester MessageIngester) JobHandler {
	return func(ctx context.Context, job Job) error {
		msgJob, ok := job.(*ParseMessageJob)
		if !ok {
			return fmt.Errorf("ParseMessageHandler: unsupported job type %s", job.GetType())
		}

		log := logger.FromContext(ctx).With().Str("job_id", msgJob.JobID).Logger()
		ctx = logger.WithContext(ctx, log)

		res, err := ingester.IngestMessage(ctx, pipeline.Message{
			Sender:     msgJob.Sender,
			Body:       msgJob.Body,
			ReceivedAt: msgJob.ReceivedAt,
		})
		msgJob.Outcome = string(res.Outcome)
		if err != nil {
			return fmt.Errorf("ParseMessageHandler: %w", err)
		}
		if res.Expense != nil {
			msgJob.ExpenseID = res.Expense.ID
		}
		return nil
	}
}
