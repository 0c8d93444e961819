// Package jobs defines background tasks and the worker that processes them.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/otpless/invoice-service/internal/invoice"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceCreated is emitted after an invoice is generated and stored.
	TaskInvoiceCreated = "invoice:created"
	// TaskInvoiceStatusChanged is emitted after a lifecycle transition.
	TaskInvoiceStatusChanged = "invoice:status_changed"
)

// InvoiceEventPayload carries the event details to notification handlers.
// Amounts travel as decimal strings, never floats.
type InvoiceEventPayload struct {
	Event         string    `json:"event"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
	CurrencyCode  string    `json:"currency_code"`
}

// NewInvoiceEventTask constructs an Asynq task for an invoice event.
// Events outside the known lifecycle set are rejected rather than silently
// enqueued under the wrong task type.
func NewInvoiceEventTask(event string, payload InvoiceEventPayload) (*asynq.Task, error) {
	var taskType string
	switch event {
	case invoice.EventInvoiceCreated:
		taskType = TaskInvoiceCreated
	case invoice.EventInvoiceStatusChanged:
		taskType = TaskInvoiceStatusChanged
	default:
		return nil, fmt.Errorf("jobs: unknown invoice event %q", event)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// NewInvoiceEventHandler returns the handler for invoice event tasks.
// Today the handler records the event; delivery channels (mail, webhooks)
// hang off this point.
func NewInvoiceEventHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InvoiceEventPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("invoice event",
			slog.String("type", t.Type()),
			slog.String("invoice_number", payload.InvoiceNumber),
			slog.String("customer", payload.CustomerName),
			slog.String("status", payload.Status),
			slog.String("total", payload.TotalAmount+" "+payload.CurrencyCode))
		return nil
	}
}
