// Package notify emits invoice lifecycle events onto the background queue.
package notify

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/otpless/invoice-service/internal/invoice"
	"github.com/otpless/invoice-service/jobs"
)

// AsynqNotifier enqueues notification tasks. Delivery is fire-and-forget:
// enqueue failures are logged and never propagated to the caller.
type AsynqNotifier struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewAsynqNotifier(client *asynq.Client, logger *slog.Logger) *AsynqNotifier {
	return &AsynqNotifier{client: client, logger: logger}
}

func (n *AsynqNotifier) Notify(ctx context.Context, event string, inv *invoice.Invoice) {
	payload := jobs.InvoiceEventPayload{
		Event:         event,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number(),
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerDetails.Name,
		Status:        string(inv.Status),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		CurrencyCode:  inv.CurrencyCode,
	}
	task, err := jobs.NewInvoiceEventTask(event, payload)
	if err != nil {
		n.logger.Error("build notification task", slog.String("event", event), slog.Any("error", err))
		return
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault)); err != nil {
		n.logger.Error("enqueue notification",
			slog.String("event", event),
			slog.String("invoice_number", inv.Number()),
			slog.Any("error", err))
	}
}

// NopNotifier drops every event; used when no queue is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, *invoice.Invoice) {}
