package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the boundary input for invoice generation.
// Required versus optional fields are explicit in the type; the generation
// service validates it before constructing the aggregate.
type CreateInvoiceRequest struct {
	CustomerID      uuid.UUID         `json:"customer_id" validate:"required"`
	InvoiceNumber   *string           `json:"invoice_number,omitempty"`
	IssueDate       *time.Time        `json:"issue_date,omitempty"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
	CurrencyCode    string            `json:"currency_code" validate:"required"`
	LineItems       []LineItemInput   `json:"line_items" validate:"required,min=1,dive"`
	CustomerDetails CustomerDetails   `json:"customer_details"`
	PaymentDetails  map[string]string `json:"payment_details,omitempty"`
	Notes           *string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// LineItemInput carries the caller-supplied fields of a line item. The
// amount is always derived, never accepted from the caller.
type LineItemInput struct {
	ServiceName  string          `json:"service_name" validate:"required,min=1,max=100"`
	Description  string          `json:"description" validate:"required,min=1,max=500"`
	Quantity     int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CurrencyCode string          `json:"currency_code" validate:"required"`
}

// UpdateStatusRequest asks for a lifecycle transition.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// ListInvoicesRequest filters and paginates invoice listing.
type ListInvoicesRequest struct {
	Status     *Status    `json:"status,omitempty"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=100"`
	Offset     int        `json:"offset" validate:"gte=0"`
}
