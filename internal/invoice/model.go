package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// TaxType classifies which tax rate applies, derived from comparing the
// customer and issuer jurisdictions.
type TaxType string

const (
	// TaxTypeGST applies when the customer shares the issuer's state.
	TaxTypeGST TaxType = "GST"
	// TaxTypeIGST applies to interstate customers.
	TaxTypeIGST TaxType = "IGST"
)

// CustomerDetails identifies the billed party. Name, address and tax id
// are required at invoice construction (whitespace padding does not slip
// through); a missing state surfaces later, during tax resolution.
type CustomerDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
	State   string `json:"state"`
}

// LineItem is a single billable entry. Amount is derived from quantity and
// unit price and is never set independently.
type LineItem struct {
	ID           uuid.UUID       `json:"id"`
	ServiceName  string          `json:"service_name"`
	Description  string          `json:"description"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

// Invoice is the aggregate of line items plus customer, tax and status
// metadata. Monetary fields are exact decimals quantized to two places.
type Invoice struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	InvoiceNumber   *string           `json:"invoice_number"`
	IssueDate       time.Time         `json:"issue_date"`
	DueDate         time.Time         `json:"due_date"`
	Status          Status            `json:"status"`
	CurrencyCode    string            `json:"currency_code"`
	LineItems       []LineItem        `json:"line_items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	TaxAmount       decimal.Decimal   `json:"tax_amount"`
	TaxType         *TaxType          `json:"tax_type"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	CustomerDetails CustomerDetails   `json:"customer_details"`
	PaymentDetails  map[string]string `json:"payment_details"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Number returns the allocated invoice number or an empty string.
func (inv *Invoice) Number() string {
	if inv.InvoiceNumber == nil {
		return ""
	}
	return *inv.InvoiceNumber
}
