package invoice

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the invoice domain.
var (
	// ErrNotFound indicates the requested invoice does not exist.
	ErrNotFound = errors.New("invoice not found")
	// ErrMissingJurisdiction occurs when the customer state is absent
	// during tax resolution.
	ErrMissingJurisdiction = errors.New("customer state is required for tax calculation")
	// ErrIncompleteInvoice occurs when document rendering is attempted
	// before an invoice number and line items are present.
	ErrIncompleteInvoice = errors.New("invoice must have a number and line items before rendering")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CurrencyMismatchError reports a line item whose currency disagrees with
// the invoice currency.
type CurrencyMismatchError struct {
	ServiceName     string
	ItemCurrency    string
	InvoiceCurrency string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("line item %q currency %s does not match invoice currency %s",
		e.ServiceName, e.ItemCurrency, e.InvoiceCurrency)
}

// InvalidTransitionError reports an illegal status change attempt.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// AllocationConflictError signals that the number allocator detected a
// collision. This points at a concurrency-control defect in the deployment,
// not at user input.
type AllocationConflictError struct {
	Number string
}

func (e *AllocationConflictError) Error() string {
	return fmt.Sprintf("invoice number %s already allocated", e.Number)
}
