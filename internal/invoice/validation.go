package invoice

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/otpless/invoice-service/internal/money"
)

// defaultDueDays is added to the issue date when no due date is supplied.
const defaultDueDays = 30

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structErr converts the first validator failure into a ValidationError so
// callers see the offending field and reason rather than a tag dump.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag() + " constraint"}
	}
	return err
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}

// checkCurrency enforces the three-uppercase-letter shape, ISO-4217
// validity and membership in the configured supported set.
func checkCurrency(field, code string, cfg *Config) error {
	if !currencyPattern.MatchString(code) {
		return &ValidationError{Field: field, Reason: "must be a three-letter uppercase currency code"}
	}
	if _, err := currency.ParseISO(code); err != nil {
		return &ValidationError{Field: field, Reason: "unknown ISO-4217 currency code " + code}
	}
	if !cfg.SupportsCurrency(code) {
		return &ValidationError{
			Field:  field,
			Reason: "currency " + code + " not supported, must be one of " + strings.Join(cfg.SupportedCurrencies(), ", "),
		}
	}
	return nil
}

func checkUnitPrice(unitPrice decimal.Decimal) error {
	if !unitPrice.IsPositive() {
		return &ValidationError{Field: "unit_price", Reason: "must be greater than zero"}
	}
	if !money.IsQuantized(unitPrice) {
		return &ValidationError{Field: "unit_price", Reason: "must have at most two decimal places"}
	}
	return nil
}

// NewLineItem validates the input and constructs a line item with its
// derived amount. No side effects beyond the returned value.
func NewLineItem(in LineItemInput, cfg *Config) (LineItem, error) {
	if err := structErr(validate.Struct(in)); err != nil {
		return LineItem{}, err
	}
	if err := checkUnitPrice(in.UnitPrice); err != nil {
		return LineItem{}, err
	}
	if err := checkCurrency("currency_code", in.CurrencyCode, cfg); err != nil {
		return LineItem{}, err
	}
	return LineItem{
		ID:           uuid.New(),
		ServiceName:  in.ServiceName,
		Description:  in.Description,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Amount:       money.LineAmount(in.Quantity, in.UnitPrice),
		CurrencyCode: in.CurrencyCode,
	}, nil
}

// Update replaces quantity and unit price and recomputes the amount,
// keeping the amount invariant intact. The item is untouched on failure.
func (li *LineItem) Update(quantity int64, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if err := checkUnitPrice(unitPrice); err != nil {
		return err
	}
	li.Quantity = quantity
	li.UnitPrice = unitPrice
	li.Amount = money.LineAmount(quantity, unitPrice)
	return nil
}

// newInvoice checks all field constraints and assembles a DRAFT invoice
// with dates defaulted. Tax resolution and totals happen afterwards in the
// generation service.
func newInvoice(req CreateInvoiceRequest, cfg *Config, now time.Time) (*Invoice, error) {
	if err := structErr(validate.Struct(req)); err != nil {
		return nil, err
	}
	if err := checkCurrency("currency_code", req.CurrencyCode, cfg); err != nil {
		return nil, err
	}
	if err := checkCustomerDetails(req.CustomerDetails); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(req.LineItems))
	for _, in := range req.LineItems {
		item, err := NewLineItem(in, cfg)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, defaultDueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	paymentDetails := req.PaymentDetails
	if paymentDetails == nil {
		paymentDetails = map[string]string{}
	}

	return &Invoice{
		ID:              uuid.New(),
		CustomerID:      req.CustomerID,
		InvoiceNumber:   req.InvoiceNumber,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Status:          StatusDraft,
		CurrencyCode:    req.CurrencyCode,
		LineItems:       items,
		Subtotal:        decimal.Zero,
		TaxAmount:       decimal.Zero,
		TotalAmount:     decimal.Zero,
		CustomerDetails: req.CustomerDetails,
		PaymentDetails:  paymentDetails,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// checkCustomerDetails enforces the identity fields. State stays out of
// the map: an absent jurisdiction is a tax-resolution failure, not a field
// validation failure, and surfaces as ErrMissingJurisdiction there.
func checkCustomerDetails(details CustomerDetails) error {
	for field, value := range map[string]string{
		"customer_details.name":    details.Name,
		"customer_details.address": details.Address,
		"customer_details.tax_id":  details.TaxID,
	} {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Reason: "is required"}
		}
	}
	return nil
}

// recomputeTotals derives subtotal, tax and total from the line items.
// Amounts are summed at full precision with one final rounding; tax and
// total follow the invariant subtotal + tax = total whenever a tax type is
// set. The invoice is only mutated once every check has passed.
func (inv *Invoice) recomputeTotals(cfg *Config) error {
	if len(inv.LineItems) == 0 {
		return &ValidationError{Field: "line_items", Reason: "invoice must have at least one line item"}
	}

	amounts := make([]decimal.Decimal, 0, len(inv.LineItems))
	for _, item := range inv.LineItems {
		if item.CurrencyCode != inv.CurrencyCode {
			return &CurrencyMismatchError{
				ServiceName:     item.ServiceName,
				ItemCurrency:    item.CurrencyCode,
				InvoiceCurrency: inv.CurrencyCode,
			}
		}
		amounts = append(amounts, item.Amount)
	}

	subtotal := money.Sum(amounts...)
	taxAmount := decimal.Zero
	total := subtotal
	if inv.TaxType != nil {
		var err error
		taxAmount, err = cfg.taxAmount(subtotal, *inv.TaxType)
		if err != nil {
			return err
		}
		total = subtotal.Add(taxAmount)
	}

	inv.Subtotal = subtotal
	inv.TaxAmount = taxAmount
	inv.TotalAmount = total
	return nil
}
