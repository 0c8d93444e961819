package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func validLineItemInput() LineItemInput {
	return LineItemInput{
		ServiceName:  "OTP verification",
		Description:  "SMS one-time passwords, August",
		Quantity:     1000,
		UnitPrice:    decimal.RequireFromString("0.01"),
		CurrencyCode: "USD",
	}
}

func validCreateRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		CustomerID:   uuid.New(),
		CurrencyCode: "USD",
		LineItems:    []LineItemInput{validLineItemInput()},
		CustomerDetails: CustomerDetails{
			Name:    "Acme Corp",
			Address: "42 MG Road, Bengaluru",
			TaxID:   "29AAACA1234A1Z5",
			State:   "Karnataka",
		},
	}
}

func TestNewLineItemDerivesAmount(t *testing.T) {
	cfg := newTestConfig(t)

	item, err := NewLineItem(validLineItemInput(), cfg)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, item.ID)
	require.Equal(t, "10.00", item.Amount.StringFixed(2))

	// Fractional products round half up exactly once.
	in := validLineItemInput()
	in.Quantity = 3
	in.UnitPrice = decimal.RequireFromString("0.35")
	item, err = NewLineItem(in, cfg)
	require.NoError(t, err)
	require.Equal(t, "1.05", item.Amount.StringFixed(2))
}

func TestNewLineItemValidation(t *testing.T) {
	cfg := newTestConfig(t)

	cases := []struct {
		name   string
		mutate func(*LineItemInput)
		field  string
	}{
		{"empty service name", func(in *LineItemInput) { in.ServiceName = "" }, "service_name"},
		{"long service name", func(in *LineItemInput) { in.ServiceName = strings.Repeat("x", 101) }, "service_name"},
		{"empty description", func(in *LineItemInput) { in.Description = "" }, "description"},
		{"long description", func(in *LineItemInput) { in.Description = strings.Repeat("x", 501) }, "description"},
		{"zero quantity", func(in *LineItemInput) { in.Quantity = 0 }, "quantity"},
		{"negative quantity", func(in *LineItemInput) { in.Quantity = -5 }, "quantity"},
		{"zero unit price", func(in *LineItemInput) { in.UnitPrice = decimal.Zero }, "unit_price"},
		{"negative unit price", func(in *LineItemInput) { in.UnitPrice = decimal.RequireFromString("-0.01") }, "unit_price"},
		{"sub-cent unit price", func(in *LineItemInput) { in.UnitPrice = decimal.RequireFromString("0.005") }, "unit_price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validLineItemInput()
			tc.mutate(&in)
			_, err := NewLineItem(in, cfg)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestCheckCurrency(t *testing.T) {
	cfg := newTestConfig(t)

	require.NoError(t, checkCurrency("currency_code", "USD", cfg))
	require.NoError(t, checkCurrency("currency_code", "INR", cfg))

	for _, code := range []string{"usd", "US", "USDX", ""} {
		err := checkCurrency("currency_code", code, cfg)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, "code %q", code)
		require.Contains(t, validationErr.Reason, "three-letter")
	}

	// Well-formed but not a real ISO-4217 code.
	err := checkCurrency("currency_code", "ZZZ", cfg)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Reason, "ISO-4217")

	// Real code outside the supported set.
	err = checkCurrency("currency_code", "EUR", cfg)
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Reason, "not supported")
}

func TestLineItemUpdateRecomputesAmount(t *testing.T) {
	cfg := newTestConfig(t)
	item, err := NewLineItem(validLineItemInput(), cfg)
	require.NoError(t, err)

	require.NoError(t, item.Update(7, decimal.RequireFromString("2.50")))
	require.Equal(t, "17.50", item.Amount.StringFixed(2))

	// Failed updates leave the item untouched.
	err = item.Update(0, decimal.RequireFromString("2.50"))
	require.Error(t, err)
	require.EqualValues(t, 7, item.Quantity)
	require.Equal(t, "17.50", item.Amount.StringFixed(2))
}

func TestNewInvoiceDefaultsDates(t *testing.T) {
	cfg := newTestConfig(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	inv, err := newInvoice(validCreateRequest(), cfg, now)
	require.NoError(t, err)
	require.Equal(t, now, inv.IssueDate)
	require.Equal(t, now.AddDate(0, 0, 30), inv.DueDate)
	require.Equal(t, StatusDraft, inv.Status)
	require.Nil(t, inv.InvoiceNumber)
	require.NotNil(t, inv.PaymentDetails)

	issue := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	req := validCreateRequest()
	req.IssueDate = &issue
	req.DueDate = &due
	inv, err = newInvoice(req, cfg, now)
	require.NoError(t, err)
	require.Equal(t, issue, inv.IssueDate)
	require.Equal(t, due, inv.DueDate)
}

func TestNewInvoiceRequiresCustomerDetails(t *testing.T) {
	cfg := newTestConfig(t)
	now := time.Now().UTC()

	for field, mutate := range map[string]func(*CreateInvoiceRequest){
		"customer_details.name":    func(r *CreateInvoiceRequest) { r.CustomerDetails.Name = "" },
		"customer_details.address": func(r *CreateInvoiceRequest) { r.CustomerDetails.Address = "  " },
		"customer_details.tax_id":  func(r *CreateInvoiceRequest) { r.CustomerDetails.TaxID = "" },
	} {
		req := validCreateRequest()
		mutate(&req)
		_, err := newInvoice(req, cfg, now)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, field, validationErr.Field)
	}

	// An empty state passes field validation; jurisdiction is the tax
	// resolver's concern.
	req := validCreateRequest()
	req.CustomerDetails.State = ""
	_, err := newInvoice(req, cfg, now)
	require.NoError(t, err)
}

func TestNewInvoiceRejectsLongNotes(t *testing.T) {
	cfg := newTestConfig(t)
	notes := strings.Repeat("x", 1001)
	req := validCreateRequest()
	req.Notes = &notes
	_, err := newInvoice(req, cfg, time.Now().UTC())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "notes", validationErr.Field)
}

func TestRecomputeTotals(t *testing.T) {
	cfg := newTestConfig(t)
	now := time.Now().UTC()

	req := validCreateRequest()
	req.LineItems = append(req.LineItems, LineItemInput{
		ServiceName:  "WhatsApp OTP",
		Description:  "WhatsApp one-time passwords, August",
		Quantity:     200,
		UnitPrice:    decimal.RequireFromString("0.02"),
		CurrencyCode: "USD",
	})
	inv, err := newInvoice(req, cfg, now)
	require.NoError(t, err)

	taxType := TaxTypeIGST
	inv.TaxType = &taxType
	require.NoError(t, inv.recomputeTotals(cfg))

	// Subtotal is the sum of the item amounts: 10.00 + 4.00.
	require.Equal(t, "14.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "2.52", inv.TaxAmount.StringFixed(2))
	require.Equal(t, "16.52", inv.TotalAmount.StringFixed(2))
	require.Equal(t, "16.52", inv.Subtotal.Add(inv.TaxAmount).StringFixed(2))
}

func TestRecomputeTotalsWithoutTaxType(t *testing.T) {
	cfg := newTestConfig(t)
	inv, err := newInvoice(validCreateRequest(), cfg, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, inv.recomputeTotals(cfg))
	require.Equal(t, "10.00", inv.Subtotal.StringFixed(2))
	require.True(t, inv.TaxAmount.IsZero())
	require.Equal(t, "10.00", inv.TotalAmount.StringFixed(2))
}

func TestRecomputeTotalsCurrencyMismatch(t *testing.T) {
	cfg := newTestConfig(t)

	req := validCreateRequest()
	item := validLineItemInput()
	item.ServiceName = "Email OTP"
	item.CurrencyCode = "INR"
	req.LineItems = append(req.LineItems, item)

	inv, err := newInvoice(req, cfg, time.Now().UTC())
	require.NoError(t, err)

	err = inv.recomputeTotals(cfg)
	var mismatch *CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "Email OTP", mismatch.ServiceName)
	require.Equal(t, "INR", mismatch.ItemCurrency)
	require.Equal(t, "USD", mismatch.InvoiceCurrency)

	// Totals stay untouched after the failed recompute.
	require.True(t, inv.Subtotal.IsZero())
	require.True(t, inv.TotalAmount.IsZero())
}

func TestRecomputeTotalsRequiresLineItems(t *testing.T) {
	cfg := newTestConfig(t)
	inv := &Invoice{CurrencyCode: "USD"}
	err := inv.recomputeTotals(cfg)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "line_items", validationErr.Field)
}
