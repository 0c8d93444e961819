package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/otpless/invoice-service/internal/money"
)

// ResolveTaxType determines the applicable tax type from the customer's
// jurisdiction versus the issuer's. Same state means GST, anything else
// IGST. A third jurisdiction type only needs a rate table entry, not a new
// branch here.
func ResolveTaxType(customerState, issuerState string) (TaxType, error) {
	if strings.TrimSpace(customerState) == "" {
		return "", ErrMissingJurisdiction
	}
	if customerState == issuerState {
		return TaxTypeGST, nil
	}
	return TaxTypeIGST, nil
}

// taxAmount computes the tax on a subtotal for the given tax type using the
// configured rate table, rounding half up once.
func (c *Config) taxAmount(subtotal decimal.Decimal, taxType TaxType) (decimal.Decimal, error) {
	rate, ok := c.TaxRate(taxType)
	if !ok {
		return decimal.Zero, fmt.Errorf("invoice: no tax rate configured for %s", taxType)
	}
	return money.Round(subtotal.Mul(rate)), nil
}
