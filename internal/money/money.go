// Package money provides exact decimal arithmetic for monetary values.
//
// All amounts are base-10 fixed-point decimals; binary floating point never
// enters a calculation. Derived figures are rounded half up to two decimal
// places exactly once, after all full-precision arithmetic.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places every monetary amount carries.
const Scale = 2

// Round rounds half up (ties away from zero) to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// LineAmount computes quantity x unitPrice at full precision, then rounds.
func LineAmount(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Sum adds amounts at full precision and applies the single final rounding.
// Rounding per term and re-summing would break subtotal invariants on large
// invoices, so callers must pass unrounded or already-quantized terms and
// rely on this one rounding step.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// IsQuantized reports whether d has at most two decimal places.
func IsQuantized(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}
