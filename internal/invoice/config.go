package invoice

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Config is the process-wide invoicing configuration: the supported
// currency set, the tax rate table and the issuer jurisdiction. It is
// built once at startup and treated as immutable afterwards.
type Config struct {
	supportedCurrencies map[string]struct{}
	taxRates            map[TaxType]decimal.Decimal
	issuerState         string
	numberPrefix        int
}

// NewConfig validates and freezes the invoicing configuration.
func NewConfig(currencies []string, taxRates map[string]string, issuerState string, numberPrefix int) (*Config, error) {
	if len(currencies) == 0 {
		return nil, fmt.Errorf("invoice: at least one supported currency is required")
	}
	if issuerState == "" {
		return nil, fmt.Errorf("invoice: issuer state is required")
	}
	if numberPrefix < 1000 {
		return nil, fmt.Errorf("invoice: number prefix must be at least 1000, got %d", numberPrefix)
	}

	supported := make(map[string]struct{}, len(currencies))
	for _, code := range currencies {
		if len(code) != 3 {
			return nil, fmt.Errorf("invoice: malformed currency code %q", code)
		}
		supported[code] = struct{}{}
	}

	rates := make(map[TaxType]decimal.Decimal, len(taxRates))
	for taxType, raw := range taxRates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invoice: parse tax rate for %s: %w", taxType, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("invoice: tax rate for %s out of range: %s", taxType, rate)
		}
		rates[TaxType(taxType)] = rate
	}
	for _, required := range []TaxType{TaxTypeGST, TaxTypeIGST} {
		if _, ok := rates[required]; !ok {
			return nil, fmt.Errorf("invoice: missing tax rate for %s", required)
		}
	}

	return &Config{
		supportedCurrencies: supported,
		taxRates:            rates,
		issuerState:         issuerState,
		numberPrefix:        numberPrefix,
	}, nil
}

// SupportsCurrency reports whether code is in the supported set.
func (c *Config) SupportsCurrency(code string) bool {
	_, ok := c.supportedCurrencies[code]
	return ok
}

// SupportedCurrencies returns the supported codes in sorted order.
func (c *Config) SupportedCurrencies() []string {
	codes := make([]string, 0, len(c.supportedCurrencies))
	for code := range c.supportedCurrencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TaxRate looks up the rate for a tax type.
func (c *Config) TaxRate(t TaxType) (decimal.Decimal, bool) {
	rate, ok := c.taxRates[t]
	return rate, ok
}

// IssuerState is the company's own billing jurisdiction.
func (c *Config) IssuerState() string {
	return c.issuerState
}

// NumberPrefix is the configured invoice number prefix.
func (c *Config) NumberPrefix() int {
	return c.numberPrefix
}
