package document

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/otpless/invoice-service/internal/invoice"
)

//go:embed templates/invoice.html
var templateFS embed.FS

// CompanyDetails describes the issuing company on the rendered document.
type CompanyDetails struct {
	Name    string
	Address string
	TaxID   string
}

// TemplateConfig controls the rendered layout.
type TemplateConfig struct {
	CompanyLogo    string
	CompanyDetails CompanyDetails
	DraftWatermark bool
}

var invoiceTemplate = template.Must(template.New("invoice.html").
	Funcs(template.FuncMap{
		"amount": func(d decimal.Decimal) string { return d.StringFixed(2) },
	}).
	ParseFS(templateFS, "templates/invoice.html"))

// buildHTML fills the invoice template. The watermark only appears for
// DRAFT invoices and only when the config asks for it.
func buildHTML(inv *invoice.Invoice, cfg TemplateConfig) (string, error) {
	data := struct {
		Invoice   *invoice.Invoice
		Config    TemplateConfig
		Watermark bool
	}{
		Invoice:   inv,
		Config:    cfg,
		Watermark: cfg.DraftWatermark && inv.Status == invoice.StatusDraft,
	}
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute invoice template: %w", err)
	}
	return buf.String(), nil
}
