package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceTemplate string

const (
	TemplateClassic      InvoiceTemplate = "CLASSIC"
	TemplateModern       InvoiceTemplate = "MODERN"
	TemplateMinimal      InvoiceTemplate = "MINIMAL"
	TemplateProfessional InvoiceTemplate = "PROFESSIONAL"

	DefaultInvoiceTemplate = TemplateClassic
)

// ParseInvoiceTemplate resolves a template by name, case-insensitively.
// Unknown names resolve to DefaultInvoiceTemplate with ok == false.
func ParseInvoiceTemplate(name string) (InvoiceTemplate, bool) {
	switch t := InvoiceTemplate(strings.ToUpper(strings.TrimSpace(name))); t {
	case TemplateClassic, TemplateModern, TemplateMinimal, TemplateProfessional:
		return t, true
	}
	return DefaultInvoiceTemplate, false
}

type Invoice struct {
	ID           string
	Number       string
	SaleID       *string
	CustomerID   *string
	CustomerName string
	Items        []InvoiceItem
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Date         time.Time
	Template     InvoiceTemplate
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type InvoiceItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Total is quantity times unit price.
func (i InvoiceItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
