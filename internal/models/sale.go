package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusActive   SaleStatus = "active"
	SaleStatusCanceled SaleStatus = "canceled"
)

type Sale struct {
	ID string
	// Items is the legacy serialized item list, see EncodeSaleItems.
	Items         string
	Total         decimal.Decimal
	Date          time.Time
	PaymentMethod string
	Status        SaleStatus
	CustomerID    *string
	CustomerName  string
	CancelReason  *string
	CanceledAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

const (
	saleFieldSep = "|"
	saleItemSep  = "||"
)

// EncodeSaleItems renders items in the legacy string form
// "productId|productName|quantity|unitPrice", items joined with "||".
// Separator characters inside text fields are replaced by spaces and an
// empty text field is written as a single space, so that no field can
// produce the item separator.
func EncodeSaleItems(items []SaleItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, strings.Join([]string{
			scrubSep(it.ProductID),
			scrubSep(it.ProductName),
			strconv.Itoa(it.Quantity),
			it.UnitPrice.String(),
		}, saleFieldSep))
	}
	return strings.Join(parts, saleItemSep)
}

// ParseSaleItems is the inverse of EncodeSaleItems. Text fields come back
// trimmed.
func ParseSaleItems(s string) ([]SaleItem, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var items []SaleItem
	for n, raw := range strings.Split(s, saleItemSep) {
		fields := strings.Split(raw, saleFieldSep)
		if len(fields) != 4 {
			return nil, fmt.Errorf("sale item %d: expected 4 fields, got %d", n, len(fields))
		}
		qty, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("sale item %d: quantity: %w", n, err)
		}
		price, err := decimal.NewFromString(fields[3])
		if err != nil {
			return nil, fmt.Errorf("sale item %d: unit price: %w", n, err)
		}
		items = append(items, SaleItem{
			ProductID:   strings.TrimSpace(fields[0]),
			ProductName: strings.TrimSpace(fields[1]),
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return items, nil
}

func scrubSep(s string) string {
	s = strings.ReplaceAll(s, saleFieldSep, " ")
	if s == "" {
		return " "
	}
	return s
}
