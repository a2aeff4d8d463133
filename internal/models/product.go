package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultMinimumStock = 5

// Product is an inventory item. SKU is unique per owner.
type Product struct {
	ID            string
	Name          string
	Description   string
	SKU           string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	StockQuantity int
	MinimumStock  int
	CategoryID    string
	Supplier      string
	// PhotoURL and ThumbnailURL may hold a local file reference until the
	// image has been uploaded by a backup.
	PhotoURL     string
	ThumbnailURL string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLowStock reports whether the stock fell to the minimum threshold.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinimumStock
}
