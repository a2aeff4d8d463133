package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

type StockMovement struct {
	ID        string
	ProductID string
	Type      MovementType
	Quantity  int
	UnitCost  decimal.Decimal
	Reason    string
	Timestamp time.Time
}
