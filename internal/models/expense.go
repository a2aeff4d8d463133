package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          string
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
