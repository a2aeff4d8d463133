package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	Address        string
	Notes          string
	TotalPurchases decimal.Decimal
	LastPurchaseAt *time.Time
	// AccessToken identifies the customer in the storefront portal and is
	// unique among active customers.
	AccessToken string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizedPhone keeps only digits, so "+1 (555) 010-20" and "1555 01020"
// compare equal.
func (c Customer) NormalizedPhone() string {
	var b strings.Builder
	for _, r := range c.Phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c Customer) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}
