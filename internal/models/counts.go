package models

// Counts is the number of records of each entity held for one owner.
type Counts struct {
	Products         int `json:"products"`
	Customers        int `json:"customers"`
	Sales            int `json:"sales"`
	Expenses         int `json:"expenses"`
	Collections      int `json:"collections"`
	CollectionItems  int `json:"collectionItems"`
	Invoices         int `json:"invoices"`
	CustomCategories int `json:"customCategories"`
	StockMovements   int `json:"stockMovements"`
}

// Total sums all entity counts.
func (c Counts) Total() int {
	return c.Products + c.Customers + c.Sales + c.Expenses + c.Collections +
		c.CollectionItems + c.Invoices + c.CustomCategories + c.StockMovements
}
