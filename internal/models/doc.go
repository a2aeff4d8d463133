// Package models defines the business entities kept in the local cache and
// mirrored to the remote document store: products, customers, sales,
// expenses, collections, invoices, custom categories and stock movements.
//
// All entities belong to a single owner. Money is carried as
// decimal.Decimal; timestamps as time.Time except CustomCategory, whose
// local representation is an ISO-8601 string.
package models
