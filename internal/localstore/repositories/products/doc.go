// Package products persists the owner's product catalogue in the local cache.
//
// Prices are stored as decimal strings and timestamps as epoch milliseconds.
// SKU is unique per owner when set; an Upsert that would duplicate another
// product's SKU fails and leaves the table unchanged.
//
// Key Types
//
//   - type Repository       : interface used by the sync engines
//   - type SQLiteRepository : SQLite implementation over dbx.DBTX
package products
