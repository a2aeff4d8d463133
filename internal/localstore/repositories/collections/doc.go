// Package collections persists collections and their items in the local
// cache.
//
// The associated customer ids are stored as a comma-separated list and the
// per-customer access tokens as a JSON object. Items live in their own
// table keyed by (collection, product); Upsert replaces a collection's items
// wholesale.
//
// Key Types
//
//   - type Repository       : interface used by the sync engines
//   - type SQLiteRepository : SQLite implementation over dbx.DBTX
package collections
