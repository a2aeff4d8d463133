// Package localstore opens the on-device SQLite cache, applies its goose
// migrations and bundles one repository per entity table.
//
// Every table is scoped by owner_id. Restore clears an owner's rows inside
// one transaction with ClearOwner before writing the remote copies back.
//
// Typical Usage
//
//	st, err := localstore.Open(ctx, "bizsync.db")
//	if err != nil { ... }
//	defer st.Close()
//	products, _ := st.Repos.Products.ListByOwner(ctx, ownerID)
package localstore
