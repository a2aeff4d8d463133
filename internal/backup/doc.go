// Package backup exports an owner's local cache to the remote document
// store.
//
// One run reads every entity table, uploads product images that still
// point at local files, and writes the private tree, the public storefront
// mirror and a metadata document in a single atomic batch. Chat and
// response mirroring runs afterwards and only ever adds warnings.
package backup
