// Package docstore is the remote document store: a tree of documents
// addressed by slash-separated paths, Firestore style.
//
// # Paths
//
// A collection path has an odd number of segments ("users/u1/products"),
// a document path an even number ("users/u1/products/p1"). The last segment
// of a document path is its ID.
//
// # Writes
//
// All writes go through a Batch. Set is an upsert that replaces the whole
// document; Commit applies every queued Set or none of them.
//
// Key Types
//
//   - type Store         : contract used by the sync engines
//   - type PostgresStore : JSONB documents table over pgx
//   - type MemoryStore   : in-process store for dry runs and tests
package docstore
