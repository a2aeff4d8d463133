// Package restore rebuilds an owner's local cache from the remote document
// store.
//
// The owner's local rows are cleared first. Each entity type is then read
// and written on its own: a document that cannot be decoded or saved is
// skipped, and a type that cannot be read at all is skipped as a whole.
// Both cases end up as warnings in the Summary. Only a failure to clear the
// local cache is returned as an error.
package restore
