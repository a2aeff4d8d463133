// Package docs maps domain entities to remote documents and back.
//
// Private documents live under users/{ownerId}/...; public mirrors read by
// the storefront live at the top level (products/{id}, collections/{id} and
// collections/{id}/items/{productId}). Encoders emit the storefront's alias
// keys; decoders are tolerant of every encoding found in older documents and
// report which fields fell back to defaults.
package docs

import "github.com/dmitrijs2005/bizsync/internal/docstore"

// Collection names.
const (
	Users               = "users"
	Products            = "products"
	Customers           = "customers"
	Sales               = "sales"
	Expenses            = "expenses"
	Collections         = "collections"
	Invoices            = "invoices"
	CustomCategories    = "customCategories"
	StockMovements      = "stockMovements"
	Metadata            = "metadata"
	ChatMessages        = "chatMessages"
	CollectionResponses = "collectionResponses"
	Items               = "items"
	Chat                = "chat"
	Responses           = "responses"

	BackupDocID = "backup"
)

// UserCollection is users/{ownerID}/{name}.
func UserCollection(ownerID, name string) string {
	return docstore.Join(Users, ownerID, name)
}

// UserDoc is users/{ownerID}/{name}/{id}.
func UserDoc(ownerID, name, id string) string {
	return docstore.Join(Users, ownerID, name, id)
}

func BackupMetadata(ownerID string) string {
	return UserDoc(ownerID, Metadata, BackupDocID)
}

func PublicProduct(id string) string {
	return docstore.Join(Products, id)
}

func PublicCollection(id string) string {
	return docstore.Join(Collections, id)
}

func PublicCollectionItems(collectionID string) string {
	return docstore.Join(Collections, collectionID, Items)
}

func PublicCollectionItem(collectionID, productID string) string {
	return docstore.Join(Collections, collectionID, Items, productID)
}

// CollectionChat is the chat sub-collection of a private collection.
func CollectionChat(ownerID, collectionID string) string {
	return docstore.Join(Users, ownerID, Collections, collectionID, Chat)
}

// CollectionResponsesOf is the responses sub-collection of a private collection.
func CollectionResponsesOf(ownerID, collectionID string) string {
	return docstore.Join(Users, ownerID, Collections, collectionID, Responses)
}

// MirrorID is the flat key of a chat message or response copy.
func MirrorID(collectionID, docID string) string {
	return collectionID + "_" + docID
}
