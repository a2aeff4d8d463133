package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CollectionStatus string

const (
	CollectionDraft    CollectionStatus = "draft"
	CollectionActive   CollectionStatus = "active"
	CollectionShared   CollectionStatus = "shared"
	CollectionArchived CollectionStatus = "archived"
)

// ParseCollectionStatus maps a stored status name in any letter case;
// unknown names are drafts.
func ParseCollectionStatus(s string) (CollectionStatus, bool) {
	switch st := CollectionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case CollectionDraft, CollectionActive, CollectionShared, CollectionArchived:
		return st, true
	}
	return CollectionDraft, false
}

// Collection is a curated, shareable subset of products.
type Collection struct {
	ID          string
	Name        string
	Description string
	Status      CollectionStatus
	Items       []CollectionItem
	CustomerIDs []string
	// CustomerTokens maps customer id to the access token handed to that
	// customer for this collection.
	CustomerTokens map[string]string
	ChatEnabled    bool
	Template       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPublic is true for collections the storefront may show.
func (c Collection) IsPublic() bool {
	return c.Status == CollectionShared || c.Status == CollectionActive
}

type CollectionItem struct {
	CollectionID string
	ProductID    string
	DisplayOrder int
	Notes        string
	IsFeatured   bool
	SpecialPrice *decimal.Decimal
}
