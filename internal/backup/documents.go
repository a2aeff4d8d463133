package backup

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/docs"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

// fill queues every document of one backup on b and returns non-fatal
// warnings.
func (e *Engine) fill(ctx context.Context, b docstore.Batch, ownerID string, s *snapshot, sum *Summary) []string {
	var warnings []string

	byID := make(map[string]models.Product, len(s.products))
	for _, p := range s.products {
		byID[p.ID] = p
		b.Set(docs.UserDoc(ownerID, docs.Products, p.ID), docs.Product(p))
		b.Set(docs.PublicProduct(p.ID), docs.PublicProductFields(ownerID, p))
	}

	customers := make(map[string]*models.Customer, len(s.customers))
	for i := range s.customers {
		c := &s.customers[i]
		customers[c.ID] = c
		b.Set(docs.UserDoc(ownerID, docs.Customers, c.ID), docs.Customer(*c))
	}

	for _, sale := range s.sales {
		b.Set(docs.UserDoc(ownerID, docs.Sales, sale.ID), docs.Sale(sale))
	}
	for _, x := range s.expenses {
		b.Set(docs.UserDoc(ownerID, docs.Expenses, x.ID), docs.Expense(x))
	}

	for _, c := range s.collections {
		b.Set(docs.UserDoc(ownerID, docs.Collections, c.ID), docs.Collection(c))
		b.Set(docs.PublicCollection(c.ID), docs.PublicCollectionFields(ownerID, c, byID, firstCustomer(c, customers)))

		for _, it := range c.Items {
			var p *models.Product
			if found, ok := byID[it.ProductID]; ok {
				p = &found
			} else {
				e.log.Warn(ctx, "backup: collection item without product",
					"collection_id", c.ID, "product_id", it.ProductID)
			}
			b.Set(docs.PublicCollectionItem(c.ID, it.ProductID), docs.PublicCollectionItemFields(c.ID, it, p))
		}
	}

	for _, inv := range s.invoices {
		b.Set(docs.UserDoc(ownerID, docs.Invoices, inv.ID), docs.Invoice(inv))
	}

	for _, cat := range s.categories {
		fields, kept := docs.CustomCategory(cat)
		if len(kept) > 0 {
			e.log.Warn(ctx, "backup: category timestamp not converted", "category_id", cat.ID, "fields", kept)
			warnings = append(warnings, fmt.Sprintf("category %s: timestamps %v written unconverted", cat.ID, kept))
		}
		b.Set(docs.UserDoc(ownerID, docs.CustomCategories, cat.ID), fields)
	}

	for _, m := range s.stockMovements {
		b.Set(docs.UserDoc(ownerID, docs.StockMovements, m.ID), docs.StockMovement(m))
	}

	b.Set(docs.BackupMetadata(ownerID), docs.BackupMetadataFields(ownerID, sum.BackupID, sum.StartedAt, sum.Counts))
	return warnings
}

// firstCustomer is the first associated customer of c that exists locally.
func firstCustomer(c models.Collection, customers map[string]*models.Customer) *models.Customer {
	for _, id := range c.CustomerIDs {
		if cu, ok := customers[id]; ok {
			return cu
		}
	}
	return nil
}
