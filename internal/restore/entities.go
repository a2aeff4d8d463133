package restore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/docs"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

func (r *run) path(name string) string {
	return docs.UserCollection(r.ownerID, name)
}

func (r *run) products(ctx context.Context) (int, error) {
	repo := r.local.Repos.Products
	return each(ctx, r, "product", r.path(docs.Products), docs.DecodeProduct,
		func(ctx context.Context, p models.Product) error {
			return repo.Upsert(ctx, r.ownerID, p)
		})
}

// customers inserts every customer, warning about likely duplicates by
// phone or email. An access token already held by another active customer
// is dropped so the row can still be saved.
func (r *run) customers(ctx context.Context) (int, error) {
	repo := r.local.Repos.Customers
	phones := map[string]string{}
	emails := map[string]string{}
	tokens := map[string]string{}

	return each(ctx, r, "customer", r.path(docs.Customers), docs.DecodeCustomer,
		func(ctx context.Context, c models.Customer) error {
			if other := duplicateOf(c, phones, emails); other != "" {
				r.sum.DuplicateCustomers++
				r.log.Warn(ctx, "restore: possible duplicate customer", "doc_id", c.ID, "duplicate_of", other)
				r.sum.warn("customer %s may duplicate customer %s", c.ID, other)
			}
			if c.AccessToken != "" && c.IsActive {
				if other, ok := tokens[c.AccessToken]; ok && other != c.ID {
					r.log.Warn(ctx, "restore: access token already in use", "doc_id", c.ID, "holder", other)
					r.sum.warn("customer %s: access token already used by %s, cleared", c.ID, other)
					c.AccessToken = ""
				}
			}

			if err := repo.Upsert(ctx, r.ownerID, c); err != nil {
				return err
			}
			if p := c.NormalizedPhone(); p != "" {
				phones[p] = c.ID
			}
			if e := c.NormalizedEmail(); e != "" {
				emails[e] = c.ID
			}
			if c.AccessToken != "" && c.IsActive {
				tokens[c.AccessToken] = c.ID
			}
			return nil
		})
}

func duplicateOf(c models.Customer, phones, emails map[string]string) string {
	if id, ok := phones[c.NormalizedPhone()]; ok && id != c.ID {
		return id
	}
	if id, ok := emails[c.NormalizedEmail()]; ok && id != c.ID {
		return id
	}
	return ""
}

// collections prefers the embedded items array. The public items
// sub-collection is read only when the array is missing or empty.
func (r *run) collections(ctx context.Context) (int, error) {
	decode := func(doc docstore.Document) (models.Collection, docs.Report, error) {
		c, embedded, rep, err := docs.DecodeCollection(doc)
		if err != nil || embedded {
			return c, rep, err
		}
		c.Items = r.itemsFromMirror(ctx, c.ID)
		return c, rep, nil
	}
	return each(ctx, r, "collection", r.path(docs.Collections), decode,
		func(ctx context.Context, c models.Collection) error {
			return r.local.WithTx(ctx, func(ctx context.Context, repos *localstore.Repositories) error {
				return repos.Collections.Upsert(ctx, r.ownerID, c)
			})
		})
}

func (r *run) itemsFromMirror(ctx context.Context, collectionID string) []models.CollectionItem {
	list, err := r.remote.List(ctx, docs.PublicCollectionItems(collectionID))
	if err != nil {
		r.log.Warn(ctx, "restore: collection items unavailable", "collection_id", collectionID, "error", err)
		r.sum.warn("collection %s: items not restored: %v", collectionID, err)
		return nil
	}
	items := make([]models.CollectionItem, 0, len(list))
	for _, doc := range list {
		it, rep, err := docs.DecodeCollectionItem(collectionID, doc)
		if err != nil {
			r.skip(ctx, "collection item", collectionID+"/"+doc.ID, err)
			continue
		}
		r.defaulted(ctx, rep)
		items = append(items, it)
	}
	return items
}

func (r *run) categories(ctx context.Context) (int, error) {
	repo := r.local.Repos.Categories
	decode := func(doc docstore.Document) (models.CustomCategory, docs.Report, error) {
		return docs.DecodeCustomCategory(r.ownerID, doc)
	}
	return each(ctx, r, "custom category", r.path(docs.CustomCategories), decode, repo.Upsert)
}

// sales drops customer references that do not resolve to a restored
// customer.
func (r *run) sales(ctx context.Context) (int, error) {
	repo := r.local.Repos.Sales
	customers := r.local.Repos.Customers
	return each(ctx, r, "sale", r.path(docs.Sales), docs.DecodeSale,
		func(ctx context.Context, s models.Sale) error {
			if s.CustomerID != nil {
				ok, err := customers.Exists(ctx, r.ownerID, *s.CustomerID)
				if err != nil {
					return fmt.Errorf("failed to check customer %s: %w", *s.CustomerID, err)
				}
				if !ok {
					r.log.Info(ctx, "restore: sale customer reference removed",
						"doc_id", s.ID, "customer_id", *s.CustomerID)
					r.sum.NulledCustomerRefs++
					s.CustomerID = nil
				}
			}
			return repo.Upsert(ctx, r.ownerID, s)
		})
}

func (r *run) expenses(ctx context.Context) (int, error) {
	repo := r.local.Repos.Expenses
	return each(ctx, r, "expense", r.path(docs.Expenses), docs.DecodeExpense,
		func(ctx context.Context, e models.Expense) error {
			return repo.Upsert(ctx, r.ownerID, e)
		})
}

func (r *run) invoices(ctx context.Context) (int, error) {
	repo := r.local.Repos.Invoices
	return each(ctx, r, "invoice", r.path(docs.Invoices), docs.DecodeInvoice,
		func(ctx context.Context, inv models.Invoice) error {
			return repo.Upsert(ctx, r.ownerID, inv)
		})
}

func (r *run) stockMovements(ctx context.Context) (int, error) {
	repo := r.local.Repos.StockMovements
	return each(ctx, r, "stock movement", r.path(docs.StockMovements), docs.DecodeStockMovement,
		func(ctx context.Context, m models.StockMovement) error {
			return repo.Upsert(ctx, r.ownerID, m)
		})
}
