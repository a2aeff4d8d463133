package docs

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/stamp"
	"github.com/shopspring/decimal"
)

// BackupVersion tags the backup metadata document.
const BackupVersion = "2"

// Number renders d as a JSON number without going through float64.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// Millis is the epoch-millisecond encoding; the zero time encodes as 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func Product(p models.Product) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"description":   p.Description,
		"sku":           p.SKU,
		"purchasePrice": Number(p.PurchasePrice),
		"salePrice":     Number(p.SalePrice),
		"stockQuantity": p.StockQuantity,
		"minimumStock":  p.MinimumStock,
		"categoryId":    p.CategoryID,
		"supplier":      p.Supplier,
		"photoUrl":      p.PhotoURL,
		"thumbnailUrl":  p.ThumbnailURL,
		"isActive":      p.IsActive,
		"createdAt":     Millis(p.CreatedAt),
		"updatedAt":     Millis(p.UpdatedAt),
	}
}

// productDisplay holds the fields the storefront shows for a product,
// including both spellings of the image and stock keys.
func productDisplay(p models.Product) map[string]any {
	return map[string]any{
		"name":          p.Name,
		"description":   p.Description,
		"sku":           p.SKU,
		"price":         Number(p.SalePrice),
		"salePrice":     Number(p.SalePrice),
		"stockQuantity": p.StockQuantity,
		"currentStock":  p.StockQuantity,
		"photoUrl":      p.PhotoURL,
		"imageUrl":      p.PhotoURL,
		"thumbnailUrl":  p.ThumbnailURL,
	}
}

// PublicProductFields is the storefront mirror of p.
func PublicProductFields(ownerID string, p models.Product) map[string]any {
	m := productDisplay(p)
	m["id"] = p.ID
	m["ownerId"] = ownerID
	m["categoryId"] = p.CategoryID
	m["isActive"] = p.IsActive
	m["createdAt"] = Millis(p.CreatedAt)
	m["updatedAt"] = Millis(p.UpdatedAt)
	return m
}

func Customer(c models.Customer) map[string]any {
	m := map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"phone":          c.Phone,
		"email":          c.Email,
		"address":        c.Address,
		"notes":          c.Notes,
		"totalPurchases": Number(c.TotalPurchases),
		"isActive":       c.IsActive,
		"createdAt":      Millis(c.CreatedAt),
		"updatedAt":      Millis(c.UpdatedAt),
	}
	if c.LastPurchaseAt != nil {
		m["lastPurchaseAt"] = Millis(*c.LastPurchaseAt)
	}
	if c.AccessToken != "" {
		m["accessToken"] = c.AccessToken
	}
	return m
}

// Sale includes customer and cancellation fields only when they are set.
func Sale(s models.Sale) map[string]any {
	m := map[string]any{
		"id":            s.ID,
		"items":         s.Items,
		"total":         Number(s.Total),
		"date":          Millis(s.Date),
		"paymentMethod": s.PaymentMethod,
		"status":        string(s.Status),
		"createdAt":     Millis(s.CreatedAt),
		"updatedAt":     Millis(s.UpdatedAt),
	}
	if s.CustomerID != nil {
		m["customerId"] = *s.CustomerID
	}
	if s.CustomerName != "" {
		m["customerName"] = s.CustomerName
	}
	if s.CancelReason != nil {
		m["cancelReason"] = *s.CancelReason
	}
	if s.CanceledAt != nil {
		m["canceledAt"] = Millis(*s.CanceledAt)
	}
	return m
}

func Expense(e models.Expense) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"description": e.Description,
		"amount":      Number(e.Amount),
		"category":    e.Category,
		"date":        Millis(e.Date),
		"status":      e.Status,
		"createdAt":   Millis(e.CreatedAt),
		"updatedAt":   Millis(e.UpdatedAt),
	}
}

func itemFields(it models.CollectionItem) map[string]any {
	m := map[string]any{
		"productId":    it.ProductID,
		"displayOrder": it.DisplayOrder,
		"notes":        it.Notes,
		"isFeatured":   it.IsFeatured,
	}
	if it.SpecialPrice != nil {
		m["specialPrice"] = Number(*it.SpecialPrice)
	}
	return m
}

// Collection is the private collection document with its items embedded.
// Collection timestamps are ISO strings.
func Collection(c models.Collection) map[string]any {
	items := make([]any, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, itemFields(it))
	}
	ids := make([]any, 0, len(c.CustomerIDs))
	for _, id := range c.CustomerIDs {
		ids = append(ids, id)
	}
	tokens := make(map[string]any, len(c.CustomerTokens))
	for k, v := range c.CustomerTokens {
		tokens[k] = v
	}
	public := c.IsPublic()
	return map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"description":    c.Description,
		"status":         string(c.Status),
		"items":          items,
		"customerIds":    ids,
		"customerTokens": tokens,
		"chatEnabled":    c.ChatEnabled,
		"template":       c.Template,
		"isPublic":       public,
		"public":         public,
		"createdAt":      stamp.Canonical(c.CreatedAt),
		"updatedAt":      stamp.Canonical(c.UpdatedAt),
	}
}

// PublicCollectionItemFields is one item of a public collection. When p is
// nil the item is written with its own fields only.
func PublicCollectionItemFields(collectionID string, it models.CollectionItem, p *models.Product) map[string]any {
	m := itemFields(it)
	m["collectionId"] = collectionID
	if p != nil {
		for k, v := range productDisplay(*p) {
			m[k] = v
		}
	}
	return m
}

// PublicCollectionFields is the storefront mirror of c. products resolves
// item product ids; customer is the first associated customer, if known.
func PublicCollectionFields(ownerID string, c models.Collection, products map[string]models.Product, customer *models.Customer) map[string]any {
	items := make(map[string]any, len(c.Items))
	for _, it := range c.Items {
		var p *models.Product
		if found, ok := products[it.ProductID]; ok {
			p = &found
		}
		items[it.ProductID] = PublicCollectionItemFields(c.ID, it, p)
	}
	public := c.IsPublic()
	m := map[string]any{
		"id":          c.ID,
		"ownerId":     ownerID,
		"name":        c.Name,
		"description": c.Description,
		"status":      string(c.Status),
		"template":    c.Template,
		"webTemplate": c.Template,
		"isPublic":    public,
		"public":      public,
		"chatEnabled": c.ChatEnabled,
		"items":       items,
		"itemCount":   len(c.Items),
		"createdAt":   stamp.Canonical(c.CreatedAt),
		"updatedAt":   stamp.Canonical(c.UpdatedAt),
	}
	if customer != nil {
		m["customerId"] = customer.ID
		m["customerName"] = customer.Name
		m["customer"] = map[string]any{"id": customer.ID, "name": customer.Name}
	}
	return m
}

func Invoice(inv models.Invoice) map[string]any {
	items := make([]any, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]any{
			"description": it.Description,
			"quantity":    it.Quantity,
			"unitPrice":   Number(it.UnitPrice),
			"total":       Number(it.Total()),
		})
	}
	m := map[string]any{
		"id":           inv.ID,
		"number":       inv.Number,
		"customerName": inv.CustomerName,
		"items":        items,
		"subtotal":     Number(inv.Subtotal),
		"tax":          Number(inv.Tax),
		"total":        Number(inv.Total),
		"date":         Millis(inv.Date),
		"template":     string(inv.Template),
		"notes":        inv.Notes,
		"createdAt":    Millis(inv.CreatedAt),
		"updatedAt":    Millis(inv.UpdatedAt),
	}
	if inv.SaleID != nil {
		m["saleId"] = *inv.SaleID
	}
	if inv.CustomerID != nil {
		m["customerId"] = *inv.CustomerID
	}
	return m
}

// CustomCategory converts the local ISO timestamps to epoch milliseconds.
// A timestamp that does not parse is written unchanged and its field name
// is returned in kept.
func CustomCategory(c models.CustomCategory) (fields map[string]any, kept []string) {
	fields = map[string]any{
		"id":        c.ID,
		"ownerId":   c.OwnerID,
		"name":      c.Name,
		"icon":      c.Icon,
		"color":     c.Color,
		"sortOrder": c.SortOrder,
		"isActive":  c.IsActive,
	}
	stamps := []struct{ key, iso string }{
		{"createdAt", c.CreatedAt},
		{"updatedAt", c.UpdatedAt},
	}
	for _, ts := range stamps {
		ms, err := stamp.ToMillis(ts.iso)
		if err != nil {
			fields[ts.key] = ts.iso
			kept = append(kept, ts.key)
			continue
		}
		fields[ts.key] = ms
	}
	return fields, kept
}

func StockMovement(m models.StockMovement) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"productId": m.ProductID,
		"type":      string(m.Type),
		"quantity":  m.Quantity,
		"unitCost":  Number(m.UnitCost),
		"reason":    m.Reason,
		"timestamp": Millis(m.Timestamp),
	}
}

func countsFields(c models.Counts) map[string]any {
	return map[string]any{
		"products":         c.Products,
		"customers":        c.Customers,
		"sales":            c.Sales,
		"expenses":         c.Expenses,
		"collections":      c.Collections,
		"collectionItems":  c.CollectionItems,
		"invoices":         c.Invoices,
		"customCategories": c.CustomCategories,
		"stockMovements":   c.StockMovements,
	}
}

func BackupMetadataFields(ownerID, backupID string, at time.Time, counts models.Counts) map[string]any {
	return map[string]any{
		"version":   BackupVersion,
		"backupId":  backupID,
		"ownerId":   ownerID,
		"createdAt": Millis(at),
		"counts":    countsFields(counts),
	}
}
