package docs

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/stamp"
	"github.com/shopspring/decimal"
)

func DecodeProduct(doc docstore.Document) (models.Product, Report, error) {
	d := NewDecoder("product", doc)
	p := models.Product{
		ID:            d.ID(),
		Name:          d.RequiredString("name"),
		Description:   d.String("", "description"),
		SKU:           d.String("", "sku"),
		PurchasePrice: d.Decimal(decimal.Zero, "purchasePrice", "costPrice"),
		SalePrice:     d.Decimal(decimal.Zero, "salePrice", "price"),
		StockQuantity: d.Int(0, "stockQuantity", "currentStock"),
		MinimumStock:  d.Int(models.DefaultMinimumStock, "minimumStock", "minStock"),
		CategoryID:    d.String("", "categoryId", "category"),
		Supplier:      d.String("", "supplier"),
		PhotoURL:      d.String("", "photoUrl", "imageUrl"),
		ThumbnailURL:  d.String("", "thumbnailUrl"),
		IsActive:      d.Bool(true, "isActive", "active"),
	}
	p.CreatedAt = d.TimeOrNow("createdAt")
	p.UpdatedAt = d.Time(p.CreatedAt, "updatedAt")
	rep, err := d.Finish()
	if err != nil {
		return models.Product{}, rep, err
	}
	return p, rep, nil
}

func DecodeCustomer(doc docstore.Document) (models.Customer, Report, error) {
	d := NewDecoder("customer", doc)
	c := models.Customer{
		ID:             d.ID(),
		Name:           d.RequiredString("name"),
		Phone:          d.String("", "phone"),
		Email:          d.String("", "email"),
		Address:        d.String("", "address"),
		Notes:          d.String("", "notes"),
		TotalPurchases: d.Decimal(decimal.Zero, "totalPurchases"),
		LastPurchaseAt: d.OptTime("lastPurchaseAt", "lastPurchaseDate"),
		AccessToken:    d.String("", "accessToken"),
		IsActive:       d.Bool(true, "isActive", "active"),
	}
	c.CreatedAt = d.TimeOrNow("createdAt")
	c.UpdatedAt = d.Time(c.CreatedAt, "updatedAt")
	rep, err := d.Finish()
	if err != nil {
		return models.Customer{}, rep, err
	}
	return c, rep, nil
}

// DecodeSale accepts items either in the legacy string form or as a list
// of item objects, which is re-serialized into the string form.
func DecodeSale(doc docstore.Document) (models.Sale, Report, error) {
	d := NewDecoder("sale", doc)
	s := models.Sale{
		ID:            d.ID(),
		Items:         d.saleItems(),
		Total:         d.Decimal(decimal.Zero, "total"),
		PaymentMethod: d.String("", "paymentMethod"),
		Status:        saleStatus(d.String("", "status")),
		CustomerID:    d.OptString("customerId"),
		CustomerName:  d.String("", "customerName"),
		CancelReason:  d.OptString("cancelReason", "cancellationReason"),
		CanceledAt:    d.OptTime("canceledAt", "cancelledAt"),
	}
	s.Date = d.TimeOrNow("date", "createdAt")
	s.CreatedAt = d.Time(s.Date, "createdAt", "date")
	s.UpdatedAt = d.Time(s.CreatedAt, "updatedAt", "createdAt")
	rep, err := d.Finish()
	if err != nil {
		return models.Sale{}, rep, err
	}
	return s, rep, nil
}

func saleStatus(s string) models.SaleStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "canceled", "cancelled":
		return models.SaleStatusCanceled
	}
	return models.SaleStatusActive
}

func (d *Decoder) saleItems() string {
	v, ok := d.Raw("items")
	if !ok {
		d.fallback("items")
		return ""
	}
	switch x := v.(type) {
	case string:
		if _, err := models.ParseSaleItems(x); err != nil {
			d.fail("items", err)
			return ""
		}
		return x
	case []any:
		items := make([]models.SaleItem, 0, len(x))
		for n, e := range x {
			m, ok := e.(map[string]any)
			if !ok {
				d.fail(fmt.Sprintf("items[%d]", n), ErrFieldType)
				return ""
			}
			id := newMapDecoder("sale item", d.docID, m)
			it := models.SaleItem{
				ProductID:   id.RequiredString("productId"),
				ProductName: id.String("", "productName", "name"),
				Quantity:    id.Int(0, "quantity"),
				UnitPrice:   id.Decimal(decimal.Zero, "unitPrice", "price"),
			}
			if _, err := id.Finish(); err != nil {
				d.fail(fmt.Sprintf("items[%d]", n), err)
				return ""
			}
			items = append(items, it)
		}
		return models.EncodeSaleItems(items)
	}
	d.fail("items", ErrFieldType)
	return ""
}

// DecodeExpense falls back from date to createdAt and only then to now.
func DecodeExpense(doc docstore.Document) (models.Expense, Report, error) {
	d := NewDecoder("expense", doc)
	e := models.Expense{
		ID:          d.ID(),
		Description: d.String("", "description"),
		Amount:      d.Decimal(decimal.Zero, "amount"),
		Category:    d.String("", "category"),
		Status:      d.String("active", "status"),
	}
	now := timeNow()
	e.Date = d.Time(now, "date", "createdAt")
	e.CreatedAt = d.Time(now, "createdAt", "date")
	e.UpdatedAt = d.Time(now, "updatedAt", "createdAt")
	rep, err := d.Finish()
	if err != nil {
		return models.Expense{}, rep, err
	}
	return e, rep, nil
}

// DecodeCollection decodes a private collection document. embedded is true
// when the document carries a non-empty items array; items that cannot be
// decoded are reported and left out.
func DecodeCollection(doc docstore.Document) (c models.Collection, embedded bool, rep Report, err error) {
	d := NewDecoder("collection", doc)
	c = models.Collection{
		ID:             d.ID(),
		Name:           d.RequiredString("name"),
		Description:    d.String("", "description"),
		CustomerIDs:    d.StringList("customerIds"),
		CustomerTokens: d.StringMap("customerTokens"),
		ChatEnabled:    d.Bool(false, "chatEnabled"),
		Template:       d.String("", "template", "webTemplate"),
	}
	status, ok := models.ParseCollectionStatus(d.String("", "status"))
	if !ok {
		d.fallback("status")
	}
	c.Status = status
	c.CreatedAt = d.TimeOrNow("createdAt")
	c.UpdatedAt = d.Time(c.CreatedAt, "updatedAt")

	objs, _ := d.Objects("items")
	for n, m := range objs {
		it, _, ierr := DecodeCollectionItem(c.ID, docstore.Document{Fields: m})
		if ierr != nil {
			d.fallback(fmt.Sprintf("items[%d]", n))
			continue
		}
		c.Items = append(c.Items, it)
	}
	embedded = len(objs) > 0

	rep, err = d.Finish()
	if err != nil {
		return models.Collection{}, false, rep, err
	}
	return c, embedded, rep, nil
}

// DecodeCollectionItem decodes an embedded item or an items sub-collection
// document, whose ID is the product id.
func DecodeCollectionItem(collectionID string, doc docstore.Document) (models.CollectionItem, Report, error) {
	d := NewDecoder("collection item", doc)
	it := models.CollectionItem{
		CollectionID: collectionID,
		DisplayOrder: d.Int(0, "displayOrder", "order"),
		Notes:        d.String("", "notes"),
		IsFeatured:   d.Bool(false, "isFeatured", "featured"),
		SpecialPrice: d.OptDecimal("specialPrice"),
	}
	if doc.ID != "" {
		it.ProductID = d.String(doc.ID, "productId")
	} else {
		it.ProductID = d.RequiredString("productId")
	}
	rep, err := d.Finish()
	if err != nil {
		return models.CollectionItem{}, rep, err
	}
	return it, rep, nil
}

// DecodeCustomCategory accepts epoch milliseconds or ISO strings for the
// timestamps and stores them in the canonical local form.
func DecodeCustomCategory(ownerID string, doc docstore.Document) (models.CustomCategory, Report, error) {
	d := NewDecoder("custom category", doc)
	c := models.CustomCategory{
		ID:        d.ID(),
		OwnerID:   ownerID,
		Name:      d.RequiredString("name"),
		Icon:      d.String("", "icon"),
		Color:     d.String("", "color"),
		SortOrder: d.Int(0, "sortOrder"),
		IsActive:  d.Bool(true, "isActive", "active"),
	}
	created := d.TimeOrNow("createdAt")
	c.CreatedAt = stamp.Canonical(created)
	c.UpdatedAt = stamp.Canonical(d.Time(created, "updatedAt"))
	rep, err := d.Finish()
	if err != nil {
		return models.CustomCategory{}, rep, err
	}
	return c, rep, nil
}

// DecodeInvoice resolves the template by name; an unknown name falls back
// to the default template and is reported.
func DecodeInvoice(doc docstore.Document) (models.Invoice, Report, error) {
	d := NewDecoder("invoice", doc)
	inv := models.Invoice{
		ID:           d.ID(),
		Number:       d.String("", "number", "invoiceNumber"),
		SaleID:       d.OptString("saleId"),
		CustomerID:   d.OptString("customerId"),
		CustomerName: d.String("", "customerName"),
		Subtotal:     d.Decimal(decimal.Zero, "subtotal"),
		Tax:          d.Decimal(decimal.Zero, "tax"),
		Total:        d.Decimal(decimal.Zero, "total"),
		Notes:        d.String("", "notes"),
	}
	tpl, ok := models.ParseInvoiceTemplate(d.String("", "template", "templateName"))
	if !ok {
		d.fallback("template")
	}
	inv.Template = tpl

	objs, _ := d.Objects("items")
	for _, m := range objs {
		id := newMapDecoder("invoice item", d.docID, m)
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: id.String("", "description", "name"),
			Quantity:    id.Int(1, "quantity"),
			UnitPrice:   id.Decimal(decimal.Zero, "unitPrice", "price"),
		})
		if !id.report.Clean() {
			d.fallback("items")
		}
	}

	inv.Date = d.TimeOrNow("date", "createdAt")
	inv.CreatedAt = d.Time(inv.Date, "createdAt", "date")
	inv.UpdatedAt = d.Time(inv.CreatedAt, "updatedAt", "createdAt")
	rep, err := d.Finish()
	if err != nil {
		return models.Invoice{}, rep, err
	}
	return inv, rep, nil
}

func DecodeStockMovement(doc docstore.Document) (models.StockMovement, Report, error) {
	d := NewDecoder("stock movement", doc)
	m := models.StockMovement{
		ID:        d.ID(),
		ProductID: d.RequiredString("productId"),
		Quantity:  d.Int(0, "quantity"),
		UnitCost:  d.Decimal(decimal.Zero, "unitCost"),
		Reason:    d.String("", "reason"),
	}
	switch t := models.MovementType(strings.ToLower(d.String("", "type"))); t {
	case models.MovementIn, models.MovementOut:
		m.Type = t
	default:
		d.fallback("type")
		m.Type = models.MovementIn
	}
	m.Timestamp = d.TimeOrNow("timestamp", "createdAt", "date")
	rep, err := d.Finish()
	if err != nil {
		return models.StockMovement{}, rep, err
	}
	return m, rep, nil
}
