package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/stamp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, fields map[string]any) docstore.Document {
	return docstore.Document{ID: id, Path: "x/" + id, Fields: fields}
}

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func TestDecodeProduct_DefaultsAndReport(t *testing.T) {
	fixClock(t, t0)
	p, rep, err := DecodeProduct(doc("p1", map[string]any{
		"name":          "Coffee",
		"salePrice":     json.Number("3.5"),
		"stockQuantity": "not a number",
	}))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, models.DefaultMinimumStock, p.MinimumStock)
	assert.True(t, p.IsActive)
	assert.Equal(t, 0, p.StockQuantity)
	assert.True(t, p.SalePrice.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, t0, p.CreatedAt)
	assert.Equal(t, t0, p.UpdatedAt)
	assert.Subset(t, rep.Fallbacks, []string{"minimumStock", "isActive", "stockQuantity", "createdAt", "updatedAt"})
}

func TestDecodeProduct_ReadsStorefrontAliases(t *testing.T) {
	p, rep, err := DecodeProduct(doc("p1", map[string]any{
		"name":         "Coffee",
		"imageUrl":     "https://cdn/a.jpg",
		"currentStock": json.Number("4"),
		"minimumStock": json.Number("2"),
		"active":       false,
		"createdAt":    json.Number("1709287200000"),
		"updatedAt":    json.Number("1709287200000"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.jpg", p.PhotoURL)
	assert.Equal(t, 4, p.StockQuantity)
	assert.False(t, p.IsActive)
	assert.Equal(t, t0, p.CreatedAt)
	assert.NotContains(t, rep.Fallbacks, "stockQuantity")
}

func TestDecodeProduct_RoundTrip(t *testing.T) {
	in := sampleProduct()
	raw, err := json.Marshal(Product(in))
	require.NoError(t, err)
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&fields))

	out, rep, err := DecodeProduct(doc(in.ID, fields))
	require.NoError(t, err)
	assert.True(t, rep.Clean(), rep.Fallbacks)
	assert.Equal(t, in.Name, out.Name)
	assert.True(t, in.SalePrice.Equal(out.SalePrice))
	assert.Equal(t, in.CreatedAt, out.CreatedAt)
	assert.Equal(t, in.ThumbnailURL, out.ThumbnailURL)
}

func TestDecodeProduct_MissingNameIsFatal(t *testing.T) {
	_, _, err := DecodeProduct(doc("p1", map[string]any{"sku": "x"}))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "name", de.Field)
	assert.Equal(t, "p1", de.DocID)
	assert.ErrorIs(t, err, ErrFieldMissing)
}

func TestDecodeSale_LegacyItemsList(t *testing.T) {
	s, _, err := DecodeSale(doc("s1", map[string]any{
		"items": []any{
			map[string]any{"productId": "p1", "productName": "Coffee", "quantity": json.Number("2"), "unitPrice": json.Number("3.5")},
			map[string]any{"productId": "p2", "productName": "Tea", "quantity": json.Number("1"), "unitPrice": json.Number("4")},
		},
		"total": json.Number("11"),
		"date":  json.Number("1709287200000"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "p1|Coffee|2|3.5||p2|Tea|1|4", s.Items)
	assert.Equal(t, t0, s.Date)
	assert.Nil(t, s.CustomerID)
}

func TestDecodeSale_StringItemsAndOptionalFields(t *testing.T) {
	s, _, err := DecodeSale(doc("s1", map[string]any{
		"items":        "p1|Coffee|1|3.5",
		"customerId":   "ghost",
		"status":       "cancelled",
		"cancelReason": "typo",
		"canceledAt":   "2024-03-01T10:00:00Z",
	}))
	require.NoError(t, err)
	assert.Equal(t, "p1|Coffee|1|3.5", s.Items)
	require.NotNil(t, s.CustomerID)
	assert.Equal(t, "ghost", *s.CustomerID)
	assert.Equal(t, models.SaleStatusCanceled, s.Status)
	require.NotNil(t, s.CanceledAt)
	assert.Equal(t, t0, *s.CanceledAt)
}

func TestDecodeSale_ItemWithoutNameStaysParseable(t *testing.T) {
	s, _, err := DecodeSale(doc("s1", map[string]any{
		"items": []any{
			map[string]any{"productId": "p1", "quantity": json.Number("2"), "unitPrice": json.Number("3")},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "p1| |2|3", s.Items)

	items, err := models.ParseSaleItems(s.Items)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestDecodeSale_MalformedItemsStringIsFatal(t *testing.T) {
	_, _, err := DecodeSale(doc("s1", map[string]any{"items": "p1|Coffee|1"}))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "items", de.Field)
	assert.ErrorContains(t, err, "expected 4 fields")
}

func TestDecodeSale_MalformedItemIsFatal(t *testing.T) {
	_, _, err := DecodeSale(doc("s1", map[string]any{"items": []any{"p1"}}))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "items[0]", de.Field)

	_, _, err = DecodeSale(doc("s2", map[string]any{"items": json.Number("3")}))
	assert.ErrorIs(t, err, ErrFieldType)
}

func TestDecodeCustomCategory_BothTimestampEncodings(t *testing.T) {
	fromMillis, _, err := DecodeCustomCategory("u1", doc("k1", map[string]any{
		"name": "Drinks", "createdAt": json.Number("1709287200000"), "updatedAt": json.Number("1709287200000"),
	}))
	require.NoError(t, err)
	fromISO, _, err := DecodeCustomCategory("u1", doc("k2", map[string]any{
		"name": "Drinks", "createdAt": "2024-03-01T10:00:00.000Z", "updatedAt": "2024-03-01T12:00:00+02:00",
	}))
	require.NoError(t, err)

	assert.Equal(t, fromMillis.CreatedAt, fromISO.CreatedAt)
	assert.Equal(t, fromMillis.UpdatedAt, fromISO.UpdatedAt)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", fromISO.CreatedAt)
	assert.Equal(t, "u1", fromISO.OwnerID)
}

func TestDecodeExpense_TimestampChain(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fixClock(t, now)

	e, rep, err := DecodeExpense(doc("e1", map[string]any{"createdAt": "2024-03-01T10:00:00Z"}))
	require.NoError(t, err)
	assert.Equal(t, t0, e.Date)
	assert.Equal(t, t0, e.CreatedAt)
	assert.Equal(t, t0, e.UpdatedAt)
	assert.Contains(t, rep.Fallbacks, "date")

	e, _, err = DecodeExpense(doc("e2", map[string]any{"date": "garbage"}))
	require.NoError(t, err)
	assert.Equal(t, now, e.Date)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, "active", e.Status)
}

func TestDecodeCollection_EmbeddedItems(t *testing.T) {
	c, embedded, rep, err := DecodeCollection(doc("c1", map[string]any{
		"name":        "Summer",
		"status":      "shared",
		"customerIds": []any{"cu1", "cu2"},
		"items": []any{
			map[string]any{"productId": "p1", "displayOrder": json.Number("0"), "specialPrice": json.Number("2.99")},
			map[string]any{"displayOrder": json.Number("1")},
			map[string]any{"productId": "p2", "displayOrder": json.Number("2")},
		},
		"createdAt": "2024-03-01T10:00:00.000Z",
	}))
	require.NoError(t, err)
	assert.True(t, embedded)
	assert.Equal(t, models.CollectionShared, c.Status)
	assert.Equal(t, []string{"cu1", "cu2"}, c.CustomerIDs)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "c1", c.Items[0].CollectionID)
	require.NotNil(t, c.Items[0].SpecialPrice)
	assert.Equal(t, "p2", c.Items[1].ProductID)
	assert.Contains(t, rep.Fallbacks, "items[1]")
	assert.Equal(t, t0, c.CreatedAt)
}

func TestDecodeCollection_StatusAnyCase(t *testing.T) {
	for in, want := range map[string]models.CollectionStatus{
		"SHARED": models.CollectionShared,
		"Active": models.CollectionActive,
		"ACTIVE": models.CollectionActive,
	} {
		c, _, rep, err := DecodeCollection(doc("c1", map[string]any{"name": "X", "status": in}))
		require.NoError(t, err, in)
		assert.Equal(t, want, c.Status, in)
		assert.True(t, c.IsPublic(), in)
		assert.NotContains(t, rep.Fallbacks, "status", in)
	}
}

func TestDecodeCollection_NoEmbeddedItems(t *testing.T) {
	for name, items := range map[string]any{"absent": nil, "empty": []any{}} {
		fields := map[string]any{"name": "X", "status": "published", "customerIds": "a, b"}
		if items != nil {
			fields["items"] = items
		}
		c, embedded, rep, err := DecodeCollection(doc("c1", fields))
		require.NoError(t, err, name)
		assert.False(t, embedded, name)
		assert.Equal(t, models.CollectionDraft, c.Status, name)
		assert.Equal(t, []string{"a", "b"}, c.CustomerIDs, name)
		assert.Contains(t, rep.Fallbacks, "status", name)
	}
}

func TestDecodeCollectionItem_ProductIDFromDocID(t *testing.T) {
	it, _, err := DecodeCollectionItem("c1", doc("p7", map[string]any{"isFeatured": true}))
	require.NoError(t, err)
	assert.Equal(t, "p7", it.ProductID)
	assert.True(t, it.IsFeatured)
	assert.Nil(t, it.SpecialPrice)
}

func TestDecodeInvoice_TemplateFallback(t *testing.T) {
	inv, rep, err := DecodeInvoice(doc("i1", map[string]any{
		"number":   "INV-1",
		"template": "fancy",
		"items": []any{
			map[string]any{"description": "Coffee", "quantity": json.Number("2"), "unitPrice": json.Number("3.5")},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultInvoiceTemplate, inv.Template)
	assert.Contains(t, rep.Fallbacks, "template")
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 2, inv.Items[0].Quantity)

	inv, _, err = DecodeInvoice(doc("i2", map[string]any{"template": "minimal"}))
	require.NoError(t, err)
	assert.Equal(t, models.TemplateMinimal, inv.Template)
}

func TestDecodeCustomer(t *testing.T) {
	c, _, err := DecodeCustomer(doc("c1", map[string]any{
		"name":           "Ana",
		"phone":          "+1 555",
		"totalPurchases": json.Number("12.5"),
		"lastPurchaseAt": json.Number("1709287200000"),
	}))
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	require.NotNil(t, c.LastPurchaseAt)
	assert.Equal(t, t0, *c.LastPurchaseAt)
	assert.True(t, c.TotalPurchases.Equal(decimal.RequireFromString("12.5")))
}

func TestDecodeStockMovement(t *testing.T) {
	m, rep, err := DecodeStockMovement(doc("m1", map[string]any{
		"productId": "p1", "type": "OUT", "quantity": json.Number("3"), "timestamp": json.Number("1709287200000"),
	}))
	require.NoError(t, err)
	assert.Equal(t, models.MovementOut, m.Type)
	assert.Equal(t, t0, m.Timestamp)
	assert.NotContains(t, rep.Fallbacks, "type")

	m, rep, err = DecodeStockMovement(doc("m2", map[string]any{"productId": "p1", "type": "sideways"}))
	require.NoError(t, err)
	assert.Equal(t, models.MovementIn, m.Type)
	assert.Contains(t, rep.Fallbacks, "type")
}

func TestDecoder_Coercions(t *testing.T) {
	d := newMapDecoder("x", "d1", map[string]any{
		"i": 3.0, "b": "true", "n": json.Number("1"), "s": json.Number("42"), "nil": nil,
	})
	assert.Equal(t, 3, d.Int(0, "i"))
	assert.True(t, d.Bool(false, "b"))
	assert.True(t, d.Bool(false, "n"))
	assert.Equal(t, "42", d.String("", "s"))
	assert.Equal(t, "dflt", d.String("dflt", "nil"))
	assert.Nil(t, d.OptString("missing"))
	rep, err := d.Finish()
	require.NoError(t, err)
	assert.True(t, rep.Clean())
}

func TestDecoder_ZeroMillisIsAbsent(t *testing.T) {
	fixClock(t, t0)
	d := newMapDecoder("x", "d1", map[string]any{"createdAt": json.Number("0")})
	assert.Equal(t, t0, d.TimeOrNow("createdAt"))
	assert.Nil(t, d.OptTime("createdAt"))
}

func TestStampCanonicalMatchesDecoder(t *testing.T) {
	got, err := stamp.CanonicalOf(stamp.Millis(t0.UnixMilli()))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", got)
}

