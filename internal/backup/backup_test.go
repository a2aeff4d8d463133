package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/blobstore"
	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/metadata"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/products"
	"github.com/dmitrijs2005/bizsync/internal/logging"
	"github.com/dmitrijs2005/bizsync/internal/media"
	"github.com/dmitrijs2005/bizsync/internal/mirror"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/progress"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "u1"

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	local  *localstore.Store
	remote *docstore.MemoryStore
	blobs  *blobstore.MemoryStore
	dir    string
}

func newFixture(t *testing.T, remote docstore.Store) *fixture {
	t.Helper()
	local, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	mem, _ := remote.(*docstore.MemoryStore)
	if remote == nil {
		mem = docstore.NewMemoryStore()
		remote = mem
	}
	blobs := blobstore.NewMemoryStore("https://blobs.test")
	dir := t.TempDir()

	e := NewEngine(local, remote, blobs, media.NewResolver("", dir),
		mirror.NewSyncer(remote, logging.Discard()), logging.Discard())
	e.now = func() time.Time { return t0 }
	e.newID = func() string { return "run-1" }

	return &fixture{engine: e, local: local, remote: mem, blobs: blobs, dir: dir}
}

func (f *fixture) image(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func (f *fixture) seed(t *testing.T, photo string) {
	t.Helper()
	ctx := context.Background()
	r := f.local.Repos
	cid := "c1"
	special := decimal.RequireFromString("2.5")

	require.NoError(t, r.Products.Upsert(ctx, owner, models.Product{
		ID: "p1", Name: "Coffee", SKU: "COF-1", SalePrice: decimal.RequireFromString("3.5"),
		StockQuantity: 7, MinimumStock: 5, PhotoURL: photo, ThumbnailURL: "https://cdn.test/p1_t.jpg",
		IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Products.Upsert(ctx, owner, models.Product{
		ID: "p2", Name: "Tea", SKU: "TEA-1", StockQuantity: 3, IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Customers.Upsert(ctx, owner, models.Customer{
		ID: "c1", Name: "Ana", Phone: "555", IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Sales.Upsert(ctx, owner, models.Sale{
		ID: "s1", Items: "p1|Coffee|2|3.5", Total: decimal.NewFromInt(7), Date: t0,
		Status: models.SaleStatusActive, CustomerID: &cid, CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Expenses.Upsert(ctx, owner, models.Expense{
		ID: "e1", Description: "Rent", Amount: decimal.NewFromInt(100), Date: t0, Status: "active",
		CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Collections.Upsert(ctx, owner, models.Collection{
		ID: "k1", Name: "Summer", Status: models.CollectionShared, Template: "grid",
		CustomerIDs: []string{"gone", "c1"}, CustomerTokens: map[string]string{"c1": "tok"},
		Items: []models.CollectionItem{
			{ProductID: "p1", DisplayOrder: 0, SpecialPrice: &special},
			{ProductID: "ghost", DisplayOrder: 1},
		},
		CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, r.Invoices.Upsert(ctx, owner, models.Invoice{
		ID: "i1", Number: "INV-1", Template: models.TemplateModern, Date: t0, CreatedAt: t0, UpdatedAt: t0,
		Items: []models.InvoiceItem{{Description: "Coffee", Quantity: 2, UnitPrice: decimal.RequireFromString("3.5")}},
	}))
	require.NoError(t, r.Categories.Upsert(ctx, models.CustomCategory{
		ID: "g1", OwnerID: owner, Name: "Drinks", IsActive: true,
		CreatedAt: "2024-03-01T10:00:00.000Z", UpdatedAt: "2024-03-01T10:00:00.000Z",
	}))
	require.NoError(t, r.StockMovements.Upsert(ctx, owner, models.StockMovement{
		ID: "m1", ProductID: "p1", Type: models.MovementIn, Quantity: 10, Timestamp: t0,
	}))
}

func get(t *testing.T, s docstore.Store, path string) map[string]any {
	t.Helper()
	doc, err := s.Get(context.Background(), path)
	require.NoError(t, err, path)
	return doc.Fields
}

// dump reads back every stored document.
func dump(t *testing.T, m *docstore.MemoryStore) map[string]map[string]any {
	t.Helper()
	out := make(map[string]map[string]any)
	for _, p := range m.Paths() {
		out[p] = get(t, m, p)
	}
	return out
}

func TestCreateFullBackup_WritesPrivateTreeAndPublicMirror(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	photo := f.image(t, "p1.jpg", []byte("jpeg-bytes"))
	f.seed(t, photo)

	var rec progress.Recorder
	sum, err := f.engine.CreateFullBackup(ctx, owner, rec.Func())
	require.NoError(t, err)

	assert.Equal(t, "run-1", sum.BackupID)
	assert.Equal(t, 1, sum.ImagesUploaded)
	assert.Equal(t, models.Counts{
		Products: 2, Customers: 1, Sales: 1, Expenses: 1, Collections: 1, CollectionItems: 2,
		Invoices: 1, CustomCategories: 1, StockMovements: 1,
	}, sum.Counts)
	assert.Empty(t, sum.Warnings)
	// products x2, customer, sale, expense, collection x2, items x2, invoice, category, movement, metadata
	assert.Equal(t, 15, sum.Documents)
	assert.Equal(t, 1, f.remote.Commits())

	key := "products/p1/photo_1709287200000.jpg"
	data, ctype, ok := f.blobs.Get(key)
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, media.ContentType, ctype)
	url := "https://blobs.test/" + key

	pub := get(t, f.remote, "products/p1")
	assert.Equal(t, url, pub["photoUrl"])
	assert.Equal(t, pub["photoUrl"], pub["imageUrl"])
	assert.Equal(t, pub["stockQuantity"], pub["currentStock"])
	assert.Equal(t, json.Number("7"), pub["currentStock"])
	assert.Equal(t, owner, pub["ownerId"])
	assert.Equal(t, "https://cdn.test/p1_t.jpg", pub["thumbnailUrl"])

	priv := get(t, f.remote, "users/u1/products/p1")
	assert.Equal(t, url, priv["photoUrl"])
	assert.Equal(t, json.Number("1709287200000"), priv["createdAt"])

	local, err := f.local.Repos.Products.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, local, 2)
	assert.Equal(t, url, local[0].PhotoURL)

	coll := get(t, f.remote, "collections/k1")
	assert.Equal(t, true, coll["isPublic"])
	assert.Equal(t, coll["isPublic"], coll["public"])
	assert.Equal(t, coll["template"], coll["webTemplate"])
	assert.Equal(t, "Ana", coll["customerName"])
	assert.Equal(t, "2024-03-01T10:00:00.000Z", coll["createdAt"])
	items := coll["items"].(map[string]any)
	require.Contains(t, items, "p1")
	assert.Equal(t, "Coffee", items["p1"].(map[string]any)["name"])
	assert.Equal(t, json.Number("2.5"), items["p1"].(map[string]any)["specialPrice"])

	privColl := get(t, f.remote, "users/u1/collections/k1")
	assert.Equal(t, privColl["isPublic"], coll["isPublic"])
	assert.Len(t, privColl["items"], 2)

	bare := get(t, f.remote, "collections/k1/items/ghost")
	assert.Equal(t, "ghost", bare["productId"])
	assert.Equal(t, "k1", bare["collectionId"])
	assert.NotContains(t, bare, "name")

	cat := get(t, f.remote, "users/u1/customCategories/g1")
	assert.Equal(t, json.Number("1709287200000"), cat["createdAt"])

	sale := get(t, f.remote, "users/u1/sales/s1")
	assert.Equal(t, "c1", sale["customerId"])
	assert.NotContains(t, sale, "cancelReason")

	meta := get(t, f.remote, "users/u1/metadata/backup")
	assert.Equal(t, "2", meta["version"])
	assert.Equal(t, "run-1", meta["backupId"])
	assert.Equal(t, json.Number("2"), meta["counts"].(map[string]any)["products"])

	var last Summary
	found, err := f.local.Repos.Metadata.GetJSON(ctx, metadata.Key(metadata.KindLastBackup, owner), &last)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "run-1", last.BackupID)

	ev := rec.Events()
	require.NotEmpty(t, ev)
	assert.True(t, rec.Monotonic())
	assert.Equal(t, 100, ev[len(ev)-1].Percent)
}

func TestCreateFullBackup_PublicAliasesAgree(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "https://cdn.test/p1.jpg")
	_, err := f.engine.CreateFullBackup(context.Background(), owner, nil)
	require.NoError(t, err)

	for _, id := range []string{"p1", "p2"} {
		pub := get(t, f.remote, "products/"+id)
		assert.Equal(t, pub["photoUrl"], pub["imageUrl"], id)
		assert.Equal(t, pub["stockQuantity"], pub["currentStock"], id)
	}
}

func TestCreateFullBackup_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seed(t, f.image(t, "p1.jpg", []byte("jpeg")))

	_, err := f.engine.CreateFullBackup(ctx, owner, nil)
	require.NoError(t, err)
	first := dump(t, f.remote)

	sum, err := f.engine.CreateFullBackup(ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.ImagesUploaded, "images are remote after the first run")

	if diff := cmp.Diff(first, dump(t, f.remote)); diff != "" {
		t.Fatalf("remote state changed on second backup (-first +second):\n%s", diff)
	}
	assert.Len(t, f.blobs.Keys(), 1)
}

func TestCreateFullBackup_MissingImageAbortsBeforeWriting(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "/data/missing.jpg")

	sum, err := f.engine.CreateFullBackup(context.Background(), owner, nil)
	require.Error(t, err)
	assert.Nil(t, sum)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StageImages, be.Stage)
	assert.ErrorIs(t, err, common.ErrImageMissing)
	assert.True(t, strings.HasPrefix(err.Error(), "backup failed at upload images: "))

	assert.Equal(t, 0, f.remote.Commits())
	assert.Empty(t, f.remote.Paths())
}

func TestCreateFullBackup_EmptyImageAborts(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, f.image(t, "empty.jpg", nil))

	_, err := f.engine.CreateFullBackup(context.Background(), owner, nil)
	assert.ErrorIs(t, err, common.ErrImageEmpty)
	assert.Equal(t, 0, f.remote.Commits())
}

func TestCreateFullBackup_UploadFailureAborts(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "file://"+f.image(t, "p1.jpg", []byte("jpeg")))
	boom := errors.New("bucket unavailable")
	f.blobs.FailPuts(boom)

	_, err := f.engine.CreateFullBackup(context.Background(), owner, nil)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StageImages, be.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.remote.Paths())

	local, err := f.local.Repos.Products.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(local[0].PhotoURL, "file://"))
}

func TestCreateFullBackup_CommitFailureLeavesPreviousState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seed(t, "https://cdn.test/p1.jpg")

	_, err := f.engine.CreateFullBackup(ctx, owner, nil)
	require.NoError(t, err)
	before := dump(t, f.remote)

	require.NoError(t, f.local.Repos.Products.Upsert(ctx, owner, models.Product{
		ID: "p3", Name: "Cocoa", CreatedAt: t0, UpdatedAt: t0,
	}))
	boom := errors.New("deadline exceeded")
	f.remote.FailCommits(boom)

	_, err = f.engine.CreateFullBackup(ctx, owner, nil)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StageCommit, be.Stage)
	assert.ErrorIs(t, err, boom)

	if diff := cmp.Diff(before, dump(t, f.remote)); diff != "" {
		t.Fatalf("failed commit changed remote state:\n%s", diff)
	}
	assert.NotContains(t, f.remote.Paths(), "products/p3")
}

type chatFailStore struct {
	*docstore.MemoryStore
}

func (s *chatFailStore) List(ctx context.Context, p string) ([]docstore.Document, error) {
	if strings.HasSuffix(p, "/chat") {
		return nil, errors.New("chat unavailable")
	}
	return s.MemoryStore.List(ctx, p)
}

func TestCreateFullBackup_MirrorFailuresBecomeWarnings(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	require.NoError(t, mem.Put("users/u1/collections/k1/responses/r1", map[string]any{"qty": 1}))

	f := newFixture(t, &chatFailStore{MemoryStore: mem})
	f.seed(t, "")

	sum, err := f.engine.CreateFullBackup(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, sum.Warnings, 1)
	assert.Contains(t, sum.Warnings[0], "chat sync for collection k1")
	assert.Equal(t, 1, sum.MirrorCopied)
	assert.Contains(t, mem.Paths(), "users/u1/collectionResponses/k1_r1")
}

type failingImageURLs struct {
	products.Repository
}

func (failingImageURLs) UpdateImageURLs(context.Context, string, string, string, string) error {
	return errors.New("disk full")
}

func TestCreateFullBackup_WriteBackFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, f.image(t, "p1.jpg", []byte("jpeg")))
	f.local.Repos.Products = failingImageURLs{f.local.Repos.Products}

	sum, err := f.engine.CreateFullBackup(context.Background(), owner, nil)
	require.NoError(t, err)
	require.Len(t, sum.Warnings, 1)
	assert.Contains(t, sum.Warnings[0], "product p1")

	pub := get(t, f.remote, "products/p1")
	assert.True(t, strings.HasPrefix(pub["photoUrl"].(string), "https://blobs.test/products/p1/photo_"))
}

func TestCreateFullBackup_UnusableIDAbortsBeforeUpload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seed(t, f.image(t, "p1.jpg", []byte("jpeg")))
	require.NoError(t, f.local.Repos.Products.Upsert(ctx, owner, models.Product{
		ID: "a/b", Name: "Slash", CreatedAt: t0, UpdatedAt: t0,
	}))

	_, err := f.engine.CreateFullBackup(ctx, owner, nil)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, StageRead, be.Stage)
	assert.ErrorIs(t, err, common.ErrInvalidPath)
	assert.Contains(t, err.Error(), `product "a/b"`)

	assert.Empty(t, f.blobs.Keys())
	assert.Equal(t, 0, f.remote.Commits())
}

func TestCreateFullBackup_RequiresOwner(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.CreateFullBackup(context.Background(), "", nil)
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestError_Message(t *testing.T) {
	err := &Error{Stage: StageCommit, Err: errors.New("boom")}
	assert.Equal(t, "backup failed at commit documents: boom", err.Error())
}
