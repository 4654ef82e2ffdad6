package reconcile_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/angelmondragon/catalogsync/internal/blogs"
	"github.com/angelmondragon/catalogsync/internal/categories"
	"github.com/angelmondragon/catalogsync/internal/orders"
	"github.com/angelmondragon/catalogsync/internal/products"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/angelmondragon/catalogsync/internal/users"
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/db/dbtest"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/angelmondragon/catalogsync/pkg/enums"
	"github.com/angelmondragon/catalogsync/pkg/metrics"
	"github.com/angelmondragon/catalogsync/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var runClock = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

var fastArgon = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}

const legacyUserID = "690303e90cf9c0351ba8f7c5"

type harness struct {
	db     *gorm.DB
	stores reconcile.Stores
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	return &harness{
		db: conn,
		stores: reconcile.Stores{
			Categories: categories.NewRepository(conn),
			Products:   products.NewRepository(conn),
			Users:      users.NewRepository(conn),
			Orders:     orders.NewRepository(conn),
			Blogs:      blogs.NewRepository(conn),
		},
	}
}

func (h *harness) reconciler(opts ...reconcile.Option) *reconcile.Reconciler {
	opts = append([]reconcile.Option{reconcile.WithClock(func() time.Time { return runClock })}, opts...)
	return reconcile.New(h.stores, security.NewHasher(fastArgon), nil, opts...)
}

func (h *harness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func loadBatch(t *testing.T, files map[reconcile.Entity]string) reconcile.Batch {
	t.Helper()
	dir := t.TempDir()
	for entity, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(entity)+".json"), []byte(body), 0o644))
	}
	batch, err := reconcile.LoadDir(dir)
	require.NoError(t, err)
	return batch
}

const (
	categoriesJSON = `[
		{"_id": "cat-drinks", "name": "Thức uống", "slug": "thuc-uong", "is_active": true},
		{"_id": "cat-cakes", "name": "Bánh", "slug": "banh"}
	]`
	productsJSON = `[
		{"sku": "P1", "name": "Trà Vải", "category_id": "cat-drinks", "price": 45000, "images": ["p1.png"]},
		{"sku": "P2", "name": "Bánh Mì", "category_slug": "banh", "price": "25000", "stock_quantity": "3"},
		{"sku": "P3", "name": "Nước", "price": null}
	]`
	usersJSON = `[
		{"_id": "` + legacyUserID + `", "email": "  An@Example.com ", "full_name": "An", "role": "admin"}
	]`
	ordersJSON = `[
		{"order_no": "ORD-1", "user_id": {"$oid": "` + legacyUserID + `"},
		 "items": [{"product_name": "Trà Vải", "quantity": 2, "unit_price": 45000}],
		 "order_status": "Shipped", "address": "1 Lê Lợi",
		 "created_at": {"$date": "2025-10-01T10:00:00Z"}}
	]`
	blogsJSON = `[
		{"title": "Mùa trà mới", "category": "Tin tức", "content": "<p>ok</p><script>alert(1)</script>",
		 "date_display": "01/10/2025", "like_count": "12", "tags": ["tea"],
		 "cta": [{"label": "Mua", "href": "/shop"}]}
	]`
)

func fullBatch(t *testing.T) reconcile.Batch {
	return loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityCategories: categoriesJSON,
		reconcile.EntityProducts:   productsJSON,
		reconcile.EntityUsers:      usersJSON,
		reconcile.EntityOrders:     ordersJSON,
		reconcile.EntityBlogs:      blogsJSON,
	})
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	r := h.reconciler()
	ctx := context.Background()

	first, err := r.Run(ctx, fullBatch(t))
	require.NoError(t, err)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Upserted: 2, Inserted: 2}, first.Categories)
	assert.Equal(t, reconcile.EntityReport{Attempted: 3, Upserted: 3, Inserted: 3}, first.Products)
	assert.Equal(t, reconcile.EntityReport{Attempted: 1, Upserted: 1, Inserted: 1}, first.Users)
	assert.Equal(t, reconcile.EntityReport{Attempted: 1, Upserted: 1, Inserted: 1}, first.Orders)
	assert.Equal(t, reconcile.EntityReport{Attempted: 1, Upserted: 1, Inserted: 1}, first.Blogs)

	second, err := r.Run(ctx, fullBatch(t))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Upserted())
	assert.Equal(t, 0, second.Skipped())
	assert.Equal(t, 2, second.Categories.Unchanged)
	assert.Equal(t, 3, second.Products.Unchanged)
	assert.Equal(t, 1, second.Users.Unchanged)
	assert.Equal(t, 1, second.Orders.Unchanged)
	assert.Equal(t, 1, second.Blogs.Unchanged)

	assert.EqualValues(t, 2, h.count(t, &models.Category{}))
	assert.EqualValues(t, 3, h.count(t, &models.Product{}))
	assert.EqualValues(t, 1, h.count(t, &models.User{}))
	assert.EqualValues(t, 1, h.count(t, &models.Order{}))
	assert.EqualValues(t, 1, h.count(t, &models.Blog{}))
}

func TestRunResolvesCategoriesAndCoercesFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.reconciler().Run(ctx, fullBatch(t))
	require.NoError(t, err)

	drinks, err := h.stores.Categories.FindBySlug(ctx, "thuc-uong")
	require.NoError(t, err)
	cakes, err := h.stores.Categories.FindBySlug(ctx, "banh")
	require.NoError(t, err)
	assert.True(t, cakes.IsActive, "is_active defaults to true")

	p1, err := h.stores.Products.FindBySKU(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, drinks.ID, p1.CategoryID, "transient id maps through the identity map")

	p2, err := h.stores.Products.FindBySKU(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, cakes.ID, p2.CategoryID, "slug maps through the identity map")
	assert.True(t, p2.Price.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, 3, p2.StockQuantity)

	p3, err := h.stores.Products.FindBySKU(ctx, "P3")
	require.NoError(t, err)
	assert.Equal(t, drinks.ID, p3.CategoryID, "unreferenced products fall back to the default pattern")
	assert.True(t, p3.Price.IsZero())

	user, err := h.stores.Users.FindByEmail(ctx, "an@example.com")
	require.NoError(t, err)
	userID, ok := reconcile.ResolveID(legacyUserID)
	require.True(t, ok)
	assert.Equal(t, userID, user.ID, "legacy id is honored on insert")
	assert.Equal(t, enums.UserRoleAdmin, user.Role)
	assert.Equal(t, enums.UserStatusUnverified, user.Status)
	assert.NotEmpty(t, user.PasswordHash)
	verified, err := security.VerifyPassword("", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, verified, "users without credentials get a hash of the empty fallback")

	order, err := h.stores.Orders.FindByOrderNo(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, enums.OrderStatusShipped, order.Status)
	assert.Equal(t, "1 Lê Lợi", order.ShippingAddress)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].LineTotal.Equal(decimal.NewFromInt(90000)))
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(90000)), "subtotal falls back to the line total sum")
	assert.True(t, order.TotalAmount.Equal(order.Subtotal))
	assert.True(t, order.CreatedAt.Equal(time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, order.UpdatedAt.Equal(order.CreatedAt))

	date := "01/10/2025"
	blog, err := h.stores.Blogs.FindByTitleDate(ctx, "Mùa trà mới", &date)
	require.NoError(t, err)
	assert.Equal(t, "Tin tức", blog.Category)
	assert.Equal(t, "<p>ok</p>", blog.Content)
	assert.Equal(t, 12, blog.LikeCount)
	assert.Equal(t, []string{"tea"}, []string(blog.Tags))
	require.Len(t, blog.CTA, 1)
	assert.True(t, blog.CreatedAt.Equal(runClock))
}

func TestProductsBeforeCategoriesUseFallbackChain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	base := runClock.Add(-time.Hour)
	cakes, err := h.stores.Categories.Upsert(ctx, &models.Category{Slug: "banh", Name: "Bánh", IsActive: true, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	drinks, err := h.stores.Categories.Upsert(ctx, &models.Category{Slug: "thuc-uong", Name: "Thức uống", IsActive: true, CreatedAt: base.Add(time.Minute), UpdatedAt: base})
	require.NoError(t, err)

	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityProducts: `[
			{"sku": "N1", "name": "never seen", "category_slug": "never-seen-slug"},
			{"sku": "N2", "name": "stale id", "category_id": "no-such-transient-id"},
			{"sku": "N3", "name": "existing slug", "category_slug": "banh"}
		]`,
	})
	report, err := h.reconciler().Run(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Products.Inserted)

	for sku, want := range map[string]*models.Category{"N1": drinks, "N2": drinks, "N3": cakes} {
		p, err := h.stores.Products.FindBySKU(ctx, sku)
		require.NoError(t, err)
		assert.Equal(t, want.ID, p.CategoryID, sku)
	}
}

func TestProductFallsBackToAnyCategoryWhenPatternMisses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	only, err := h.stores.Categories.Upsert(ctx, &models.Category{Slug: "banh", Name: "Bánh", IsActive: true, CreatedAt: runClock, UpdatedAt: runClock})
	require.NoError(t, err)

	batch := loadBatch(t, map[reconcile.Entity]string{reconcile.EntityProducts: `[{"sku": "X"}]`})
	_, err = h.reconciler(reconcile.WithFallbackPattern(regexp.MustCompile(`(?i)^drinks$`))).Run(ctx, batch)
	require.NoError(t, err)

	p, err := h.stores.Products.FindBySKU(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, only.ID, p.CategoryID)
}

func TestProductWithoutAnyCategoryIsSkipped(t *testing.T) {
	h := newHarness(t)
	batch := loadBatch(t, map[reconcile.Entity]string{reconcile.EntityProducts: `[{"sku": "X"}]`})

	report, err := h.reconciler().Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, reconcile.EntityReport{Attempted: 1, Skipped: 1}, report.Products)
	assert.EqualValues(t, 0, h.count(t, &models.Product{}))
}

func TestOrderWithUnknownUserIsSkipped(t *testing.T) {
	h := newHarness(t)
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityOrders: `[
			{"order_no": "ORD-404", "user_id": "6907314c0cf9c0351ba8f970", "items": []},
			{"order_no": "ORD-BAD", "user_id": "not-an-id"},
			{"order_no": "ORD-NONE"}
		]`,
	})

	report, err := h.reconciler().Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, reconcile.EntityReport{Attempted: 3, Skipped: 3}, report.Orders)
	assert.EqualValues(t, 0, h.count(t, &models.Order{}))
}

func TestOrderStatusAndLineItemCoercion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityUsers: `[{"_id": "` + legacyUserID + `", "email": "b@example.com"}]`,
		reconcile.EntityOrders: `[
			{"order_no": "O1", "user_id": "` + legacyUserID + `", "order_status": "Lost in transit",
			 "items": [
				{"product_name": "A", "quantity": -3, "unit_price": 10000},
				{"product_name": "B", "quantity": "2", "unit_price": "15000", "line_total": 0},
				{"product_name": "C", "quantity": 1, "unit_price": 5000, "line_total": 4500}
			 ],
			 "subtotal": 0, "total_amount": 40000},
			{"order_no": "O2", "user_id": "` + legacyUserID + `", "order_status": "delivered"}
		]`,
	})

	report, err := h.reconciler().Run(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Orders.Inserted)

	o1, err := h.stores.Orders.FindByOrderNo(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, o1.Status)
	require.Len(t, o1.Items, 3)
	assert.Equal(t, 0, o1.Items[0].Quantity)
	assert.True(t, o1.Items[0].LineTotal.IsZero())
	assert.True(t, o1.Items[1].LineTotal.Equal(decimal.NewFromInt(30000)))
	assert.True(t, o1.Items[2].LineTotal.Equal(decimal.NewFromInt(4500)))
	assert.True(t, o1.Subtotal.Equal(decimal.NewFromInt(34500)))
	assert.True(t, o1.TotalAmount.Equal(decimal.NewFromInt(40000)))

	o2, err := h.stores.Orders.FindByOrderNo(ctx, "O2")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, o2.Status)
}

func TestDryRunWritesNothing(t *testing.T) {
	h := newHarness(t)
	reg := prometheus.NewRegistry()
	r := h.reconciler(reconcile.WithDryRun(true), reconcile.WithMetrics(metrics.NewReconcileMetrics(reg)))

	report, err := r.Run(context.Background(), fullBatch(t))
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 8, report.Upserted(), "dry runs take the same decisions as commits")
	assert.Equal(t, 1, report.Orders.Inserted, "orders resolve users reconciled in the same dry run")

	for _, model := range []any{&models.Category{}, &models.Product{}, &models.User{}, &models.Order{}, &models.Blog{}} {
		assert.EqualValues(t, 0, h.count(t, model))
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var dryRecords float64
	for _, mf := range mfs {
		if mf.GetName() != "catalogsync_reconcile_records_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "mode" && l.GetValue() == "dry_run" {
					dryRecords += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 8.0, dryRecords)
}

func TestMissingKeysAndMalformedRecordsAreSkipped(t *testing.T) {
	h := newHarness(t)
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityCategories: `[{"name": "no slug"}, "junk", {"slug": "thuc-uong", "name": "Thức uống"}]`,
		reconcile.EntityProducts:   `[{"sku": "   "}, 42]`,
		reconcile.EntityUsers:      `[{"email": "  "}, {"full_name": "nobody"}]`,
		reconcile.EntityBlogs:      `[{"title": ""}, null]`,
	})

	report, err := h.reconciler().Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, reconcile.EntityReport{Attempted: 3, Upserted: 1, Inserted: 1, Skipped: 2}, report.Categories)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Skipped: 2}, report.Products)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Skipped: 2}, report.Users)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Skipped: 2}, report.Blogs)
}

func TestBlogCategoryChain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityCategories: categoriesJSON,
		reconcile.EntityBlogs: `[
			{"title": "by id", "category_id": "cat-cakes"},
			{"title": "by slug", "category_slug": "thuc-uong", "category": {"not": "a string"}},
			{"title": "unresolved", "category_id": "missing"},
			{"title": "none"}
		]`,
	})

	report, err := h.reconciler().Run(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Blogs.Inserted)

	want := map[string]string{"by id": "banh", "by slug": "thuc-uong", "unresolved": "", "none": ""}
	for title, category := range want {
		blog, err := h.stores.Blogs.FindByTitleDate(ctx, title, nil)
		require.NoError(t, err, title)
		assert.Equal(t, category, blog.Category, title)
	}
}

func TestBlogPreservedIDKeysUpdates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const blogID = "6907314c0cf9c0351ba8f971"

	first := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityBlogs: `[{"_id": {"$oid": "` + blogID + `"}, "title": "Original", "content": "v1"}]`,
	})
	_, err := h.reconciler().Run(ctx, first)
	require.NoError(t, err)

	renamed := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityBlogs: `[{"_id": "` + blogID + `", "title": "Renamed", "content": "v2"}]`,
	})
	report, err := h.reconciler().Run(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Blogs.Updated)
	assert.EqualValues(t, 1, h.count(t, &models.Blog{}))

	id, _ := reconcile.ResolveID(blogID)
	blog, err := h.stores.Blogs.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", blog.Title)
	assert.True(t, blog.UpdatedAt.Equal(runClock))
}

func TestUserCredentialHandling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityUsers: `[
			{"email": "kept@example.com", "password_hash": "precomputed"},
			{"email": "plain@example.com", "password": "s3cret", "status": "active"}
		]`,
	})
	r := h.reconciler(reconcile.WithParallel(true))

	_, err := r.Run(ctx, batch)
	require.NoError(t, err)

	kept, err := h.stores.Users.FindByEmail(ctx, "kept@example.com")
	require.NoError(t, err)
	assert.Equal(t, "precomputed", kept.PasswordHash)

	plain, err := h.stores.Users.FindByEmail(ctx, "plain@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("s3cret", plain.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, enums.UserStatusActive, plain.Status)

	again, err := r.Run(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Users.Unchanged, "verified hashes are not rotated")
}

func TestRunRequiresStores(t *testing.T) {
	batch := loadBatch(t, map[reconcile.Entity]string{reconcile.EntityOrders: `[{"order_no": "x"}]`})
	_, err := reconcile.New(reconcile.Stores{}, nil, nil).Run(context.Background(), batch)
	require.Error(t, err)
}

const duplicateKeysJSON = `[
	{"_id": "cat-drinks", "name": "A", "slug": "thuc-uong"},
	{"_id": "cat-drinks-2", "name": "B", "slug": "thuc-uong"},
	{"_id": "cat-cakes", "name": "Bánh", "slug": "banh"}
]`

func duplicateKeysBatch(t *testing.T) reconcile.Batch {
	const otherEmail = "other@example.com"
	return loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityCategories: duplicateKeysJSON,
		reconcile.EntityProducts: `[
			{"sku": "S1", "name": "first", "category_slug": "thuc-uong", "price": 10000},
			{"sku": "S1", "name": "second", "category_slug": "thuc-uong", "price": 10000},
			{"sku": "S2", "name": "same", "category_id": "cat-cakes", "price": 5000},
			{"sku": "S2", "name": "same", "category_id": "cat-cakes", "price": 5000}
		]`,
		reconcile.EntityUsers: `[
			{"_id": "` + legacyUserID + `", "email": "an@example.com"},
			{"_id": "` + legacyUserID + `", "email": "an@example.com"},
			{"_id": "` + legacyUserID + `", "email": "` + otherEmail + `"},
			{"email": "binh@example.com"}
		]`,
		reconcile.EntityOrders: `[
			{"order_no": "ORD-1", "user_id": "` + legacyUserID + `", "order_status": "Shipped"},
			{"order_no": "ORD-1", "user_id": "` + legacyUserID + `", "order_status": "Shipped"}
		]`,
		reconcile.EntityBlogs: `[
			{"title": "Tin", "date_display": "01/10/2025", "content": "<p>x</p>"},
			{"title": "Tin", "date_display": "01/10/2025", "content": "<p>x</p>"}
		]`,
	})
}

func TestDryRunReportMatchesCommitReport(t *testing.T) {
	ctx := context.Background()

	dry, err := newHarness(t).reconciler(reconcile.WithDryRun(true)).Run(ctx, duplicateKeysBatch(t))
	require.NoError(t, err)
	commit, err := newHarness(t).reconciler().Run(ctx, duplicateKeysBatch(t))
	require.NoError(t, err)

	assert.Equal(t, reconcile.EntityReport{Attempted: 3, Upserted: 3, Inserted: 2, Updated: 1}, commit.Categories)
	assert.Equal(t, reconcile.EntityReport{Attempted: 4, Upserted: 3, Inserted: 2, Updated: 1, Unchanged: 1}, commit.Products)
	assert.Equal(t, reconcile.EntityReport{Attempted: 4, Upserted: 2, Inserted: 2, Unchanged: 1, Skipped: 1}, commit.Users)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Upserted: 1, Inserted: 1, Unchanged: 1}, commit.Orders)
	assert.Equal(t, reconcile.EntityReport{Attempted: 2, Upserted: 1, Inserted: 1, Unchanged: 1}, commit.Blogs)

	assert.Equal(t, commit.Categories, dry.Categories)
	assert.Equal(t, commit.Products, dry.Products)
	assert.Equal(t, commit.Users, dry.Users)
	assert.Equal(t, commit.Orders, dry.Orders)
	assert.Equal(t, commit.Blogs, dry.Blogs)
}

func TestUserIDConflictIsSkippedAndBatchContinues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := loadBatch(t, map[reconcile.Entity]string{
		reconcile.EntityUsers: `[
			{"_id": "` + legacyUserID + `", "email": "first@example.com"},
			{"_id": "` + legacyUserID + `", "email": "clash@example.com"},
			{"email": "after@example.com"}
		]`,
	})

	report, err := h.reconciler().Run(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, reconcile.EntityReport{Attempted: 3, Upserted: 2, Inserted: 2, Skipped: 1}, report.Users)
	assert.EqualValues(t, 2, h.count(t, &models.User{}))

	_, err = h.stores.Users.FindByEmail(ctx, "after@example.com")
	require.NoError(t, err, "records after the conflict are still reconciled")
	_, err = h.stores.Users.FindByEmail(ctx, "clash@example.com")
	require.Error(t, err)
}
