package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
	"github.com/angelmondragon/catalogsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var stamp = time.Date(2026, 3, 1, 8, 0, 0, 123456789, time.UTC)

func TestProductDocRoundTrip(t *testing.T) {
	p := &models.Product{
		ID:            uuid.New(),
		SKU:           "SKU-1",
		Name:          "Trà Vải",
		CategoryID:    uuid.New(),
		Price:         decimal.RequireFromString("45000.50"),
		StockQuantity: 3,
		IsActive:      true,
		Description:   "chai 450ml",
		Images:        dbtypes.StringList{"a.png", "b.png"},
		CreatedAt:     stamp,
		UpdatedAt:     stamp,
	}
	doc := newProductDoc(p)
	assert.Equal(t, "45000.5", doc.Price.String())
	assert.Equal(t, stamp.Truncate(time.Millisecond), doc.CreatedAt)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded productDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := decoded.model()
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.CategoryID, got.CategoryID)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, p.Images, got.Images)
	assert.Equal(t, stamp.Truncate(time.Millisecond), got.CreatedAt)
}

func TestProductDocEmptyImages(t *testing.T) {
	doc := newProductDoc(&models.Product{ID: uuid.New()})
	assert.NotNil(t, doc.Images)
	assert.Empty(t, doc.Images)
	assert.NotNil(t, productDoc{}.model().Images)
}

func TestOrderDocRoundTrip(t *testing.T) {
	o := &models.Order{
		ID:      uuid.New(),
		OrderNo: "ORD-1",
		UserID:  uuid.New(),
		Items: []models.OrderLineItem{
			{ProductName: "Bánh mì", Quantity: 2, UnitPrice: decimal.NewFromInt(15000), LineTotal: decimal.NewFromInt(30000)},
		},
		Subtotal:        decimal.NewFromInt(30000),
		TotalAmount:     decimal.NewFromInt(35000),
		ShippingAddress: "1 Lê Lợi",
		Status:          enums.OrderStatusShipped,
		CreatedAt:       stamp,
		UpdatedAt:       stamp,
	}
	raw, err := bson.Marshal(newOrderDoc(o))
	require.NoError(t, err)
	var decoded orderDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := decoded.model()
	assert.Equal(t, o.UserID, got.UserID)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].LineTotal.Equal(decimal.NewFromInt(30000)))
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
}

func TestUserAndCategoryDocRoundTrip(t *testing.T) {
	u := &models.User{
		ID:           uuid.New(),
		Email:        "a@example.com",
		PasswordHash: "$argon2id$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		FullName:     "An",
		Status:       enums.UserStatusActive,
		Role:         enums.UserRoleAdmin,
	}
	gotUser := newUserDoc(u).model()
	assert.Equal(t, u.ID, gotUser.ID)
	assert.Equal(t, enums.UserRoleAdmin, gotUser.Role)
	assert.Equal(t, u.PasswordHash, gotUser.PasswordHash)

	c := &models.Category{ID: uuid.New(), Slug: "banh", Name: "Bánh", IsActive: true}
	gotCategory := newCategoryDoc(c).model()
	assert.Equal(t, c.ID, gotCategory.ID)
	assert.Equal(t, "banh", gotCategory.Slug)
}

func TestBlogDocKeepsNullableFields(t *testing.T) {
	lead := "lead"
	b := &models.Blog{
		ID:    uuid.New(),
		Title: "Mùa thu",
		Lead:  &lead,
		CTA:   []models.BlogCTA{{Label: "Mua", Href: "/shop"}},
	}
	raw, err := bson.Marshal(newBlogDoc(b))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "date_display")
	assert.Nil(t, fields["date_display"])

	var decoded blogDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got := decoded.model()
	assert.Nil(t, got.DateDisplay)
	require.NotNil(t, got.Lead)
	assert.Equal(t, "lead", *got.Lead)
	assert.Equal(t, dbtypes.StringList{}, got.Tags)
	assert.Equal(t, b.CTA, got.CTA)
}

func TestParseIDRejectsGarbage(t *testing.T) {
	assert.Equal(t, uuid.Nil, parseID("690303e90cf9c0351ba8f7c5"))
	id := uuid.New()
	assert.Equal(t, id, parseID(id.String()))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "noop"))
	assert.True(t, pkgerrors.IsCode(classify(mongo.ErrNoDocuments, "find"), pkgerrors.CodeNotFound))

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.True(t, pkgerrors.IsCode(classify(dup, "upsert"), pkgerrors.CodeConflict))

	assert.True(t, pkgerrors.IsCode(classify(errors.New("socket closed"), "find"), pkgerrors.CodeDependency))
}

func TestUpsertUpdateOnlyInsertsID(t *testing.T) {
	doc := newCategoryDoc(&models.Category{ID: uuid.New(), Slug: "banh", Name: "Bánh"})
	update, err := upsertUpdate(doc, doc.ID)
	require.NoError(t, err)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, set, "_id")
	assert.Equal(t, "banh", set["slug"])
	assert.Equal(t, bson.M{"_id": doc.ID}, update["$setOnInsert"])
}

func TestTitleDateFilter(t *testing.T) {
	assert.Equal(t, bson.M{"title": "t", "date_display": nil}, titleDateFilter("t", nil))
	d := "01/10/2025"
	assert.Equal(t, bson.M{"title": "t", "date_display": d}, titleDateFilter("t", &d))
}

func TestIndexSpecs(t *testing.T) {
	names := map[string]string{}
	for _, spec := range indexSpecs() {
		require.NotNil(t, spec.model.Options)
		require.NotNil(t, spec.model.Options.Name)
		names[*spec.model.Options.Name] = spec.collection
	}
	assert.Equal(t, map[string]string{
		"categories_slug_unique": collectionCategories,
		"products_sku_unique":    collectionProducts,
		"users_email_unique":     collectionUsers,
		"orders_order_no_unique": collectionOrders,
		"blogs_title_date":       collectionBlogs,
		"products_category_id":   collectionProducts,
	}, names)
}
