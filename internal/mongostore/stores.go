package mongostore

import (
	"context"
	"errors"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// classify maps driver errors onto the shared error codes.
func classify(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case mongo.IsDuplicateKeyError(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
	}
}

// upsertUpdate sets every field but _id, which is only written on insert so
// an existing document keeps its id.
func upsertUpdate(doc any, id string) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	return bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"_id": id},
	}, nil
}

func upsertOne[D any](ctx context.Context, coll *mongo.Collection, filter bson.M, doc D, id string, message string) (D, error) {
	var saved D
	update, err := upsertUpdate(doc, id)
	if err != nil {
		return saved, pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
	if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return saved, classify(err, message)
	}
	if err := coll.FindOne(ctx, filter).Decode(&saved); err != nil {
		return saved, classify(err, message)
	}
	return saved, nil
}

func findOne[D any](ctx context.Context, coll *mongo.Collection, filter bson.M, message string) (D, error) {
	var doc D
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return doc, classify(err, message)
	}
	return doc, nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

type CategoryStore struct {
	coll *mongo.Collection
}

func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	doc, err := findOne[categoryDoc](ctx, s.coll, bson.M{"slug": slug}, "find category by slug")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	doc, err := findOne[categoryDoc](ctx, s.coll, bson.M{"_id": id.String()}, "find category by id")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// List returns every category, oldest first.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "slug", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err, "list categories")
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, "list categories")
	}
	out := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.model())
	}
	return out, nil
}

func (s *CategoryStore) Upsert(ctx context.Context, c *models.Category) (*models.Category, error) {
	ensureID(&c.ID)
	doc := newCategoryDoc(c)
	saved, err := upsertOne(ctx, s.coll, bson.M{"slug": c.Slug}, doc, doc.ID, "upsert category")
	if err != nil {
		return nil, err
	}
	return saved.model(), nil
}

type ProductStore struct {
	coll *mongo.Collection
}

func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	doc, err := findOne[productDoc](ctx, s.coll, bson.M{"sku": sku}, "find product by sku")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *ProductStore) Upsert(ctx context.Context, p *models.Product) (*models.Product, error) {
	ensureID(&p.ID)
	doc := newProductDoc(p)
	saved, err := upsertOne(ctx, s.coll, bson.M{"sku": p.SKU}, doc, doc.ID, "upsert product")
	if err != nil {
		return nil, err
	}
	return saved.model(), nil
}

type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := findOne[userDoc](ctx, s.coll, bson.M{"email": email}, "find user by email")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	doc, err := findOne[userDoc](ctx, s.coll, bson.M{"_id": id.String()}, "find user by id")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *UserStore) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	ensureID(&u.ID)
	doc := newUserDoc(u)
	saved, err := upsertOne(ctx, s.coll, bson.M{"email": u.Email}, doc, doc.ID, "upsert user")
	if err != nil {
		return nil, err
	}
	return saved.model(), nil
}

type OrderStore struct {
	coll *mongo.Collection
}

func (s *OrderStore) FindByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	doc, err := findOne[orderDoc](ctx, s.coll, bson.M{"order_no": orderNo}, "find order by order_no")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *OrderStore) Upsert(ctx context.Context, o *models.Order) (*models.Order, error) {
	ensureID(&o.ID)
	doc := newOrderDoc(o)
	saved, err := upsertOne(ctx, s.coll, bson.M{"order_no": o.OrderNo}, doc, doc.ID, "upsert order")
	if err != nil {
		return nil, err
	}
	return saved.model(), nil
}

type BlogStore struct {
	coll *mongo.Collection
}

func (s *BlogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	doc, err := findOne[blogDoc](ctx, s.coll, bson.M{"_id": id.String()}, "find blog by id")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

// FindByTitleDate matches a nil date against posts stored without one.
func (s *BlogStore) FindByTitleDate(ctx context.Context, title string, dateDisplay *string) (*models.Blog, error) {
	doc, err := findOne[blogDoc](ctx, s.coll, titleDateFilter(title, dateDisplay), "find blog by title and date")
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func titleDateFilter(title string, dateDisplay *string) bson.M {
	if dateDisplay == nil {
		return bson.M{"title": title, "date_display": nil}
	}
	return bson.M{"title": title, "date_display": *dateDisplay}
}

func (s *BlogStore) Upsert(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	ensureID(&b.ID)
	doc := newBlogDoc(b)
	saved, err := upsertOne(ctx, s.coll, bson.M{"_id": doc.ID}, doc, doc.ID, "upsert blog")
	if err != nil {
		return nil, err
	}
	return saved.model(), nil
}
