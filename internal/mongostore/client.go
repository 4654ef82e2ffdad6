// Package mongostore implements the reconciler store ports on MongoDB.
// Each entity lives in its own collection with a unique index on its
// natural key.
package mongostore

import (
	"context"
	"time"

	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/angelmondragon/catalogsync/pkg/config"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionCategories = "categories"
	collectionProducts   = "products"
	collectionUsers      = "users"
	collectionOrders     = "orders"
	collectionBlogs      = "blogs"
)

// Client owns a driver connection bound to one database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects and pings the configured deployment.
func Open(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "mongo uri is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "connect mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ping mongo")
	}
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the driver.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ping mongo")
	}
	return nil
}

// Stores returns the reconciler ports backed by this database.
func (c *Client) Stores() reconcile.Stores {
	return reconcile.Stores{
		Categories: &CategoryStore{coll: c.db.Collection(collectionCategories)},
		Products:   &ProductStore{coll: c.db.Collection(collectionProducts)},
		Users:      &UserStore{coll: c.db.Collection(collectionUsers)},
		Orders:     &OrderStore{coll: c.db.Collection(collectionOrders)},
		Blogs:      &BlogStore{coll: c.db.Collection(collectionBlogs)},
	}
}

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

// indexSpecs lists the natural-key unique indexes plus the blog lookup index.
func indexSpecs() []indexSpec {
	unique := func(coll, field string) indexSpec {
		return indexSpec{
			collection: coll,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetName(coll + "_" + field + "_unique").SetUnique(true),
			},
		}
	}
	return []indexSpec{
		unique(collectionCategories, "slug"),
		unique(collectionProducts, "sku"),
		unique(collectionUsers, "email"),
		unique(collectionOrders, "order_no"),
		{
			collection: collectionBlogs,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "title", Value: 1}, {Key: "date_display", Value: 1}},
				Options: options.Index().SetName("blogs_title_date"),
			},
		},
		{
			collection: collectionProducts,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "category_id", Value: 1}},
				Options: options.Index().SetName("products_category_id"),
			},
		},
	}
}

// EnsureIndexes creates every index; existing identical indexes are a no-op.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for _, spec := range indexSpecs() {
		if _, err := c.db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create index on "+spec.collection)
		}
	}
	return nil
}
