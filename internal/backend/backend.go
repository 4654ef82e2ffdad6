// Package backend opens the configured store and exposes it as reconciler
// ports.
package backend

import (
	"context"
	"fmt"

	"github.com/angelmondragon/catalogsync/internal/blogs"
	"github.com/angelmondragon/catalogsync/internal/categories"
	"github.com/angelmondragon/catalogsync/internal/mongostore"
	"github.com/angelmondragon/catalogsync/internal/orders"
	"github.com/angelmondragon/catalogsync/internal/products"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/angelmondragon/catalogsync/internal/users"
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/migrate"
	"gorm.io/gorm"
)

// Backend is an open store.
type Backend struct {
	Name   string
	Stores reconcile.Stores

	sql   *db.Client
	mongo *mongostore.Client
}

// Open connects to the store selected by cfg.Reconcile.Store. The SQL store
// applies pending migrations when auto-migrate is on; the Mongo store
// ensures its indexes.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Backend, error) {
	switch cfg.Reconcile.StoreBackend() {
	case config.StoreBackendSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &Backend{Name: config.StoreBackendSQL, Stores: SQLStores(client.DB()), sql: client}, nil

	case config.StoreBackendMongo:
		client, err := mongostore.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("bootstrap mongo: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return &Backend{Name: config.StoreBackendMongo, Stores: client.Stores(), mongo: client}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Reconcile.Store)
}

// SQLStores binds the GORM repositories to conn.
func SQLStores(conn *gorm.DB) reconcile.Stores {
	return reconcile.Stores{
		Categories: categories.NewRepository(conn),
		Products:   products.NewRepository(conn),
		Users:      users.NewRepository(conn),
		Orders:     orders.NewRepository(conn),
		Blogs:      blogs.NewRepository(conn),
	}
}

// Ping checks the underlying connection.
func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b.sql != nil:
		return b.sql.Ping(ctx)
	case b.mongo != nil:
		return b.mongo.Ping(ctx)
	}
	return nil
}

// Close releases the connection.
func (b *Backend) Close(ctx context.Context) error {
	switch {
	case b.sql != nil:
		return b.sql.Close()
	case b.mongo != nil:
		return b.mongo.Close(ctx)
	}
	return nil
}
