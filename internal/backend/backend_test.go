package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/db/dbtest"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStoresSatisfyReconciler(t *testing.T) {
	stores := SQLStores(dbtest.Open(t))
	require.NotNil(t, stores.Categories)
	require.NotNil(t, stores.Blogs)

	active := true
	batch := reconcile.Batch{
		Categories: []reconcile.CategoryInput{{ID: "c1", Slug: "thuc-uong", Name: "Thức uống", IsActive: &active}},
		Products:   []reconcile.ProductInput{{SKU: "X1", Name: "Trà", CategoryID: "c1", Price: 45000}},
	}
	hasher := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16})
	report, err := reconcile.New(stores, hasher, nil).Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Categories.Upserted)
	assert.Equal(t, 1, report.Products.Upserted)
}

func TestOpenSQLiteBackendAutoMigrates(t *testing.T) {
	cfg := &config.Config{
		DB: config.DBConfig{
			Driver:      config.DBDriverSQLite,
			DSN:         "file:" + filepath.Join(t.TempDir(), "store.db"),
			AutoMigrate: true,
		},
		Reconcile: config.ReconcileConfig{Store: config.StoreBackendSQL},
	}
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "backend-test", Output: io.Discard})
	b, err := Open(ctx, cfg, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(ctx) })

	assert.Equal(t, config.StoreBackendSQL, b.Name)
	assert.NoError(t, b.Ping(ctx))

	cats, err := b.Stores.Categories.List(ctx)
	require.NoError(t, err, "migrations created the categories table")
	assert.Empty(t, cats)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Reconcile: config.ReconcileConfig{Store: "cassandra"}}, nil)
	assert.Error(t, err)
}
