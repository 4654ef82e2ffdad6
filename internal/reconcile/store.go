package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
)

// The reconciler talks to the store through these ports. Finders return an
// error coded pkg/errors.CodeNotFound when no record matches. Upsert writes
// by natural key and returns the persisted record, whose id is authoritative.

type CategoryStore interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	// List returns every category, oldest first.
	List(ctx context.Context) ([]models.Category, error)
	Upsert(ctx context.Context, category *models.Category) (*models.Category, error)
}

type ProductStore interface {
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	Upsert(ctx context.Context, product *models.Product) (*models.Product, error)
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
}

type OrderStore interface {
	FindByOrderNo(ctx context.Context, orderNo string) (*models.Order, error)
	Upsert(ctx context.Context, order *models.Order) (*models.Order, error)
}

type BlogStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	FindByTitleDate(ctx context.Context, title string, dateDisplay *string) (*models.Blog, error)
	// Upsert writes by primary key.
	Upsert(ctx context.Context, blog *models.Blog) (*models.Blog, error)
}

// Stores bundles one backend's ports.
type Stores struct {
	Categories CategoryStore
	Products   ProductStore
	Users      UserStore
	Orders     OrderStore
	Blogs      BlogStore
}

// CredentialHasher derives and checks stored credential hashes.
type CredentialHasher interface {
	Hash(credential string) (string, error)
	Verify(credential, encoded string) (bool, error)
}
