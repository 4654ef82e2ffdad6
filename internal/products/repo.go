package products

import (
	"context"

	pkgdb "github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes product persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySKU retrieves the product with the given SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, pkgdb.Classify(err, "find product by sku")
	}
	return &product, nil
}

// ListByCategory returns the products of a category ordered by SKU.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("sku ASC").
		Find(&rows).Error; err != nil {
		return nil, pkgdb.Classify(err, "list products by category")
	}
	return rows, nil
}

// Count returns the number of stored products.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, pkgdb.Classify(err, "count products")
	}
	return n, nil
}

var productUpdateColumns = []string{
	"name", "category_id", "price", "stock_quantity", "is_active", "description", "images", "updated_at",
}

// Upsert inserts the product or rewrites the mutable columns of the row that
// owns its SKU.
func (r *Repository) Upsert(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	var saved models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns(productUpdateColumns),
		}).Create(product).Error; err != nil {
			return err
		}
		return tx.Where("sku = ?", product.SKU).First(&saved).Error
	})
	if err != nil {
		return nil, pkgdb.Classify(err, "upsert product")
	}
	return &saved, nil
}
