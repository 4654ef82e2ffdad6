package categories

import (
	"context"

	pkgdb "github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes category persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a categories repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySlug retrieves the category with the given slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, pkgdb.Classify(err, "find category by slug")
	}
	return &category, nil
}

// FindByID loads a category by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, pkgdb.Classify(err, "find category by id")
	}
	return &category, nil
}

// List returns every category, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("slug ASC").Find(&rows).Error; err != nil {
		return nil, pkgdb.Classify(err, "list categories")
	}
	return rows, nil
}

// Upsert inserts the category or updates name and is_active of the row that
// already owns its slug. The slug itself never changes.
func (r *Repository) Upsert(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	var saved models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_active", "updated_at"}),
		}).Create(category).Error; err != nil {
			return err
		}
		return tx.Where("slug = ?", category.Slug).First(&saved).Error
	})
	if err != nil {
		return nil, pkgdb.Classify(err, "upsert category")
	}
	return &saved, nil
}
