package blogs

import (
	"context"

	pkgdb "github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists blog posts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	var blog models.Blog
	if err := r.db.WithContext(ctx).First(&blog, "id = ?", id).Error; err != nil {
		return nil, pkgdb.Classify(err, "find blog by id")
	}
	return &blog, nil
}

// FindByTitleDate is the best-effort lookup for posts without a stable id.
// A nil dateDisplay matches posts without a display date.
func (r *Repository) FindByTitleDate(ctx context.Context, title string, dateDisplay *string) (*models.Blog, error) {
	q := r.db.WithContext(ctx).Where("title = ?", title)
	if dateDisplay == nil {
		q = q.Where("date_display IS NULL")
	} else {
		q = q.Where("date_display = ?", *dateDisplay)
	}
	var blog models.Blog
	if err := q.Order("created_at ASC").First(&blog).Error; err != nil {
		return nil, pkgdb.Classify(err, "find blog by title")
	}
	return &blog, nil
}

var blogUpdateColumns = []string{
	"title", "date_display", "category", "content", "lead", "attached_file",
	"like_count", "comment_count", "share_count", "tags", "cta", "created_at", "updated_at",
}

// Upsert writes the post by primary key.
func (r *Repository) Upsert(ctx context.Context, blog *models.Blog) (*models.Blog, error) {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	var saved models.Blog
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(blogUpdateColumns),
		}).Create(blog).Error; err != nil {
			return err
		}
		return tx.First(&saved, "id = ?", blog.ID).Error
	})
	if err != nil {
		return nil, pkgdb.Classify(err, "upsert blog")
	}
	return &saved, nil
}
