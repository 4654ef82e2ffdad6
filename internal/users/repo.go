package users

import (
	"context"

	pkgdb "github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, pkgdb.Classify(err, "find user by email")
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, pkgdb.Classify(err, "find user by id")
	}
	return &user, nil
}

var userUpdateColumns = []string{
	"password_hash", "full_name", "status", "role", "avatar_url", "created_at", "updated_at",
}

// Upsert inserts the user or updates the row owning its email. The id of an
// existing row is never rewritten; a caller supplied id only applies on insert.
func (r *Repository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	var saved models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns(userUpdateColumns),
		}).Create(user).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", user.Email).First(&saved).Error
	})
	if err != nil {
		return nil, pkgdb.Classify(err, "upsert user")
	}
	return &saved, nil
}
