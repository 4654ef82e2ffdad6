package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalogsync/pkg/enums"
)

// User is a storefront account keyed by lower-cased email.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email        string           `gorm:"column:email;not null;uniqueIndex:idx_users_email"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FullName     string           `gorm:"column:full_name;not null"`
	Status       enums.UserStatus `gorm:"column:status;not null"`
	Role         enums.UserRole   `gorm:"column:role;not null"`
	AvatarURL    string           `gorm:"column:avatar_url;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
