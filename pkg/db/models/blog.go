package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
)

// Blog is an editorial post. Title plus DateDisplay is indexed for the
// best-effort lookup used when no stable id was supplied.
type Blog struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Title        string             `gorm:"column:title;not null;index:idx_blogs_title_date,priority:1"`
	DateDisplay  *string            `gorm:"column:date_display;index:idx_blogs_title_date,priority:2"`
	Category     string             `gorm:"column:category;not null"`
	Content      string             `gorm:"column:content;not null"`
	Lead         *string            `gorm:"column:lead"`
	AttachedFile *string            `gorm:"column:attached_file"`
	LikeCount    int                `gorm:"column:like_count;not null"`
	CommentCount int                `gorm:"column:comment_count;not null"`
	ShareCount   int                `gorm:"column:share_count;not null"`
	Tags         dbtypes.StringList `gorm:"column:tags;type:jsonb;not null"`
	CTA          []BlogCTA          `gorm:"column:cta;type:jsonb;serializer:json"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_blogs_created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Blog) TableName() string { return "blogs" }

// BlogCTA is a call-to-action button rendered under a post.
type BlogCTA struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Kind  string `json:"kind,omitempty"`
}
