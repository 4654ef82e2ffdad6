package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
)

// Product is a sellable catalog listing keyed by SKU.
type Product struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string             `gorm:"column:sku;not null;uniqueIndex:idx_products_sku"`
	Name          string             `gorm:"column:name;not null"`
	CategoryID    uuid.UUID          `gorm:"column:category_id;type:uuid;not null;index:idx_products_category_id"`
	Price         decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity int                `gorm:"column:stock_quantity;not null"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	Description   string             `gorm:"column:description;not null"`
	Images        dbtypes.StringList `gorm:"column:images;type:jsonb;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
