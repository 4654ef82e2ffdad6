package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalogsync/pkg/enums"
)

// Order is an imported purchase keyed by its order number.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNo         string            `gorm:"column:order_no;not null;uniqueIndex:idx_orders_order_no"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user_id"`
	Items           []OrderLineItem   `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	Status          enums.OrderStatus `gorm:"column:order_status;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLineItem is embedded in Order.Items.
type OrderLineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
